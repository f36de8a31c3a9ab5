package chart

import "strings"

// FormatDate renders a YYYY-MM-DD bucket as DD/MM/YYYY. Anything else is
// returned unchanged.
func FormatDate(bucket string) string {
	parts := strings.Split(bucket, "-")
	if len(parts) != 3 {
		return bucket
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}
