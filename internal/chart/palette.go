package chart

import "strconv"

// SeriesColor binds a field to its stacked-segment colour.
type SeriesColor struct {
	Field string `json:"key"`
	Color string `json:"color"`
}

// Palette spreads hues evenly over the circle: the i-th of N fields gets
// hsl(i*360/N, 70%, 50%).
func Palette(fieldNames []string) []SeriesColor {
	n := len(fieldNames)
	colors := make([]SeriesColor, 0, n)
	for i, name := range fieldNames {
		hue := float64(i*360) / float64(n)
		colors = append(colors, SeriesColor{
			Field: name,
			Color: "hsl(" + strconv.FormatFloat(hue, 'f', -1, 64) + ", 70%, 50%)",
		})
	}
	return colors
}
