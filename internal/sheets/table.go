package sheets

import (
	"terapia/internal/chart"
)

const (
	HeaderGoal = "Meta"
	HeaderDate = "Data"
)

// Table lays out the series as spreadsheet rows. The header is Meta, Data
// and the union of field names in first-seen order. Each point becomes one
// row with the goal name in column A and the date as DD/MM/YYYY. A field
// the goal never measured is left blank; one it measured on other dates
// is 0.
func Table(series []chart.GoalSeries) [][]any {
	var fields []string
	index := make(map[string]int)
	for _, s := range series {
		for _, f := range s.FieldNames {
			if _, ok := index[f]; !ok {
				index[f] = len(fields)
				fields = append(fields, f)
			}
		}
	}

	header := make([]any, 0, len(fields)+2)
	header = append(header, HeaderGoal, HeaderDate)
	for _, f := range fields {
		header = append(header, f)
	}
	rows := [][]any{header}

	for _, s := range series {
		own := make(map[string]bool, len(s.FieldNames))
		for _, f := range s.FieldNames {
			own[f] = true
		}
		for _, p := range s.Points {
			row := make([]any, len(header))
			row[0] = s.GoalName
			row[1] = chart.FormatDate(p.Date)
			for i, f := range fields {
				if own[f] {
					row[i+2] = p.Value(f)
				} else {
					row[i+2] = ""
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}
