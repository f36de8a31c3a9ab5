package sheets

import (
	"reflect"
	"testing"

	"terapia/internal/chart"
)

func TestTable(t *testing.T) {
	series := []chart.GoalSeries{
		{
			GoalName:   "Pedir água",
			FieldNames: []string{"Acertos", "Erros"},
			Points: []chart.Point{
				{Date: "2024-03-01", Values: map[string]float64{"Acertos": 7, "Erros": 1}},
				{Date: "2024-03-02", Values: map[string]float64{"Acertos": 2}},
			},
		},
		{
			GoalName:   "Pedir colo",
			FieldNames: []string{"Tentativas"},
			Points:     []chart.Point{{Date: "2024-03-02", Values: map[string]float64{"Tentativas": 3}}},
		},
	}

	want := [][]any{
		{"Meta", "Data", "Acertos", "Erros", "Tentativas"},
		{"Pedir água", "01/03/2024", 7.0, 1.0, ""},
		{"Pedir água", "02/03/2024", 2.0, 0.0, ""},
		{"Pedir colo", "02/03/2024", "", "", 3.0},
	}
	if got := Table(series); !reflect.DeepEqual(got, want) {
		t.Errorf("Table() =\n%v\nwant\n%v", got, want)
	}
}

func TestTableEmpty(t *testing.T) {
	got := Table(nil)
	if len(got) != 1 || len(got[0]) != 2 {
		t.Errorf("empty export should be a bare header, got %v", got)
	}
}
