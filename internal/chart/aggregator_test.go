package chart

import (
	"encoding/json"
	"reflect"
	"testing"
)

func rec(goal, createdAt string, inputs ...Input) Record {
	return Record{ID: goal + "@" + createdAt, GoalName: goal, CreatedAt: createdAt, Inputs: inputs}
}

func in(name string, v any) Input { return Input{Name: name, Value: v} }

func TestBuild_SameDaySums(t *testing.T) {
	records := []Record{
		rec("Cores", "2024-01-01T10:00:00Z", in("Vermelho", 3.0)),
		rec("Cores", "2024-01-01T15:00:00Z", in("Vermelho", 2.0), in("Azul", 1.0)),
	}

	got := Build(records).Series
	want := []GoalSeries{{
		GoalName:   "Cores",
		FieldNames: []string{"Vermelho", "Azul"},
		Points: []Point{
			{Date: "2024-01-01", Values: map[string]float64{"Vermelho": 5, "Azul": 1}},
		},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Build() = %+v, want %+v", got, want)
	}
}

func TestBuild_ExcludesAnnotations(t *testing.T) {
	records := []Record{
		rec("Cores", "2024-01-01T10:00:00Z", in("Vermelho", 3.0)),
		rec("Cores", "2024-01-01T15:00:00Z", in("Vermelho", 2.0), in("Observações", "bom dia"), in("IND", 4.0), in("Azul", 1.0)),
	}

	series := Build(records).Series
	if len(series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(series))
	}
	for _, f := range series[0].FieldNames {
		if f == "Observações" || f == "IND" {
			t.Fatalf("excluded field %q registered", f)
		}
	}
	for _, p := range series[0].Points {
		if _, ok := p.Values["Observações"]; ok {
			t.Fatalf("excluded field present in point %s", p.Date)
		}
		if _, ok := p.Values["IND"]; ok {
			t.Fatalf("excluded field present in point %s", p.Date)
		}
	}
	if got := series[0].Points[0].Value("Vermelho"); got != 5 {
		t.Fatalf("Vermelho = %v, want 5", got)
	}
}

func TestBuild_CustomExcludedFields(t *testing.T) {
	records := []Record{
		rec("Cores", "2024-01-01T10:00:00Z", in("Vermelho", 3.0), in("IND", 2.0), in("Nota", 1.0)),
	}

	series := Build(records, WithExcludedFields("Nota")).Series
	want := []string{"Vermelho", "IND"}
	if !reflect.DeepEqual(series[0].FieldNames, want) {
		t.Fatalf("FieldNames = %v, want %v", series[0].FieldNames, want)
	}
}

func TestBuild_SortsPointsByDate(t *testing.T) {
	records := []Record{
		rec("Cores", "2024-03-02T09:00:00Z", in("Vermelho", 1.0)),
		rec("Cores", "2024-01-15T09:00:00Z", in("Vermelho", 2.0)),
		rec("Cores", "2024-02-28T09:00:00Z", in("Azul", 7.0)),
	}

	points := Build(records).Series[0].Points
	var dates []string
	for _, p := range points {
		dates = append(dates, p.Date)
	}
	want := []string{"2024-01-15", "2024-02-28", "2024-03-02"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
}

func TestBuild_NonNumericCountsAsZero(t *testing.T) {
	records := []Record{
		rec("Leitura", "2024-01-01T10:00:00Z", in("Palavras", "12"), in("Acertos", 4.0)),
		rec("Leitura", "2024-01-01T11:00:00Z", in("Palavras", true)),
	}

	s := Build(records).Series[0]
	if !reflect.DeepEqual(s.FieldNames, []string{"Palavras", "Acertos"}) {
		t.Fatalf("FieldNames = %v", s.FieldNames)
	}
	p := s.Points[0]
	if v, ok := p.Values["Palavras"]; !ok || v != 0 {
		t.Fatalf("Palavras = %v (present=%v), want 0 present", v, ok)
	}
	if p.Value("Acertos") != 4 {
		t.Fatalf("Acertos = %v, want 4", p.Value("Acertos"))
	}
}

func TestBuild_GroupsByGoalInEncounterOrder(t *testing.T) {
	records := []Record{
		rec("Formas", "2024-01-02T10:00:00Z", in("Círculo", 1.0)),
		rec("Cores", "2024-01-01T10:00:00Z", in("Vermelho", 1.0)),
		rec("Formas", "2024-01-01T10:00:00Z", in("Quadrado", 2.0)),
	}

	series := Build(records).Series
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	if series[0].GoalName != "Formas" || series[1].GoalName != "Cores" {
		t.Fatalf("goal order = %s, %s", series[0].GoalName, series[1].GoalName)
	}
	if !reflect.DeepEqual(series[0].FieldNames, []string{"Círculo", "Quadrado"}) {
		t.Fatalf("Formas fields = %v", series[0].FieldNames)
	}
	// Rows stay sparse.
	first := series[0].Points[0]
	if _, ok := first.Values["Círculo"]; ok {
		t.Fatalf("2024-01-01 should not carry Círculo")
	}
	if first.Value("Círculo") != 0 {
		t.Fatalf("missing field must read as 0")
	}
}

func TestBuild_BucketsInUTC(t *testing.T) {
	records := []Record{
		rec("Cores", "2024-01-01T23:30:00-03:00", in("Vermelho", 1.0)),
		rec("Cores", "2024-01-02T01:00:00.123Z", in("Vermelho", 1.0)),
	}

	points := Build(records).Series[0].Points
	if len(points) != 1 || points[0].Date != "2024-01-02" || points[0].Value("Vermelho") != 2 {
		t.Fatalf("points = %+v", points)
	}
}

func TestBuild_SkipsUnparseableTimestamps(t *testing.T) {
	records := []Record{
		{ID: "bad", GoalName: "Cores", CreatedAt: "yesterday", Inputs: []Input{in("Vermelho", 1.0)}},
		rec("Cores", "2024-01-01", in("Vermelho", 2.0)),
	}

	res := Build(records)
	if len(res.Skipped) != 1 || res.Skipped[0].ID != "bad" {
		t.Fatalf("Skipped = %+v", res.Skipped)
	}
	if res.Series[0].Points[0].Value("Vermelho") != 2 {
		t.Fatalf("valid record not aggregated")
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	for _, records := range [][]Record{nil, {}} {
		res := Build(records)
		if res.Series == nil || len(res.Series) != 0 {
			t.Fatalf("expected empty non-nil series, got %#v", res.Series)
		}
		b, err := json.Marshal(res.Series)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "[]" {
			t.Fatalf("json = %s, want []", b)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	records := []Record{
		rec("A", "2024-01-03T10:00:00Z", in("x", 1.0), in("y", 2.0)),
		rec("B", "2024-01-01T10:00:00Z", in("z", 3.0)),
		rec("A", "2024-01-01T10:00:00Z", in("y", 4.0), in("w", 1.0)),
	}

	first := Build(records)
	for i := 0; i < 20; i++ {
		if got := Build(records); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestCoerceNumeric(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{3.5, 3.5},
		{float32(2), 2},
		{7, 7},
		{int64(-2), -2},
		{uint8(9), 9},
		{json.Number("4.25"), 4.25},
		{json.Number("abc"), 0},
		{"5", 0},
		{"", 0},
		{true, 0},
		{nil, 0},
		{map[string]any{"v": 1}, 0},
	}
	for _, tc := range cases {
		if got := CoerceNumeric(tc.in); got != tc.want {
			t.Errorf("CoerceNumeric(%#v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDateBucket(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-05-06T10:00:00Z", "2024-05-06", false},
		{"2024-05-06T10:00:00.999999Z", "2024-05-06", false},
		{"2024-05-06T10:00:00", "2024-05-06", false},
		{"2024-05-06 22:00:00", "2024-05-06", false},
		{"2024-05-06", "2024-05-06", false},
		{"2024-05-06T02:00:00+05:00", "2024-05-05", false},
		{"", "", true},
		{"06/05/2024", "", true},
	}
	for _, tc := range cases {
		got, err := DateBucket(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("DateBucket(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("DateBucket(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
