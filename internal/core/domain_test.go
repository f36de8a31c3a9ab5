package core

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestInputValues_UnmarshalJSONObjectKeepsOrder(t *testing.T) {
	var app Application
	body := `{"id":"r1","goal_name":"Cores","created_at":"2024-01-01T10:00:00Z",
		"inputs":{"Vermelho":3,"Azul":"1","Observações":"ok","Amarelo":2.5}}`
	if err := json.Unmarshal([]byte(body), &app); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := InputValues{
		{Name: "Vermelho", Value: 3.0},
		{Name: "Azul", Value: "1"},
		{Name: "Observações", Value: "ok"},
		{Name: "Amarelo", Value: 2.5},
	}
	if !reflect.DeepEqual(app.Inputs, want) {
		t.Fatalf("Inputs = %v, want %v", app.Inputs, want)
	}
	if app.Inputs.Annotation() != "ok" {
		t.Fatalf("Annotation = %q", app.Inputs.Annotation())
	}
}

func TestInputValues_UnmarshalJSONList(t *testing.T) {
	var v InputValues
	if err := json.Unmarshal([]byte(`[{"name":"b","value":1},{"name":"a","value":"x"}]`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := InputValues{{Name: "b", Value: 1.0}, {Name: "a", Value: "x"}}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("got %v, want %v", v, want)
	}
}

func TestInputValues_UnmarshalJSONNullAndInvalid(t *testing.T) {
	v := InputValues{{Name: "x"}}
	if err := json.Unmarshal([]byte(`null`), &v); err != nil {
		t.Fatalf("null: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil after null, got %v", v)
	}
	if err := json.Unmarshal([]byte(`"nope"`), &v); err == nil {
		t.Fatalf("expected error for string inputs")
	}
}

func TestInputValues_UnmarshalYAML(t *testing.T) {
	var app Application
	doc := "id: r1\ninputs:\n  Vermelho: 3\n  Azul: texto\n"
	if err := yaml.Unmarshal([]byte(doc), &app); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	want := InputValues{{Name: "Vermelho", Value: 3}, {Name: "Azul", Value: "texto"}}
	if !reflect.DeepEqual(app.Inputs, want) {
		t.Fatalf("Inputs = %#v, want %#v", app.Inputs, want)
	}
}

func TestApplication_ChartRecord(t *testing.T) {
	app := Application{
		ID:        "r1",
		GoalName:  "Cores",
		CreatedAt: "2024-01-01T10:00:00Z",
		Inputs:    InputValues{{Name: "Vermelho", Value: 3.0}, {Name: "Azul", Value: 1.0}},
	}
	rec := app.ChartRecord()
	if rec.ID != "r1" || rec.GoalName != "Cores" || len(rec.Inputs) != 2 || rec.Inputs[1].Name != "Azul" {
		t.Fatalf("ChartRecord() = %+v", rec)
	}
}

func TestRecordInputValidate(t *testing.T) {
	cases := []struct {
		name string
		in   RecordInput
		want error
	}{
		{"ok", RecordInput{GoalID: "g", Inputs: []InputValue{{Name: "a", Value: 1.0}, {Name: "b", Value: "x"}}}, nil},
		{"missing goal", RecordInput{Inputs: []InputValue{{Name: "a", Value: 1.0}}}, ErrEmptyGoal},
		{"update without goal", RecordInput{ID: "r1", ProgramID: "p"}, nil},
		{"negative", RecordInput{GoalID: "g", Inputs: []InputValue{{Name: "a", Value: -1.0}}}, ErrNegativeValue},
		{"unnamed", RecordInput{GoalID: "g", Inputs: []InputValue{{Name: " ", Value: 1.0}}}, ErrEmptyName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.want == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPatientInputValidate(t *testing.T) {
	in := PatientInput{Name: "  Ana ", Sex: SexFemale, BirthDate: "2015-03-04T00:00:00Z"}
	if err := in.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if in.Name != "Ana" || in.BirthDate != "2015-03-04" {
		t.Fatalf("normalized = %+v", in)
	}

	bad := []PatientInput{
		{Sex: SexMale, BirthDate: "2015-03-04"},
		{Name: "x", Sex: "other", BirthDate: "2015-03-04"},
		{Name: "x", Sex: SexMale, BirthDate: "04/03/2015"},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNewImagePayload(t *testing.T) {
	img, err := NewImagePayload([]byte("abc"), "image/png", "Foto.PNG")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if img.Base64 != "YWJj" || img.Extension != "png" {
		t.Fatalf("payload = %+v", img)
	}
	if _, err := NewImagePayload([]byte("abc"), "application/pdf", "a.pdf"); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	big := make([]byte, MaxImageSize+1)
	if _, err := NewImagePayload(big, "image/jpeg", "a.jpg"); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		birth string
		want  int
	}{
		{"2014-06-10", 10},
		{"2014-06-11", 9},
		{"2014-07-01", 9},
		{"2025-01-01", 0},
	}
	for _, tc := range cases {
		if got := (Patient{BirthDate: tc.birth}).Age(now); got != tc.want {
			t.Errorf("Age(%s) = %d, want %d", tc.birth, got, tc.want)
		}
	}
	if (Patient{BirthDate: "??"}).Age(now) != -1 {
		t.Errorf("expected -1 for unreadable birth date")
	}
}

func TestFilterPatients(t *testing.T) {
	patients := []Patient{
		{ID: "1", Name: "bruno", Sex: SexMale},
		{ID: "2", Name: "Ana Clara", Sex: SexFemale},
		{ID: "3", Name: "Mariana", Sex: SexFemale},
	}
	ids := func(ps []Patient) string {
		var out []string
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return strings.Join(out, ",")
	}

	if got := ids(FilterPatients(patients, "", "todos")); got != "2,1,3" {
		t.Fatalf("all = %s", got)
	}
	if got := ids(FilterPatients(patients, "ANA", "")); got != "2,3" {
		t.Fatalf("query = %s", got)
	}
	if got := ids(FilterPatients(patients, "", "masculino")); got != "1" {
		t.Fatalf("masculino = %s", got)
	}
	if got := ids(FilterPatients(patients, "clara", "feminino")); got != "2" {
		t.Fatalf("clara+feminino = %s", got)
	}
}

func TestProgramInputValidate(t *testing.T) {
	good := ProgramInput{
		Name:      "Cores",
		PatientID: "p1",
		Inputs:    []InputField{{Name: "Acertos", Type: InputNumber}},
		Sets: []SetInput{{
			Name:               "Conjunto 1",
			ProgramSetStatusID: "s1",
			Goals:              []GoalInput{{Name: "Vermelho"}},
		}},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	mutate := []struct {
		name string
		fn   func(p *ProgramInput)
		want error
	}{
		{"no name", func(p *ProgramInput) { p.Name = "" }, ErrEmptyName},
		{"no patient", func(p *ProgramInput) { p.PatientID = "" }, ErrEmptyPatient},
		{"no inputs", func(p *ProgramInput) { p.Inputs = nil }, ErrNoInputs},
		{"bad type", func(p *ProgramInput) { p.Inputs = []InputField{{Name: "x", Type: "color"}} }, ErrInvalidInputType},
		{"no sets", func(p *ProgramInput) { p.Sets = nil }, ErrNoSets},
		{"no status", func(p *ProgramInput) {
			p.Sets = []SetInput{{Name: "s", Goals: []GoalInput{{Name: "g"}}}}
		}, ErrEmptyStatus},
		{"no goals", func(p *ProgramInput) {
			p.Sets = []SetInput{{Name: "s", ProgramSetStatusID: "st"}}
		}, ErrNoGoals},
	}
	for _, tc := range mutate {
		t.Run(tc.name, func(t *testing.T) {
			p := good
			p.Sets = append([]SetInput(nil), good.Sets...)
			tc.fn(&p)
			if err := p.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSortProgramsByUpdated(t *testing.T) {
	programs := []Program{
		{ID: "old", UpdatedAt: "2023-01-01T00:00:00Z"},
		{ID: "new", UpdatedAt: "2024-05-01T00:00:00Z"},
		{ID: "broken", UpdatedAt: ""},
		{ID: "mid", UpdatedAt: "2024-01-01T00:00:00Z"},
	}
	got := SortProgramsByUpdated(programs, 3)
	if len(got) != 3 || got[0].ID != "new" || got[1].ID != "mid" || got[2].ID != "old" {
		t.Fatalf("order = %+v", got)
	}
	if programs[0].ID != "old" {
		t.Fatalf("input slice mutated")
	}
	if len(SortProgramsByUpdated(programs, 0)) != 4 {
		t.Fatalf("limit 0 must keep all")
	}
}

func TestProgramFindSetByGoal(t *testing.T) {
	p := Program{Sets: []Set{
		{ID: "s1", Goals: []Goal{{ID: "g1"}}},
		{ID: "s2", Goals: []Goal{{ID: "g2"}, {ID: "g3"}}},
	}}
	if s, ok := p.FindSetByGoal("g3"); !ok || s.ID != "s2" {
		t.Fatalf("FindSetByGoal(g3) = %v, %v", s, ok)
	}
	if _, ok := p.FindSetByGoal("nope"); ok {
		t.Fatalf("expected not found")
	}
	if len(p.Goals()) != 3 {
		t.Fatalf("Goals() = %v", p.Goals())
	}
}

func TestContactInputValidate(t *testing.T) {
	good := ContactInput{
		Name:         "Maria",
		CPF:          "123.456.789-00",
		Relationship: RelationshipMother,
		Email:        "maria@example.com",
		PhonePrimary: "11999990000",
		PatientID:    "p1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	cases := []struct {
		name string
		fn   func(c *ContactInput)
		want error
	}{
		{"short cpf", func(c *ContactInput) { c.CPF = "123" }, ErrInvalidCPF},
		{"long cpf", func(c *ContactInput) { c.CPF = "123.456.789-0000" }, ErrInvalidCPF},
		{"relationship", func(c *ContactInput) { c.Relationship = "friend" }, ErrInvalidRelationship},
		{"email", func(c *ContactInput) { c.Email = "maria" }, ErrInvalidEmail},
		{"phone", func(c *ContactInput) { c.PhonePrimary = "1234" }, ErrInvalidPhone},
		{"patient", func(c *ContactInput) { c.PatientID = "" }, ErrEmptyPatient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := good
			tc.fn(&c)
			if err := c.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRelationshipLabel(t *testing.T) {
	want := []string{"Pai", "Mãe", "Parente", "Responsável", "Outro"}
	for i, r := range Relationships {
		if r.Label() != want[i] {
			t.Errorf("%s label = %s, want %s", r, r.Label(), want[i])
		}
	}
}
