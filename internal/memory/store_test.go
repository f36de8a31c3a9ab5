package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"terapia/internal/chart"
	"terapia/internal/core"
	"terapia/internal/ports"
)

const token = "tok"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewFromFile(filepath.Join("..", "..", "data", "seed.yaml"))
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestEmptyTokenRejected(t *testing.T) {
	s := New(DefaultSeed())
	ctx := context.Background()

	if _, err := s.ListPatients(ctx, ""); !errors.Is(err, ports.ErrNoToken) {
		t.Errorf("ListPatients err = %v", err)
	}
	if _, err := s.CurrentUser(ctx, ""); !errors.Is(err, ports.ErrNoToken) {
		t.Errorf("CurrentUser err = %v", err)
	}
	if err := s.DeleteRecord(ctx, "", "p", "r"); !errors.Is(err, ports.ErrNoToken) {
		t.Errorf("DeleteRecord err = %v", err)
	}
}

func TestMissingSeedFileUsesDefaults(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	statuses, err := s.ListStatuses(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if len(statuses) != len(DefaultSeed().Statuses) {
		t.Errorf("got %d statuses", len(statuses))
	}
}

func TestInvalidSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("patients: {"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSeedRecordsKeepInputOrder(t *testing.T) {
	s := newTestStore(t)
	records, err := s.ListRecords(context.Background(), token, "prog-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	names := []string{}
	for _, in := range records[0].Inputs {
		names = append(names, in.Name)
	}
	want := []string{"Acertos", "Erros", core.AnnotationField}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("input order = %v, want %v", names, want)
	}

	res := chart.Build(core.ChartRecords(records))
	if len(res.Series) != 2 {
		t.Fatalf("got %d series", len(res.Series))
	}
	first := res.Series[0]
	if first.GoalName != "Pedir água" || len(first.Points) != 1 {
		t.Fatalf("unexpected first series %+v", first)
	}
	if v := first.Points[0].Value("Acertos"); v != 7 {
		t.Errorf("Acertos = %v, want 7", v)
	}
}

func TestPatientLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := core.PatientInput{Name: "Clara", Sex: core.SexFemale, BirthDate: "2019-01-02T00:00:00Z",
		Image: &core.ImagePayload{Base64: "AAA=", Extension: "png"}}
	if err := s.CreatePatient(ctx, token, in); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	p, err := s.GetPatient(ctx, token, "id-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.BirthDate != "2019-01-02" || p.Image != "data:image/png;base64,AAA=" {
		t.Errorf("unexpected patient %+v", p)
	}

	upd := core.PatientInput{ID: "id-1", Name: "Clara Reis", Sex: core.SexFemale, BirthDate: "2019-01-02"}
	if err := s.UpdatePatient(ctx, token, upd); err != nil {
		t.Fatal(err)
	}
	p, _ = s.GetPatient(ctx, token, "id-1")
	if p.Name != "Clara Reis" || p.Image == "" {
		t.Errorf("update lost data: %+v", p)
	}

	if err := s.UpdatePatient(ctx, token, core.PatientInput{ID: "nope", Name: "X", Sex: core.SexMale, BirthDate: "2019-01-02"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
	if err := s.CreatePatient(ctx, token, core.PatientInput{Name: " "}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("invalid create err = %v", err)
	}
}

func TestProgramUpdateKeepsGoalIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := core.ProgramInput{
		ID:        "prog-1",
		Name:      "Comunicação",
		PatientID: "p-1",
		Inputs:    []core.InputField{{Name: "Acertos", Type: core.InputNumber}},
		Sets: []core.SetInput{{
			Name:               "Mando",
			ProgramSetStatusID: "st-2",
			Goals:              []core.GoalInput{{Name: "Pedir água"}, {Name: "Pedir colo"}},
		}},
	}
	if err := s.UpdateProgram(ctx, token, in); err != nil {
		t.Fatal(err)
	}
	p, err := s.GetProgram(ctx, token, "p-1", "prog-1")
	if err != nil {
		t.Fatal(err)
	}
	goals := p.Goals()
	if len(goals) != 2 || goals[0].ID != "g-1" {
		t.Errorf("existing goal id not kept: %+v", goals)
	}
	if p.Sets[0].Status != "Concluído" {
		t.Errorf("status = %q", p.Sets[0].Status)
	}
	if _, err := s.GetProgram(ctx, token, "p-2", "prog-1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("program of other patient err = %v", err)
	}
}

func TestDeleteProgramDropsRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.DeleteProgram(ctx, token, "p-1", "prog-1"); err != nil {
		t.Fatal(err)
	}
	records, _ := s.ListRecords(ctx, token, "prog-1")
	if len(records) != 0 {
		t.Errorf("got %d records after delete", len(records))
	}
	if err := s.DeleteProgram(ctx, token, "p-1", "prog-1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestRecordLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := core.RecordInput{ProgramID: "prog-1", GoalID: "g-2",
		Inputs: []core.InputValue{{Name: "Acertos", Value: 5.0}}}
	if err := s.CreateRecord(ctx, token, in); err != nil {
		t.Fatal(err)
	}
	records, _ := s.ListRecords(ctx, token, "prog-1")
	created := records[len(records)-1]
	if created.GoalName != "Pedir brinquedo" || created.CreatedAt != "2024-05-01T12:00:00Z" {
		t.Errorf("unexpected record %+v", created)
	}
	if created.UserID == nil || *created.UserID != "u-local" {
		t.Errorf("user id = %v", created.UserID)
	}

	upd := core.RecordInput{ID: created.ID, ProgramID: "prog-1",
		Inputs: []core.InputValue{{Name: "Acertos", Value: 6.0}}}
	if err := s.UpdateRecord(ctx, token, upd); err != nil {
		t.Fatal(err)
	}
	records, _ = s.ListRecords(ctx, token, "prog-1")
	if v, _ := records[len(records)-1].Inputs.Get("Acertos"); v != 6.0 {
		t.Errorf("updated value = %v", v)
	}

	if err := s.CreateRecord(ctx, token, core.RecordInput{ProgramID: "prog-1", GoalID: "unknown",
		Inputs: []core.InputValue{{Name: "Acertos", Value: 1.0}}}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown goal err = %v", err)
	}
	if err := s.DeleteRecord(ctx, token, "prog-1", created.ID); err != nil {
		t.Fatal(err)
	}
}

func TestContactsAndStatuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := core.ContactInput{Name: "João", CPF: "12345678909", Relationship: core.RelationshipFather,
		Email: "joao@example.com", PhonePrimary: "11999998888", PhoneSecondary: "1133334444", PatientID: "p-1"}
	if err := s.CreateContact(ctx, token, in); err != nil {
		t.Fatal(err)
	}
	contacts, _ := s.ListContacts(ctx, token, "p-1")
	if len(contacts) != 2 || contacts[1].PhoneSecondary == nil {
		t.Fatalf("unexpected contacts %+v", contacts)
	}
	if err := s.DeleteContact(ctx, token, "p-1", contacts[1].ID); err != nil {
		t.Fatal(err)
	}

	st, err := s.CreateStatus(ctx, token, "Pausado")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteStatus(ctx, token, st.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteStatus(ctx, token, st.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}
