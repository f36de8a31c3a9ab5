// This file turns submitted forms into domain inputs and back into the
// values a form is re-rendered with.

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"terapia/internal/core"
)

const (
	// maxUploadSize bounds a patient form, picture included.
	maxUploadSize = core.MaxImageSize + 1<<20

	// Blank rows appended to repeated form sections.
	blankInputRows = 2
	blankSetRows   = 1
)

var errInvalidNumber = errors.New("valor numérico inválido")

type (
	patientForm struct {
		ID        string
		Name      string
		Sex       core.Sex
		BirthDate string
		Image     string
	}

	setForm struct {
		Name     string
		StatusID string
		Goals    string // one goal per line
	}

	programForm struct {
		ID      string
		Name    string
		Inputs  []core.InputField
		Sets    []setForm
		Patient core.Patient

		Statuses   []core.ProgramSetStatus
		InputTypes []core.InputType
	}

	recordField struct {
		Name  string
		Type  core.InputType
		Value string
	}

	recordForm struct {
		ID      string
		GoalID  string
		Fields  []recordField
		Program core.Program
	}

	contactForm struct {
		core.ContactInput
		Relationships []core.Relationship
	}
)

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func formValue(form url.Values, key string) string {
	return sanitizeInput(form.Get(key))
}

// parsePatientForm reads a multipart patient form. The picture is optional.
func parsePatientForm(w http.ResponseWriter, r *http.Request) (core.PatientInput, patientForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.PatientInput{}, patientForm{}, core.ErrImageTooLarge
		}
		return core.PatientInput{}, patientForm{}, fmt.Errorf("parse patient form: %w", err)
	}
	if r.Form == nil {
		if err := r.ParseForm(); err != nil {
			return core.PatientInput{}, patientForm{}, fmt.Errorf("parse patient form: %w", err)
		}
	}

	view := patientForm{
		Name:      formValue(r.Form, "name"),
		Sex:       core.Sex(formValue(r.Form, "sex")),
		BirthDate: formValue(r.Form, "birth_date"),
	}
	in := core.PatientInput{Name: view.Name, Sex: view.Sex, BirthDate: view.BirthDate}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return in, view, fmt.Errorf("read image: %w", err)
	default:
		defer file.Close()
		if header.Size > 0 {
			data, err := io.ReadAll(file)
			if err != nil {
				return in, view, fmt.Errorf("read image: %w", err)
			}
			img, err := core.NewImagePayload(data, header.Header.Get("Content-Type"), header.Filename)
			if err != nil {
				return in, view, err
			}
			in.Image = img
		}
	}
	return in, view, nil
}

// parseProgramForm reads the indexed input_name_N/input_type_N and
// set_name_N/set_status_N/set_goals_N fields. Rows left entirely blank are
// dropped.
func parseProgramForm(form url.Values, patientID string) (core.ProgramInput, programForm) {
	in := core.ProgramInput{
		Name:      formValue(form, "name"),
		PatientID: patientID,
	}
	view := programForm{Name: in.Name}

	for i := 0; form.Has(fmt.Sprintf("input_name_%d", i)); i++ {
		field := core.InputField{
			Name: formValue(form, fmt.Sprintf("input_name_%d", i)),
			Type: core.InputType(formValue(form, fmt.Sprintf("input_type_%d", i))),
		}
		if field.Name == "" {
			continue
		}
		in.Inputs = append(in.Inputs, field)
	}
	view.Inputs = in.Inputs

	for i := 0; form.Has(fmt.Sprintf("set_name_%d", i)); i++ {
		sf := setForm{
			Name:     formValue(form, fmt.Sprintf("set_name_%d", i)),
			StatusID: formValue(form, fmt.Sprintf("set_status_%d", i)),
			Goals:    formValue(form, fmt.Sprintf("set_goals_%d", i)),
		}
		goals := splitLines(sf.Goals)
		if sf.Name == "" && len(goals) == 0 {
			continue
		}
		set := core.SetInput{Name: sf.Name, ProgramSetStatusID: sf.StatusID}
		for _, g := range goals {
			set.Goals = append(set.Goals, core.GoalInput{Name: g})
		}
		in.Sets = append(in.Sets, set)
		view.Sets = append(view.Sets, sf)
	}
	return in, view
}

// programFormFrom fills the edit form of an existing program. Sets carry
// the status name; statuses resolves it back to an id.
func programFormFrom(p core.Program, statuses []core.ProgramSetStatus) programForm {
	view := programForm{ID: p.ID, Name: p.Name, Inputs: p.Inputs}
	for _, set := range p.Sets {
		sf := setForm{Name: set.Name, StatusID: set.Status}
		for _, st := range statuses {
			if st.Name == set.Status || st.ID == set.Status {
				sf.StatusID = st.ID
				break
			}
		}
		names := make([]string, 0, len(set.Goals))
		for _, g := range set.Goals {
			names = append(names, g.Name)
		}
		sf.Goals = strings.Join(names, "\n")
		view.Sets = append(view.Sets, sf)
	}
	return view
}

// withBlankRows appends empty rows so new inputs and sets can be added
// without scripting.
func (f programForm) withBlankRows() programForm {
	inputs := make([]core.InputField, len(f.Inputs), len(f.Inputs)+blankInputRows)
	copy(inputs, f.Inputs)
	for i := 0; i < blankInputRows; i++ {
		inputs = append(inputs, core.InputField{Type: core.InputNumber})
	}
	f.Inputs = inputs

	sets := make([]setForm, len(f.Sets), len(f.Sets)+blankSetRows)
	copy(sets, f.Sets)
	for i := 0; i < blankSetRows; i++ {
		sets = append(sets, setForm{})
	}
	f.Sets = sets
	f.InputTypes = []core.InputType{core.InputNumber, core.InputText, core.InputEmail, core.InputDate}
	return f
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseRecordForm reads field_N for every input the program declares.
// Numbers accept a decimal comma; blank fields are left out.
func parseRecordForm(form url.Values, p core.Program) (core.RecordInput, recordForm, error) {
	in := core.RecordInput{
		ProgramID: p.ID,
		GoalID:    formValue(form, "goal_id"),
	}
	view := recordForm{GoalID: in.GoalID, Program: p}

	var firstErr error
	for i, field := range p.Inputs {
		raw := formValue(form, fmt.Sprintf("field_%d", i))
		view.Fields = append(view.Fields, recordField{Name: field.Name, Type: field.Type, Value: raw})
		if raw == "" {
			continue
		}

		var value any = raw
		if field.Type == core.InputNumber {
			n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: %s", errInvalidNumber, field.Name)
				}
				continue
			}
			value = n
		}
		in.Inputs = append(in.Inputs, core.InputValue{Name: field.Name, Value: value})
	}
	return in, view, firstErr
}

// recordFormFrom fills the edit form of an existing record.
func recordFormFrom(a core.Application, p core.Program) recordForm {
	view := recordForm{ID: a.ID, GoalID: a.GoalID, Program: p}
	for _, field := range p.Inputs {
		rf := recordField{Name: field.Name, Type: field.Type}
		if v, ok := a.Inputs.Get(field.Name); ok && v != nil {
			rf.Value = formatInputValue(v)
		}
		view.Fields = append(view.Fields, rf)
	}
	return view
}

// newRecordForm is the blank form of a program.
func newRecordForm(p core.Program) recordForm {
	view := recordForm{Program: p}
	for _, field := range p.Inputs {
		view.Fields = append(view.Fields, recordField{Name: field.Name, Type: field.Type})
	}
	return view
}

func formatInputValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func parseContactForm(form url.Values, patientID string) core.ContactInput {
	return core.ContactInput{
		Name:           formValue(form, "name"),
		CPF:            formValue(form, "cpf"),
		Relationship:   core.Relationship(formValue(form, "relationship")),
		Email:          formValue(form, "email"),
		PhonePrimary:   formValue(form, "phone_primary"),
		PhoneSecondary: formValue(form, "phone_secondary"),
		PatientID:      patientID,
	}
}

func contactInputFrom(c core.Contact) core.ContactInput {
	in := core.ContactInput{
		ID:           c.ID,
		Name:         c.Name,
		CPF:          c.CPF,
		Relationship: c.Relationship,
		Email:        c.Email,
		PhonePrimary: c.PhonePrimary,
		PatientID:    c.PatientID,
	}
	if c.PhoneSecondary != nil {
		in.PhoneSecondary = *c.PhoneSecondary
	}
	return in
}
