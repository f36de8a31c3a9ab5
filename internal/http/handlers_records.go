package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"terapia/internal/core"
	applog "terapia/internal/log"
)

type (
	recordRow struct {
		ID         string
		GoalName   string
		CreatedAt  string
		Values     []string
		Annotation string
	}

	recordsPage struct {
		Program core.Program
		Columns []string
		Rows    []recordRow
	}
)

func recordsPath(patientID, programID string) string {
	return programsPath(patientID) + "/" + programID + "/records"
}

// programAndRecords fetches a program and its records concurrently.
func (s *Server) programAndRecords(r *http.Request, token string) (core.Program, []core.Application, error) {
	patientID, programID := r.PathValue("patientID"), r.PathValue("programID")

	var (
		program core.Program
		records []core.Application
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		program, err = s.deps.Programs.GetProgram(ctx, token, patientID, programID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.deps.Records.ListRecords(ctx, token, programID)
		return err
	})
	return program, records, g.Wait()
}

// buildRecordRows lays records out in the program's input order. The
// annotation gets its own column.
func buildRecordRows(p core.Program, records []core.Application) ([]string, []recordRow) {
	var columns []string
	for _, in := range p.Inputs {
		if in.Name != core.AnnotationField {
			columns = append(columns, in.Name)
		}
	}

	goalNames := make(map[string]string)
	for _, g := range p.Goals() {
		goalNames[g.ID] = g.Name
	}

	rows := make([]recordRow, 0, len(records))
	for _, a := range records {
		row := recordRow{
			ID:         a.ID,
			GoalName:   a.GoalName,
			CreatedAt:  a.CreatedAt,
			Annotation: a.Inputs.Annotation(),
		}
		if row.GoalName == "" {
			row.GoalName = goalNames[a.GoalID]
		}
		for _, col := range columns {
			v, ok := a.Inputs.Get(col)
			if !ok || v == nil {
				row.Values = append(row.Values, "")
				continue
			}
			row.Values = append(row.Values, formatInputValue(v))
		}
		rows = append(rows, row)
	}
	return columns, rows
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request, token string) {
	program, records, err := s.programAndRecords(r, token)
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	columns, rows := buildRecordRows(program, records)
	s.render(w, r, http.StatusOK, "records.html", page{
		Title: "Registros",
		Data:  recordsPage{Program: program, Columns: columns, Rows: rows},
	})
}

func (s *Server) handleNewRecord(w http.ResponseWriter, r *http.Request, token string) {
	program, err := s.deps.Programs.GetProgram(r.Context(), token, r.PathValue("patientID"), r.PathValue("programID"))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "record_form.html", page{Title: "Novo registro", Data: newRecordForm(program)})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request, token string) {
	s.saveRecord(w, r, token, "")
}

func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request, token string) {
	program, records, err := s.programAndRecords(r, token)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	recordID := r.PathValue("recordID")
	for _, a := range records {
		if a.ID == recordID {
			s.render(w, r, http.StatusOK, "record_form.html", page{Title: "Editar registro", Data: recordFormFrom(a, program)})
			return
		}
	}
	s.fail(w, r, applog.OpRead, core.ErrNotFound)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request, token string) {
	s.saveRecord(w, r, token, r.PathValue("recordID"))
}

func (s *Server) saveRecord(w http.ResponseWriter, r *http.Request, token, recordID string) {
	patientID, programID := r.PathValue("patientID"), r.PathValue("programID")
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Formato da requisição inválido.")
		return
	}

	program, err := s.deps.Programs.GetProgram(r.Context(), token, patientID, programID)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}

	in, view, err := parseRecordForm(r.PostForm, program)
	in.ID, view.ID = recordID, recordID
	if err == nil {
		err = in.Validate()
	}
	if err != nil {
		title := "Novo registro"
		if recordID != "" {
			title = "Editar registro"
		}
		s.render(w, r, http.StatusUnprocessableEntity, "record_form.html", page{
			Title: title,
			Error: validationMessage(err),
			Data:  view,
		})
		return
	}

	op, notice := applog.OpCreate, "Registro salvo."
	if recordID == "" {
		err = s.deps.Records.CreateRecord(r.Context(), token, in)
	} else {
		op, notice = applog.OpUpdate, "Registro atualizado."
		err = s.deps.Records.UpdateRecord(r.Context(), token, in)
	}
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Record saved",
		applog.NewFields().WithOperation(op).WithProgram(patientID, programID).ToSlice()...)
	redirectWithNotice(w, r, recordsPath(patientID, programID), notice)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request, token string) {
	patientID, programID, recordID := r.PathValue("patientID"), r.PathValue("programID"), r.PathValue("recordID")
	if err := s.deps.Records.DeleteRecord(r.Context(), token, programID, recordID); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Record deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldProgramID, programID,
		applog.FieldRecordID, recordID)
	redirectWithNotice(w, r, recordsPath(patientID, programID), "Registro removido.")
}
