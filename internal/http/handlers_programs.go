package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"terapia/internal/core"
	applog "terapia/internal/log"
)

type programsPage struct {
	Patient  core.Patient
	Programs []core.Program
}

func programsPath(patientID string) string {
	return "/patients/" + patientID + "/programs"
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request, token string) {
	patientID := r.PathValue("patientID")

	var data programsPage
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		data.Patient, err = s.deps.Patients.GetPatient(ctx, token, patientID)
		return err
	})
	g.Go(func() error {
		programs, err := s.deps.Programs.ListPrograms(ctx, token, patientID)
		data.Programs = core.SortProgramsByUpdated(programs, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "programs.html", page{Title: "Programas", Data: data})
}

// programFormData loads what the program form needs besides the program.
func (s *Server) programFormData(r *http.Request, token, patientID string) (core.Patient, []core.ProgramSetStatus, error) {
	var (
		patient  core.Patient
		statuses []core.ProgramSetStatus
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		patient, err = s.deps.Patients.GetPatient(ctx, token, patientID)
		return err
	})
	g.Go(func() error {
		var err error
		statuses, err = s.deps.Statuses.ListStatuses(ctx, token)
		return err
	})
	return patient, statuses, g.Wait()
}

func (s *Server) renderProgramForm(w http.ResponseWriter, r *http.Request, status int, title, msg string, view programForm) {
	s.render(w, r, status, "program_form.html", page{Title: title, Error: msg, Data: view.withBlankRows()})
}

func (s *Server) handleNewProgram(w http.ResponseWriter, r *http.Request, token string) {
	patient, statuses, err := s.programFormData(r, token, r.PathValue("patientID"))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	s.renderProgramForm(w, r, http.StatusOK, "Novo programa", "", programForm{Patient: patient, Statuses: statuses})
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request, token string) {
	s.saveProgram(w, r, token, "")
}

func (s *Server) handleEditProgram(w http.ResponseWriter, r *http.Request, token string) {
	patientID, programID := r.PathValue("patientID"), r.PathValue("programID")

	var (
		program  core.Program
		patient  core.Patient
		statuses []core.ProgramSetStatus
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		program, err = s.deps.Programs.GetProgram(ctx, token, patientID, programID)
		return err
	})
	g.Go(func() error {
		var err error
		patient, err = s.deps.Patients.GetPatient(ctx, token, patientID)
		return err
	})
	g.Go(func() error {
		var err error
		statuses, err = s.deps.Statuses.ListStatuses(ctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}

	view := programFormFrom(program, statuses)
	view.Patient, view.Statuses = patient, statuses
	s.renderProgramForm(w, r, http.StatusOK, "Editar programa", "", view)
}

func (s *Server) handleUpdateProgram(w http.ResponseWriter, r *http.Request, token string) {
	s.saveProgram(w, r, token, r.PathValue("programID"))
}

// saveProgram creates the program when programID is empty and updates it
// otherwise.
func (s *Server) saveProgram(w http.ResponseWriter, r *http.Request, token, programID string) {
	patientID := r.PathValue("patientID")
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Formato da requisição inválido.")
		return
	}

	in, view := parseProgramForm(r.PostForm, patientID)
	in.ID, view.ID = programID, programID

	title, op, notice := "Novo programa", applog.OpCreate, "Programa criado."
	if programID != "" {
		title, op, notice = "Editar programa", applog.OpUpdate, "Programa atualizado."
	}

	if err := in.Validate(); err != nil {
		patient, statuses, ferr := s.programFormData(r, token, patientID)
		if ferr != nil {
			s.fail(w, r, applog.OpRead, ferr)
			return
		}
		view.Patient, view.Statuses = patient, statuses
		s.renderProgramForm(w, r, http.StatusUnprocessableEntity, title, validationMessage(err), view)
		return
	}

	var err error
	if programID == "" {
		err = s.deps.Programs.CreateProgram(r.Context(), token, in)
	} else {
		err = s.deps.Programs.UpdateProgram(r.Context(), token, in)
	}
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Program saved",
		applog.NewFields().WithOperation(op).WithProgram(patientID, programID).ToSlice()...)
	redirectWithNotice(w, r, programsPath(patientID), notice)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request, token string) {
	patientID, programID := r.PathValue("patientID"), r.PathValue("programID")
	if err := s.deps.Programs.DeleteProgram(r.Context(), token, patientID, programID); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Program deleted",
		applog.NewFields().WithOperation(applog.OpDelete).WithProgram(patientID, programID).ToSlice()...)
	redirectWithNotice(w, r, programsPath(patientID), "Programa removido.")
}
