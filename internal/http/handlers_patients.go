package http

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"terapia/internal/core"
	applog "terapia/internal/log"
)

// dashboardPrograms is how many recent programs the patient page lists.
const dashboardPrograms = 3

type (
	patientsPage struct {
		Patients []core.Patient
		Query    string
		Sex      string
		Total    int
	}

	dashboardPage struct {
		Patient  core.Patient
		Age      int
		Programs []core.Program
		Contacts []core.Contact
	}
)

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request, token string) {
	patients, err := s.deps.Patients.ListPatients(r.Context(), token)
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}

	query, tab := r.URL.Query().Get("query"), r.URL.Query().Get("sex")
	if tab == "" {
		tab = "todos"
	}
	s.render(w, r, http.StatusOK, "patients.html", page{
		Title: "Pacientes",
		Data: patientsPage{
			Patients: core.FilterPatients(patients, query, tab),
			Query:    query,
			Sex:      tab,
			Total:    len(patients),
		},
	})
}

func (s *Server) handleNewPatient(w http.ResponseWriter, r *http.Request, _ string) {
	s.render(w, r, http.StatusOK, "patient_form.html", page{
		Title: "Novo paciente",
		Data:  patientForm{Sex: core.SexMale},
	})
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request, token string) {
	in, view, err := parsePatientForm(w, r)
	if err == nil {
		err = in.Validate()
	}
	if err != nil {
		s.patientFormError(w, r, "Novo paciente", view, err)
		return
	}

	user, err := s.deps.Users.CurrentUser(r.Context(), token)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	in.OrganizationID = user.OrganizationID()

	if err := s.deps.Patients.CreatePatient(r.Context(), token, in); err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Patient created",
		applog.FieldOperation, applog.OpCreate,
		"organization_id", in.OrganizationID)
	redirectWithNotice(w, r, "/patients", "Paciente cadastrado.")
}

func (s *Server) handlePatientDashboard(w http.ResponseWriter, r *http.Request, token string) {
	patientID := r.PathValue("patientID")

	var (
		data     dashboardPage
		programs []core.Program
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		p, err := s.deps.Patients.GetPatient(ctx, token, patientID)
		data.Patient = p
		return err
	})
	g.Go(func() error {
		var err error
		programs, err = s.deps.Programs.ListPrograms(ctx, token, patientID)
		return err
	})
	g.Go(func() error {
		var err error
		data.Contacts, err = s.deps.Contacts.ListContacts(ctx, token, patientID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}

	data.Programs = core.SortProgramsByUpdated(programs, dashboardPrograms)
	data.Age = data.Patient.Age(s.now())
	s.render(w, r, http.StatusOK, "patient.html", page{Title: data.Patient.Name, Data: data})
}

func (s *Server) handleEditPatient(w http.ResponseWriter, r *http.Request, token string) {
	p, err := s.deps.Patients.GetPatient(r.Context(), token, r.PathValue("patientID"))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	birth := p.BirthDate
	if len(birth) > 10 {
		birth = birth[:10]
	}
	s.render(w, r, http.StatusOK, "patient_form.html", page{
		Title: "Editar paciente",
		Data: patientForm{
			ID:        p.ID,
			Name:      p.Name,
			Sex:       p.Sex,
			BirthDate: birth,
			Image:     p.Image,
		},
	})
}

func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request, token string) {
	patientID := r.PathValue("patientID")
	in, view, err := parsePatientForm(w, r)
	view.ID = patientID
	if err == nil {
		err = in.Validate()
	}
	if err != nil {
		s.patientFormError(w, r, "Editar paciente", view, err)
		return
	}

	in.ID = patientID
	if err := s.deps.Patients.UpdatePatient(r.Context(), token, in); err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	redirectWithNotice(w, r, "/patients/"+patientID, "Paciente atualizado.")
}

// patientFormError re-renders the form with the submitted values. Errors
// that are not validation problems surface as a bad request.
func (s *Server) patientFormError(w http.ResponseWriter, r *http.Request, title string, view patientForm, err error) {
	status := http.StatusUnprocessableEntity
	msg := validationMessage(err)
	if !isValidationError(err) {
		status, msg = http.StatusBadRequest, "Formato da requisição inválido."
	}
	s.render(w, r, status, "patient_form.html", page{Title: title, Error: msg, Data: view})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyName, core.ErrInvalidSex, core.ErrInvalidBirthDate, core.ErrInvalidImage,
		core.ErrImageTooLarge, core.ErrEmptyPatient, core.ErrNoInputs, core.ErrNoSets,
		core.ErrNoGoals, core.ErrInvalidInputType, core.ErrEmptyStatus, core.ErrEmptyGoal,
		core.ErrNegativeValue, core.ErrInvalidCPF, core.ErrInvalidRelationship,
		core.ErrInvalidEmail, core.ErrInvalidPhone, errInvalidNumber,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
