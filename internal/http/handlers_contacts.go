package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"terapia/internal/core"
	applog "terapia/internal/log"
)

type contactsPage struct {
	Patient  core.Patient
	Contacts []core.Contact
}

func contactsPath(patientID string) string {
	return "/patients/" + patientID + "/contacts"
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request, token string) {
	patientID := r.PathValue("patientID")

	var data contactsPage
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		data.Patient, err = s.deps.Patients.GetPatient(ctx, token, patientID)
		return err
	})
	g.Go(func() error {
		var err error
		data.Contacts, err = s.deps.Contacts.ListContacts(ctx, token, patientID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "contacts.html", page{Title: "Contatos", Data: data})
}

func (s *Server) renderContactForm(w http.ResponseWriter, r *http.Request, status int, msg string, in core.ContactInput) {
	title := "Novo contato"
	if in.ID != "" {
		title = "Editar contato"
	}
	s.render(w, r, status, "contact_form.html", page{
		Title: title,
		Error: msg,
		Data:  contactForm{ContactInput: in, Relationships: core.Relationships},
	})
}

func (s *Server) handleNewContact(w http.ResponseWriter, r *http.Request, _ string) {
	s.renderContactForm(w, r, http.StatusOK, "", core.ContactInput{
		PatientID:    r.PathValue("patientID"),
		Relationship: core.RelationshipMother,
	})
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request, token string) {
	s.saveContact(w, r, token, "")
}

func (s *Server) handleEditContact(w http.ResponseWriter, r *http.Request, token string) {
	patientID, contactID := r.PathValue("patientID"), r.PathValue("contactID")
	contacts, err := s.deps.Contacts.ListContacts(r.Context(), token, patientID)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	for _, c := range contacts {
		if c.ID == contactID {
			s.renderContactForm(w, r, http.StatusOK, "", contactInputFrom(c))
			return
		}
	}
	s.fail(w, r, applog.OpRead, core.ErrNotFound)
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request, token string) {
	s.saveContact(w, r, token, r.PathValue("contactID"))
}

func (s *Server) saveContact(w http.ResponseWriter, r *http.Request, token, contactID string) {
	patientID := r.PathValue("patientID")
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Formato da requisição inválido.")
		return
	}

	in := parseContactForm(r.PostForm, patientID)
	in.ID = contactID
	if err := in.Validate(); err != nil {
		s.renderContactForm(w, r, http.StatusUnprocessableEntity, validationMessage(err), in)
		return
	}

	var err error
	op, notice := applog.OpCreate, "Contato cadastrado."
	if contactID == "" {
		err = s.deps.Contacts.CreateContact(r.Context(), token, in)
	} else {
		op, notice = applog.OpUpdate, "Contato atualizado."
		err = s.deps.Contacts.UpdateContact(r.Context(), token, in)
	}
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	redirectWithNotice(w, r, contactsPath(patientID), notice)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request, token string) {
	patientID := r.PathValue("patientID")
	if err := s.deps.Contacts.DeleteContact(r.Context(), token, patientID, r.PathValue("contactID")); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	redirectWithNotice(w, r, contactsPath(patientID), "Contato removido.")
}
