package http

import (
	"net/http"

	"terapia/internal/core"
	applog "terapia/internal/log"
)

type statusesPage struct {
	Statuses []core.ProgramSetStatus
	Name     string
}

func (s *Server) handleStatuses(w http.ResponseWriter, r *http.Request, token string) {
	statuses, err := s.deps.Statuses.ListStatuses(r.Context(), token)
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "statuses.html", page{Title: "Status dos conjuntos", Data: statusesPage{Statuses: statuses}})
}

func (s *Server) handleCreateStatus(w http.ResponseWriter, r *http.Request, token string) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Formato da requisição inválido.")
		return
	}

	name := formValue(r.PostForm, "name")
	if err := core.ValidateStatusName(name); err != nil {
		statuses, lerr := s.deps.Statuses.ListStatuses(r.Context(), token)
		if lerr != nil {
			s.fail(w, r, applog.OpList, lerr)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "statuses.html", page{
			Title: "Status dos conjuntos",
			Error: "Informe o nome do status.",
			Data:  statusesPage{Statuses: statuses, Name: name},
		})
		return
	}

	if _, err := s.deps.Statuses.CreateStatus(r.Context(), token, name); err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	redirectWithNotice(w, r, "/statuses", "Status criado.")
}

func (s *Server) handleDeleteStatus(w http.ResponseWriter, r *http.Request, token string) {
	if err := s.deps.Statuses.DeleteStatus(r.Context(), token, r.PathValue("statusID")); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	redirectWithNotice(w, r, "/statuses", "Status removido.")
}
