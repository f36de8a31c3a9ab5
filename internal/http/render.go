package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/csrf"

	"terapia/internal/api"
	"terapia/internal/chart"
	"terapia/internal/core"
	applog "terapia/internal/log"
)

// page is the data every template receives.
type page struct {
	Title     string
	CSRFField template.HTML
	Error     string
	Notice    string
	Data      any
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": displayDate,
		"markdown": func(src string) template.HTML {
			var buf bytes.Buffer
			if err := s.markdown.Convert([]byte(src), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(src))
			}
			return template.HTML(buf.String())
		},
		"imageURL": imageURL,
		"sexLabel": func(sx core.Sex) string { return sx.Label() },
		"relLabel": func(r core.Relationship) string { return r.Label() },
	}
}

// imageURL trusts patient pictures that are inline images or web URLs.
func imageURL(src string) template.URL {
	switch {
	case strings.HasPrefix(src, "data:image/"), strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "http://"):
		return template.URL(src)
	default:
		return ""
	}
}

// displayDate shows the calendar part of a timestamp as DD/MM/YYYY.
func displayDate(ts string) string {
	if len(ts) >= 10 {
		ts = ts[:10]
	}
	return chart.FormatDate(ts)
}

// render executes a page template, buffering so a template failure can
// still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	p.CSRFField = csrf.TemplateField(r)
	if p.Notice == "" {
		p.Notice = r.URL.Query().Get("notice")
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, p); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldOperation, applog.OpRender,
			"template", name,
			applog.FieldError, err)
		http.Error(w, "Erro ao renderizar a página", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error.html", page{Title: http.StatusText(status), Error: message})
}

// fail maps a collaborator error to a response: rejected tokens end the
// session, missing entities are 404 and everything else is a bad gateway.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if isAuthError(err) {
		s.expireSession(w, r)
		return
	}

	status, message := http.StatusBadGateway, "Não foi possível falar com o servidor. Tente novamente."
	var se *api.StatusError
	switch {
	case errors.Is(err, core.ErrNotFound), errors.As(err, &se) && se.Status == http.StatusNotFound:
		status, message = http.StatusNotFound, "Registro não encontrado."
	case errors.As(err, &se):
		message = se.Error()
	}

	sl := applog.NewStructuredLogger(applog.FromContext(r.Context()))
	sl.LogError(r.Context(), "Request failed", err, op, applog.NewFields().
		WithComponent(applog.ComponentHTTP).
		WithHTTPResponse(status, 0, false))

	if wantsJSON(r) {
		writeJSON(w, status, map[string]string{"error": message})
		return
	}
	s.renderError(w, r, status, message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// redirectWithNotice sends the browser to path with a one-shot message.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	if notice != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + "notice=" + url.QueryEscape(notice)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// validationMessage turns a domain validation error into a form message.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyName):
		return "Preencha todos os nomes obrigatórios."
	case errors.Is(err, core.ErrInvalidSex):
		return "Selecione o sexo."
	case errors.Is(err, core.ErrInvalidBirthDate):
		return "Data de nascimento inválida."
	case errors.Is(err, core.ErrInvalidImage):
		return "Apenas arquivos de imagem são aceitos."
	case errors.Is(err, core.ErrImageTooLarge):
		return "A imagem excede o tamanho máximo de 2 MB."
	case errors.Is(err, core.ErrNoInputs):
		return "Adicione ao menos um campo de registro."
	case errors.Is(err, core.ErrInvalidInputType):
		return "Tipo de campo inválido."
	case errors.Is(err, core.ErrNoSets):
		return "Adicione ao menos um conjunto."
	case errors.Is(err, core.ErrNoGoals):
		return "Cada conjunto precisa de ao menos uma meta."
	case errors.Is(err, core.ErrEmptyStatus):
		return "Selecione o status de cada conjunto."
	case errors.Is(err, core.ErrEmptyGoal):
		return "Selecione a meta."
	case errors.Is(err, core.ErrNegativeValue):
		return "Valores numéricos não podem ser negativos."
	case errors.Is(err, core.ErrInvalidCPF):
		return "O CPF deve ter entre 11 e 14 caracteres."
	case errors.Is(err, core.ErrInvalidRelationship):
		return "Selecione o parentesco."
	case errors.Is(err, core.ErrInvalidEmail):
		return "E-mail inválido."
	case errors.Is(err, core.ErrInvalidPhone):
		return "O telefone principal deve ter ao menos 8 caracteres."
	case errors.Is(err, errInvalidNumber):
		return err.Error()
	default:
		return "Dados inválidos."
	}
}
