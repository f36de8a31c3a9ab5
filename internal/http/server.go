package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"

	applog "terapia/internal/log"
	"terapia/internal/metrics"
	"terapia/internal/middleware/ratelimit"
	"terapia/internal/middleware/security"
	"terapia/internal/middleware/trace"
	"terapia/internal/ports"
	appweb "terapia/web"
)

// Deps are the collaborators behind the pages. Exports may be nil, in which
// case the export button is hidden and the endpoint answers 503.
type Deps struct {
	Patients ports.PatientStore
	Programs ports.ProgramStore
	Records  ports.RecordStore
	Contacts ports.ContactStore
	Statuses ports.StatusStore
	Users    ports.UserReader
	Exports  ports.ExportRequester

	// ReadyChecks are run by /readyz, keyed by the name reported.
	ReadyChecks map[string]func(ctx context.Context) error
}

type Options struct {
	SessionCookie  string
	SigninURL      string
	CSRFKey        []byte
	CookieSecure   bool
	ExcludedFields []string
	Logger         *applog.Logger
	Metrics        *metrics.Metrics
}

type Server struct {
	http.Server
	deps      Deps
	opts      Options
	templates *template.Template
	markdown  goldmark.Markdown
	logger    *applog.Logger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	started   time.Time
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.SessionCookie == "" {
		opts.SessionCookie = "terapia_session"
	}
	if opts.SigninURL == "" {
		opts.SigninURL = "/auth/signin"
	}

	s := &Server{
		deps:     deps,
		opts:     opts,
		markdown: goldmark.New(),
		logger:   opts.Logger.WithComponent(applog.ComponentHTTP),
		metrics:  opts.Metrics,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		started:  time.Now(),
		now:      time.Now,
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()
	s.routes(mux)

	clientIP, err := security.NewClientIP()
	if err != nil {
		s.logger.Error("Failed to build client IP extractor", applog.FieldError, err)
	}
	extractIP := func(r *http.Request) string {
		if clientIP == nil {
			return r.RemoteAddr
		}
		return clientIP.Extract(r)
	}

	var handler http.Handler = s.metrics.Instrument(mux)
	if len(opts.CSRFKey) > 0 {
		handler = s.csrfProtect(handler)
	}
	handler = s.limiter.Middleware(extractIP, s.handleRateLimited)(handler)
	handler = security.NewDetector(func(r *http.Request, reason string) {
		s.handleSuspicious(r, reason, extractIP(r))
	}).Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(opts.Logger.WithComponent(applog.ComponentTrace), extractIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/patients", http.StatusSeeOther)
	})

	mux.HandleFunc("GET /patients", s.authed(s.handlePatients))
	mux.HandleFunc("GET /patients/new", s.authed(s.handleNewPatient))
	mux.HandleFunc("POST /patients", s.authed(s.handleCreatePatient))
	mux.HandleFunc("GET /patients/{patientID}", s.authed(s.handlePatientDashboard))
	mux.HandleFunc("GET /patients/{patientID}/edit", s.authed(s.handleEditPatient))
	mux.HandleFunc("POST /patients/{patientID}", s.authed(s.handleUpdatePatient))

	const program = "/patients/{patientID}/programs/{programID}"
	mux.HandleFunc("GET /patients/{patientID}/programs", s.authed(s.handlePrograms))
	mux.HandleFunc("GET /patients/{patientID}/programs/new", s.authed(s.handleNewProgram))
	mux.HandleFunc("POST /patients/{patientID}/programs", s.authed(s.handleCreateProgram))
	mux.HandleFunc("GET "+program+"/edit", s.authed(s.handleEditProgram))
	mux.HandleFunc("POST "+program, s.authed(s.handleUpdateProgram))
	mux.HandleFunc("POST "+program+"/delete", s.authed(s.handleDeleteProgram))

	mux.HandleFunc("GET "+program+"/records", s.authed(s.handleRecords))
	mux.HandleFunc("GET "+program+"/records/new", s.authed(s.handleNewRecord))
	mux.HandleFunc("POST "+program+"/records", s.authed(s.handleCreateRecord))
	mux.HandleFunc("GET "+program+"/records/{recordID}/edit", s.authed(s.handleEditRecord))
	mux.HandleFunc("POST "+program+"/records/{recordID}", s.authed(s.handleUpdateRecord))
	mux.HandleFunc("POST "+program+"/records/{recordID}/delete", s.authed(s.handleDeleteRecord))

	mux.HandleFunc("GET "+program+"/chart", s.authed(s.handleChart))
	mux.HandleFunc("GET "+program+"/chart.json", s.authed(s.handleChartJSON))
	mux.HandleFunc("POST "+program+"/chart/export", s.authed(s.handleChartExport))

	const contacts = "/patients/{patientID}/contacts"
	mux.HandleFunc("GET "+contacts, s.authed(s.handleContacts))
	mux.HandleFunc("GET "+contacts+"/new", s.authed(s.handleNewContact))
	mux.HandleFunc("POST "+contacts, s.authed(s.handleCreateContact))
	mux.HandleFunc("GET "+contacts+"/{contactID}/edit", s.authed(s.handleEditContact))
	mux.HandleFunc("POST "+contacts+"/{contactID}", s.authed(s.handleUpdateContact))
	mux.HandleFunc("POST "+contacts+"/{contactID}/delete", s.authed(s.handleDeleteContact))

	mux.HandleFunc("GET /statuses", s.authed(s.handleStatuses))
	mux.HandleFunc("POST /statuses", s.authed(s.handleCreateStatus))
	mux.HandleFunc("POST /statuses/{statusID}/delete", s.authed(s.handleDeleteStatus))
}

// csrfProtect checks the gorilla/csrf token on unsafe methods. Requests that
// did not arrive over TLS are marked plaintext so the origin check matches
// the http scheme.
func (s *Server) csrfProtect(next http.Handler) http.Handler {
	protect := csrf.Protect(s.opts.CSRFKey,
		csrf.CookieName("terapia_csrf"),
		csrf.Path("/"),
		csrf.Secure(s.opts.CookieSecure),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)),
	)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil && !strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			r = csrf.PlaintextHTTPRequest(r)
		}
		protect.ServeHTTP(w, r)
	})
}

func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "CSRF validation failed",
		applog.FieldComponent, applog.ComponentSecurity,
		applog.FieldPath, r.URL.Path,
		applog.FieldError, csrf.FailureReason(r))
	s.renderError(w, r, http.StatusForbidden, "Sua sessão de formulário expirou. Recarregue a página e tente novamente.")
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	http.Error(w, "Muitas requisições. Tente novamente em instantes.", http.StatusTooManyRequests)
}

func (s *Server) handleSuspicious(r *http.Request, reason, clientIP string) {
	s.metrics.SuspiciousRequest(reason)
	s.logger.WarnContext(r.Context(), "Suspicious request",
		applog.FieldComponent, applog.ComponentSecurity,
		"reason", reason,
		applog.FieldClientIP, clientIP,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldUserAgent, r.UserAgent())
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
