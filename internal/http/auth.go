package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	applog "terapia/internal/log"
	"terapia/internal/ports"
)

// SessionExpired is the sign-in error code sent when the backend rejects
// the token.
const SessionExpired = "SessionExpired"

type tokenHandler func(w http.ResponseWriter, r *http.Request, token string)

// authed resolves the caller's token and redirects to sign-in without one.
func (s *Server) authed(next tokenHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.token(r)
		if token == "" {
			if wantsJSON(r) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ports.ErrNoToken.Error()})
				return
			}
			http.Redirect(w, r, s.signinURL(""), http.StatusSeeOther)
			return
		}
		next(w, r, token)
	}
}

// token reads the bearer token from the Authorization header, falling back
// to the session cookie.
func (s *Server) token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(s.opts.SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func (s *Server) signinURL(errorCode string) string {
	if errorCode == "" {
		return s.opts.SigninURL
	}
	sep := "?"
	if strings.Contains(s.opts.SigninURL, "?") {
		sep = "&"
	}
	return s.opts.SigninURL + sep + "error=" + url.QueryEscape(errorCode)
}

// expireSession clears the session cookie and sends the caller to sign-in.
func (s *Server) expireSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Session rejected by backend, redirecting to sign-in",
		applog.FieldPath, r.URL.Path)

	if wantsJSON(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ports.ErrUnauthorized.Error()})
		return
	}
	http.Redirect(w, r, s.signinURL(SessionExpired), http.StatusSeeOther)
}

func isAuthError(err error) bool {
	return errors.Is(err, ports.ErrUnauthorized) || errors.Is(err, ports.ErrNoToken)
}

func wantsJSON(r *http.Request) bool {
	return strings.HasSuffix(r.URL.Path, ".json") || strings.Contains(r.Header.Get("Accept"), "application/json")
}
