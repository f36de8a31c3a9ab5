package security

import (
	"net/http"
	"net/url"
	"strings"
)

// Reasons reported by Detector.Detect.
const (
	ReasonPath           = "path"
	ReasonQuery          = "query"
	ReasonUserAgent      = "user_agent"
	ReasonMethod         = "method"
	ReasonLongURL        = "long_url"
	ReasonForwardedChain = "forwarded_chain"
)

const (
	maxURLLength     = 2048
	maxForwardedHops = 5
)

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb",
	"masscan", "zgrab", "wpscan", "scanner",
}

var unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}

// Detector flags requests that look like probing or injection attempts.
// It never rejects a request; the caller decides what to do with the flag.
type Detector struct {
	onSuspicious func(r *http.Request, reason string)
}

// NewDetector calls onSuspicious once for every flagged request.
func NewDetector(onSuspicious func(r *http.Request, reason string)) *Detector {
	if onSuspicious == nil {
		onSuspicious = func(*http.Request, string) {}
	}
	return &Detector{onSuspicious: onSuspicious}
}

// Detect returns the first reason r looks suspicious, if any.
func (d *Detector) Detect(r *http.Request) (string, bool) {
	path := strings.ToLower(r.URL.Path)
	if containsAny(path, suspiciousPatterns) {
		return ReasonPath, true
	}

	// RawQuery keeps percent-encoding, so decode before matching.
	query := r.URL.RawQuery
	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}
	if containsAny(strings.ToLower(query), suspiciousPatterns) {
		return ReasonQuery, true
	}

	if containsAny(strings.ToLower(r.UserAgent()), scannerAgents) {
		return ReasonUserAgent, true
	}

	for _, m := range unusualMethods {
		if r.Method == m {
			return ReasonMethod, true
		}
	}

	if len(r.URL.String()) > maxURLLength {
		return ReasonLongURL, true
	}

	if xff := r.Header.Get("X-Forwarded-For"); strings.Count(xff, ",") > maxForwardedHops {
		return ReasonForwardedChain, true
	}

	return "", false
}

// Middleware reports suspicious requests and always passes them on.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason, ok := d.Detect(r); ok {
			d.onSuspicious(r, reason)
		}
		next.ServeHTTP(w, r)
	})
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
