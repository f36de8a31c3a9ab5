package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patients", nil))
	for _, key := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rec.Header().Get(key) == "" {
			t.Errorf("missing header %s", key)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestStaticAssetMiddleware(t *testing.T) {
	h := StaticAssetMiddleware(3600)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestClientIPExtract(t *testing.T) {
	c, err := NewClientIP("203.0.113.0/24")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct public peer ignores headers", "8.8.8.8:1234", "1.2.3.4", "", "8.8.8.8"},
		{"trusted proxy uses first forwarded", "10.0.0.5:80", "1.2.3.4, 10.0.0.1", "", "1.2.3.4"},
		{"trusted proxy falls back to real ip", "127.0.0.1:80", "garbage", "5.6.7.8", "5.6.7.8"},
		{"extra cidr trusted", "203.0.113.9:80", "9.9.9.9", "", "9.9.9.9"},
		{"no port", "8.8.4.4", "", "", "8.8.4.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := c.Extract(r); got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := NewClientIP("not-a-cidr"); err == nil {
		t.Error("expected error for invalid CIDR")
	}
}

func TestDetectorDetect(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name   string
		method string
		target string
		ua     string
		xff    string
		want   string
	}{
		{name: "clean page", method: http.MethodGet, target: "/patients/abc/programs?q=ana", ua: "Mozilla/5.0"},
		{name: "dotfile path", method: http.MethodGet, target: "/.env", want: ReasonPath},
		{name: "wordpress probe", method: http.MethodGet, target: "/wp-admin/install.php", want: ReasonPath},
		{name: "encoded injection in query", method: http.MethodGet, target: "/patients?q=1%20UNION%20SELECT%201", want: ReasonQuery},
		{name: "traversal in query", method: http.MethodGet, target: "/static/?f=../../etc/passwd", want: ReasonQuery},
		{name: "undecodable query kept raw", method: http.MethodGet, target: "/patients?q=%zz", ua: "Mozilla/5.0"},
		{name: "scanner agent", method: http.MethodGet, target: "/", ua: "sqlmap/1.7", want: ReasonUserAgent},
		{name: "trace method", method: "TRACE", target: "/", want: ReasonMethod},
		{name: "long url", method: http.MethodGet, target: "/patients?q=" + strings.Repeat("a", 2100), want: ReasonLongURL},
		{name: "long forwarded chain", method: http.MethodGet, target: "/", xff: "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7", want: ReasonForwardedChain},
		{name: "short forwarded chain", method: http.MethodGet, target: "/", xff: "1.1.1.1, 10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.ua != "" {
				r.Header.Set("User-Agent", tt.ua)
			}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			got, ok := d.Detect(r)
			if got != tt.want || ok != (tt.want != "") {
				t.Errorf("Detect() = (%q, %v), want %q", got, ok, tt.want)
			}
		})
	}
}

func TestDetectorMiddlewarePassesThrough(t *testing.T) {
	var reasons []string
	d := NewDetector(func(r *http.Request, reason string) { reasons = append(reasons, reason) })
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, target := range []string{"/patients", "/.git/config"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("%s: status = %d, want 204", target, rec.Code)
		}
	}
	if len(reasons) != 1 || reasons[0] != ReasonPath {
		t.Errorf("reasons = %v, want [path]", reasons)
	}
}
