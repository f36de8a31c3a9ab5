package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /patients/{patientID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.Instrument(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/patients/abc", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	out := scrape(t, m)
	want := `terapia_http_requests_total{method="GET",route="GET /patients/{patientID}",status_code="418"} 1`
	if !strings.Contains(out, want) {
		t.Errorf("missing %s in\n%s", want, out)
	}
	if !strings.Contains(out, `route="unmatched",status_code="404"`) {
		t.Errorf("unmatched request not counted:\n%s", out)
	}
}

func TestDomainCounters(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveUpstream("patient.list", "ok", 20*time.Millisecond)
	m.ChartRecordsSkipped(2)
	m.ChartRecordsSkipped(0)
	m.ExportEnqueued(false)
	m.ExportProcessed("done")
	m.RateLimited()
	m.SuspiciousRequest("path")

	out := scrape(t, m)
	for _, want := range []string{
		`terapia_upstream_calls_total{endpoint="patient.list",outcome="ok"} 1`,
		`terapia_chart_records_skipped_total 2`,
		`terapia_export_enqueued_total{published="false"} 1`,
		`terapia_export_processed_total{status="done"} 1`,
		`terapia_http_rate_limited_total 1`,
		`terapia_http_suspicious_requests_total{reason="path"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestNewRegistersRuntimeCollectors(t *testing.T) {
	out := scrape(t, New())
	if !strings.Contains(out, "go_goroutines") {
		t.Error("go collector not registered")
	}
}
