package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-trscan/pkg/metrics"
)

func TestCounters(t *testing.T) {
	m := metrics.New()
	m.ReportFinished("PDF", "success")
	m.ReportFinished("PDF", "success")
	m.ReportFinished("PDF", "error")
	m.ScanFinished("started", 3*time.Second)
	m.ScanFinished("missing_executable", 0)
	m.HTTPRequest("custom_report", http.StatusForbidden)

	if got, err := testutil.GatherAndCount(m.Registry(), "trscan_reports_total"); err != nil || got != 2 {
		t.Fatalf("expected 2 report series, got %d (%v)", got, err)
	}
	if got, err := testutil.GatherAndCount(m.Registry(), "trscan_scan_duration_seconds"); err != nil || got != 1 {
		t.Fatalf("expected scan histogram, got %d (%v)", got, err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`trscan_reports_total{format="PDF",status="success"} 2`,
		`trscan_scans_total{outcome="missing_executable"} 1`,
		`trscan_http_requests_total{code="403",route="custom_report"} 1`,
		"trscan_scan_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestNilMetricsIgnoresObservations(t *testing.T) {
	var m *metrics.Metrics
	m.ReportFinished("PDF", "success")
	m.ObserveRender("PDF", time.Second)
	m.ScanFinished("started", time.Second)
	m.HTTPRequest("trscan", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from nil metrics, got %d", rec.Code)
	}
}
