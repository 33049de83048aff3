// Package metrics exposes report, scan and HTTP counters on a private
// Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics ignores every observation so
// components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	reportsTotal  *prometheus.CounterVec
	renderSeconds *prometheus.HistogramVec
	scansTotal    *prometheus.CounterVec
	scanSeconds   prometheus.Histogram
	httpRequests  *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trscan_reports_total",
				Help: "Reports produced, by output format and final status",
			},
			[]string{"format", "status"},
		),
		renderSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trscan_report_render_seconds",
				Help:    "Time spent rendering a report",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"format"},
		),
		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trscan_scans_total",
				Help: "Static analysis launches, by outcome",
			},
			[]string{"outcome"},
		),
		scanSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trscan_scan_duration_seconds",
				Help:    "Wall time of static analysis runs",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trscan_http_requests_total",
				Help: "HTTP requests served, by route and status code",
			},
			[]string{"route", "code"},
		),
	}
	m.registry.MustRegister(m.reportsTotal, m.renderSeconds, m.scansTotal, m.scanSeconds, m.httpRequests)
	return m
}

// Registry returns the private registry, for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) ReportFinished(format, status string) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(format, status).Inc()
}

func (m *Metrics) ObserveRender(format string, d time.Duration) {
	if m == nil {
		return
	}
	m.renderSeconds.WithLabelValues(format).Observe(d.Seconds())
}

// ScanFinished records one scanner launch. Launches that never started
// carry a zero duration and are not observed in the histogram.
func (m *Metrics) ScanFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.scanSeconds.Observe(d.Seconds())
	}
}

func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
