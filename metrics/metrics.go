// Package metrics exposes Prometheus collectors for the HTTP API and
// catalog imports.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	importRunsTotal  *prometheus.CounterVec
	importItemsTotal *prometheus.CounterVec
	importDuration   *prometheus.HistogramVec
	importLastRun    *prometheus.GaugeVec
}

// New registers every collector on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request durations.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint", "status"},
		),
		importRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_import_runs_total",
				Help: "Catalog import runs by mode and result.",
			},
			[]string{"mode", "result"},
		),
		importItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_import_items_total",
				Help: "Catalog entries and photos processed by imports.",
			},
			[]string{"mode", "outcome"},
		),
		importDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_import_duration_seconds",
				Help:    "Duration of catalog import runs.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"mode"},
		),
		importLastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "catalog_import_last_success_timestamp_seconds",
				Help: "Unix time of the last successful import.",
			},
			[]string{"mode"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.importRunsTotal,
		m.importItemsTotal,
		m.importDuration,
		m.importLastRun,
	)
	return m
}

// RecordRequest records one HTTP request.
func (m *Metrics) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	m.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// ImportCounts are the totals of one import run.
type ImportCounts struct {
	Added   int
	Updated int
	Skipped int
	Failed  int
	Photos  int
}

// RecordImport records a finished import run.
func (m *Metrics) RecordImport(mode string, counts ImportCounts, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.importRunsTotal.WithLabelValues(mode, result).Inc()
	m.importDuration.WithLabelValues(mode).Observe(duration.Seconds())

	for outcome, n := range map[string]int{
		"added":   counts.Added,
		"updated": counts.Updated,
		"skipped": counts.Skipped,
		"failed":  counts.Failed,
		"photos":  counts.Photos,
	} {
		m.importItemsTotal.WithLabelValues(mode, outcome).Add(float64(n))
	}
	if err == nil {
		m.importLastRun.WithLabelValues(mode).SetToCurrentTime()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func classifyStatus(statusCode int) string {
	if statusCode < 100 || statusCode >= 600 {
		return "unknown"
	}
	return strconv.Itoa(statusCode/100) + "xx"
}
