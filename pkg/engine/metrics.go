package engine

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsPath is the reserved Prometheus scrape endpoint.
const MetricsPath = "/__textmock/metrics"

// Metrics collects Prometheus metrics for the mock server.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	matchMisses     prometheus.Counter
	definitions     prometheus.Gauge
}

// NewMetrics creates and registers the server's metrics on a fresh
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "textmock",
				Name:      "requests_total",
				Help:      "Total number of mock requests served.",
			},
			[]string{"method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "textmock",
				Name:      "request_duration_seconds",
				Help:      "Duration of mock request handling in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		matchMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "textmock",
				Name:      "match_misses_total",
				Help:      "Requests for which no mock definition matched.",
			},
		),
		definitions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "textmock",
				Name:      "definitions_loaded",
				Help:      "Number of mock definitions in the active registry.",
			},
		),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.matchMisses, m.definitions)
	return m
}

// SetDefinitions records the size of the active registry; called after
// every successful load or reload.
func (m *Metrics) SetDefinitions(n int) {
	m.definitions.Set(float64(n))
}

// RecordMiss counts a request no definition matched. Wired to the
// handler's no-match callback rather than inferred from status codes,
// since a mock may legitimately respond 404.
func (m *Metrics) RecordMiss() {
	m.matchMisses.Inc()
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Wrap instruments an http.Handler with request count and duration
// metrics.
func (m *Metrics) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
