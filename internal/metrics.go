package internal

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"label-intake-api/internal/intake"
)

// Metrics provides Prometheus metrics for HTTP requests and intake outcomes
type Metrics struct {
	reqTotal         *prometheus.CounterVec
	reqLatency       *prometheus.HistogramVec
	entriesTotal     *prometheus.CounterVec
	resolutionsTotal *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec
	registry         *prometheus.Registry
}

var _ intake.Recorder = (*Metrics)(nil)

// NewMetrics creates a new Metrics instance with a private Prometheus registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	reqLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	entriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_entries_total",
			Help: "Add-entry calls by item type and outcome",
		},
		[]string{"item_type", "outcome"},
	)

	resolutionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_resolutions_total",
			Help: "Record lookups by key kind and result",
		},
		[]string{"kind", "result"},
	)

	upstreamFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_upstream_failures_total",
			Help: "Failed inventory service calls by operation",
		},
		[]string{"operation"},
	)

	registry.MustRegister(reqTotal, reqLatency, entriesTotal, resolutionsTotal, upstreamFailures)

	return &Metrics{
		reqTotal:         reqTotal,
		reqLatency:       reqLatency,
		entriesTotal:     entriesTotal,
		resolutionsTotal: resolutionsTotal,
		upstreamFailures: upstreamFailures,
		registry:         registry,
	}
}

// Middleware returns a Chi middleware that collects metrics
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r)

			// Use Chi's route pattern so ids do not explode label cardinality
			path := r.URL.Path
			if chiCtx := chi.RouteContext(r.Context()); chiCtx != nil && len(chiCtx.RoutePatterns) > 0 {
				path = chiCtx.RoutePatterns[len(chiCtx.RoutePatterns)-1]
			}

			status := strconv.Itoa(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns an http.Handler that serves Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Entry counts a stored entry.
func (m *Metrics) Entry(itemType string, created bool) {
	outcome := "updated"
	if created {
		outcome = "created"
	}
	m.entriesTotal.WithLabelValues(itemType, outcome).Inc()
}

// Resolution counts a lookup.
func (m *Metrics) Resolution(kind string, found bool) {
	result := "not_found"
	if found {
		result = "found"
	}
	m.resolutionsTotal.WithLabelValues(kind, result).Inc()
}

// UpstreamFailure counts a failed inventory call.
func (m *Metrics) UpstreamFailure(operation string) {
	m.upstreamFailures.WithLabelValues(operation).Inc()
}

// statusRecorder captures the HTTP status code for metrics and access logs
type statusRecorder struct {
	http.ResponseWriter
	code    int
	written bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if sr, ok := w.(*statusRecorder); ok {
		return sr
	}
	return &statusRecorder{ResponseWriter: w, code: http.StatusOK}
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.code = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.written = true
	return sr.ResponseWriter.Write(b)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}
