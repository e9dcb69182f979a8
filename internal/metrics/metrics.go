// Package metrics exposes Prometheus instrumentation for uploads and sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
	OutcomeBusy     = "busy"
	OutcomeNotIdle  = "not_idle"
)

// Metrics holds the collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal    *prometheus.CounterVec
	uploadDuration  prometheus.Histogram
	uploadsInFlight prometheus.Gauge
	uploadBytes     prometheus.Histogram
	activeSessions  prometheus.Gauge
	resetsTotal     prometheus.Counter
}

// New creates and registers all collectors on a private registry.
func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "researchmate",
			Subsystem:   "upload",
			Name:        "total",
			Help:        "Upload attempts by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	uploadDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "researchmate",
			Subsystem:   "upload",
			Name:        "duration_seconds",
			Help:        "Time spent waiting on the analysis service.",
			Buckets:     []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			ConstLabels: constLabels,
		},
	)
	uploadsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "researchmate",
			Subsystem:   "upload",
			Name:        "in_flight",
			Help:        "Uploads currently waiting on the analysis service.",
			ConstLabels: constLabels,
		},
	)
	uploadBytes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "researchmate",
			Subsystem:   "upload",
			Name:        "size_bytes",
			Help:        "Size of forwarded manuscripts.",
			Buckets:     prometheus.ExponentialBuckets(16<<10, 4, 8),
			ConstLabels: constLabels,
		},
	)
	activeSessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "researchmate",
			Subsystem:   "session",
			Name:        "active",
			Help:        "Browser sessions currently held in memory.",
			ConstLabels: constLabels,
		},
	)
	resetsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "researchmate",
			Subsystem:   "session",
			Name:        "resets_total",
			Help:        "Reset actions taken from the review view.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(
		uploadsTotal,
		uploadDuration,
		uploadsInFlight,
		uploadBytes,
		activeSessions,
		resetsTotal,
	)

	return &Metrics{
		registry:        registry,
		uploadsTotal:    uploadsTotal,
		uploadDuration:  uploadDuration,
		uploadsInFlight: uploadsInFlight,
		uploadBytes:     uploadBytes,
		activeSessions:  activeSessions,
		resetsTotal:     resetsTotal,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// UploadStarted marks the start of a backend call.
func (m *Metrics) UploadStarted(size int64) {
	if m == nil {
		return
	}
	m.uploadsInFlight.Inc()
	m.uploadBytes.Observe(float64(size))
}

// UploadFinished records a settled backend call.
func (m *Metrics) UploadFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.uploadsInFlight.Dec()
	m.uploadDuration.Observe(elapsed.Seconds())
	m.uploadsTotal.WithLabelValues(outcome).Inc()
}

// UploadRefused records an attempt that never reached the backend.
func (m *Metrics) UploadRefused(outcome string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(outcome).Inc()
}

// SessionsActive sets the number of live sessions.
func (m *Metrics) SessionsActive(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// Reset counts a reset from the review view.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.resetsTotal.Inc()
}
