package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EnrichmentMetrics records outcomes of the AI pipeline.
type EnrichmentMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	fallback *prometheus.CounterVec
}

// NewEnrichmentMetrics registers pipeline metrics on the provided registerer.
// A nil registerer yields a no-op recorder, which keeps tests and optional
// wiring simple.
func NewEnrichmentMetrics(reg prometheus.Registerer) *EnrichmentMetrics {
	if reg == nil {
		return &EnrichmentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "enrichment_duration_seconds",
		Help:    "Duration of image analysis runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrichment_success_total",
		Help: "Successful enrichment runs.",
	}, []string{"stage"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrichment_failure_total",
		Help: "Failed enrichment runs.",
	}, []string{"stage"})
	fallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stylist_fallback_total",
		Help: "Stylist responses served from the deterministic fallback.",
	}, []string{"kind"})
	reg.MustRegister(duration, success, failure, fallback)
	return &EnrichmentMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		fallback: fallback,
	}
}

// ObserveDuration records how long the named stage took.
func (m *EnrichmentMetrics) ObserveDuration(stage string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(stage)).Observe(d.Seconds())
}

// IncSuccess increments the success counter for the named stage.
func (m *EnrichmentMetrics) IncSuccess(stage string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(stage)).Inc()
}

// IncFailure increments the failure counter for the named stage.
func (m *EnrichmentMetrics) IncFailure(stage string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(stage)).Inc()
}

// IncFallback increments the stylist fallback counter for a suggestion kind.
func (m *EnrichmentMetrics) IncFallback(kind string) {
	if m == nil || m.fallback == nil {
		return
	}
	m.fallback.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
