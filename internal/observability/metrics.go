package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	finalizeRequestsTotal   *prometheus.CounterVec
	finalizeDurationSeconds prometheus.Histogram
	integrityWebhooksTotal  *prometheus.CounterVec
	collaboratorErrorsTotal *prometheus.CounterVec
	sessionTransitionsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the finalization pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		finalizeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finalize_requests_total",
			Help: "Total number of finalize calls by outcome.",
		}, []string{"outcome"})

		finalizeDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "finalize_duration_seconds",
			Help:    "Latency distribution of the finalize pipeline.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 7.5, 10.0},
		})

		integrityWebhooksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "integrity_webhooks_total",
			Help: "Integrity webhook deliveries by merge outcome.",
		}, []string{"outcome"})

		collaboratorErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collaborator_errors_total",
			Help: "Recovered upstream collaborator failures.",
		}, []string{"collaborator"})

		sessionTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_transitions_total",
			Help: "Session state transitions.",
		}, []string{"to"})

		prometheus.MustRegister(
			finalizeRequestsTotal,
			finalizeDurationSeconds,
			integrityWebhooksTotal,
			collaboratorErrorsTotal,
			sessionTransitionsTotal,
		)
	})
}

// FinalizeRequests exposes the counter for finalize outcomes.
func FinalizeRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return finalizeRequestsTotal
}

// FinalizeDuration exposes the finalize latency histogram.
func FinalizeDuration() prometheus.Histogram {
	RegisterMetrics()
	return finalizeDurationSeconds
}

// IntegrityWebhooks exposes the webhook delivery counter.
func IntegrityWebhooks() *prometheus.CounterVec {
	RegisterMetrics()
	return integrityWebhooksTotal
}

// CollaboratorErrors exposes the recovered upstream failure counter.
func CollaboratorErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return collaboratorErrorsTotal
}

// SessionTransitions exposes the session transition counter.
func SessionTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionTransitionsTotal
}
