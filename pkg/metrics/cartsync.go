package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartSyncMetrics records the reconciliation engine's interaction with the
// upstream cart API.
type CartSyncMetrics struct {
	duration  *prometheus.HistogramVec
	attempts  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewCartSyncMetrics registers the cart sync metrics on the provided registerer.
func NewCartSyncMetrics(reg prometheus.Registerer) *CartSyncMetrics {
	if reg == nil {
		return &CartSyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_sync_duration_seconds",
		Help:    "Duration of cart sync operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_attempts",
		Help: "Cart sync operations by terminal outcome.",
	}, []string{"operation", "outcome"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_endpoint_fallbacks",
		Help: "Candidate endpoints that failed before one succeeded.",
	}, []string{"operation"})
	reg.MustRegister(duration, attempts, fallbacks)
	return &CartSyncMetrics{
		duration:  duration,
		attempts:  attempts,
		fallbacks: fallbacks,
	}
}

// ObserveDuration records the duration for the named operation.
func (c *CartSyncMetrics) ObserveDuration(operation string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncOutcome increments the attempt counter for the operation/outcome pair.
func (c *CartSyncMetrics) IncOutcome(operation, outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncEndpointFallback counts a candidate endpoint that had to be skipped.
func (c *CartSyncMetrics) IncEndpointFallback(operation string) {
	if c == nil || c.fallbacks == nil {
		return
	}
	c.fallbacks.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
