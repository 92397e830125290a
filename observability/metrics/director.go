// Package metrics exposes the director's Prometheus collectors,
// following the lazily-initialised singleton registry pattern used
// throughout the teacher's observability/metrics package.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RoutingMetrics tracks transaction routing-arbiter (C6/C7) and
// pub/sub routing-arbiter (C9) decisions.
type RoutingMetrics struct {
	decisions       *prometheus.CounterVec
	fetchLatency    *prometheus.HistogramVec
	pubsubDecisions *prometheus.CounterVec
	validationFails *prometheus.CounterVec
}

var (
	routingOnce     sync.Once
	routingRegistry *RoutingMetrics
)

// Routing returns the process-wide routing metrics registry.
func Routing() *RoutingMetrics {
	routingOnce.Do(func() {
		routingRegistry = &RoutingMetrics{
			decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "director",
				Subsystem: "routing",
				Name:      "transaction_decisions_total",
				Help:      "Count of C6 transaction routing decisions by resulting endpoint.",
			}, []string{"endpoint"}),
			fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "director",
				Subsystem: "routing",
				Name:      "snapshot_fetch_duration_seconds",
				Help:      "Latency distribution for C4/C5 chain-snapshot fetches.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"component"}),
			pubsubDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "director",
				Subsystem: "pubsub",
				Name:      "guide_decisions_total",
				Help:      "Count of C9 pub/sub routing decisions by resulting endpoint.",
			}, []string{"endpoint"}),
			validationFails: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "director",
				Subsystem: "routing",
				Name:      "validation_rejections_total",
				Help:      "Count of C7 writable-account validation rejections.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			routingRegistry.decisions,
			routingRegistry.fetchLatency,
			routingRegistry.pubsubDecisions,
			routingRegistry.validationFails,
		)
	})
	return routingRegistry
}

// ObserveDecision records a C6 routing decision's resulting endpoint.
func (m *RoutingMetrics) ObserveDecision(endpoint string) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	m.decisions.WithLabelValues(endpoint).Inc()
}

// ObserveFetchLatency records how long a C4/C5 fetch took.
func (m *RoutingMetrics) ObserveFetchLatency(component string, d time.Duration) {
	if m == nil {
		return
	}
	if component == "" {
		component = "unknown"
	}
	m.fetchLatency.WithLabelValues(component).Observe(d.Seconds())
}

// ObservePubsubDecision records a C9 pub/sub routing decision.
func (m *RoutingMetrics) ObservePubsubDecision(endpoint string) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	m.pubsubDecisions.WithLabelValues(endpoint).Inc()
}

// ObserveValidationFailure records a C7 rejection by reason.
func (m *RoutingMetrics) ObserveValidationFailure(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.validationFails.WithLabelValues(reason).Inc()
}
