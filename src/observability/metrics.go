// Package observability defines the Prometheus metrics of the connections service.
//
// Metrics are exposed on /metrics. Construct them once with NewMetrics and pass
// the instance to the services that record them.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace     = "talentnest"
	connectionsSubsystem = "connections"
)

// Metrics holds the counters recorded by the connection services
type Metrics struct {
	// Transitions counts lifecycle events.
	// Labels: event (sent, accepted, rejected, removed)
	Transitions *prometheus.CounterVec

	// LostRaces counts accept/reject calls that found no pending request to move.
	// Labels: operation (accept, reject)
	LostRaces *prometheus.CounterVec

	// Compensations counts saga rollbacks after a partial graph update.
	// Labels: operation (link, unlink)
	Compensations *prometheus.CounterVec

	// SideEffectFailures counts swallowed failures of detached side effects.
	// Labels: effect (notification, realtime, email)
	SideEffectFailures *prometheus.CounterVec
}

// NewMetrics registers all metrics on reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: connectionsSubsystem,
				Name:      "transitions_total",
				Help:      "Connection request lifecycle events by kind",
			},
			[]string{"event"},
		),
		LostRaces: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: connectionsSubsystem,
				Name:      "conditional_update_misses_total",
				Help:      "Accept/reject calls whose conditional update matched no pending request",
			},
			[]string{"operation"},
		),
		Compensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: connectionsSubsystem,
				Name:      "graph_compensations_total",
				Help:      "Compensating actions run after a partial connection set update",
			},
			[]string{"operation"},
		),
		SideEffectFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: connectionsSubsystem,
				Name:      "side_effect_failures_total",
				Help:      "Failures of detached notification, realtime and email side effects",
			},
			[]string{"effect"},
		),
	}
}
