// Package metrics records store, guard and audit activity to Prometheus and StatsD.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	obserrors "github.com/target/bhajan-library/internal/observability/errors"
	"github.com/target/bhajan-library/internal/observability/statsd"
)

// Metrics holds the Prometheus collectors and an optional StatsD sink.
// A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	Mutations        *prometheus.CounterVec
	MutationDuration *prometheus.HistogramVec
	GuardDecisions   *prometheus.CounterVec
	AuditOutcomes    *prometheus.CounterVec
	AuditQueueDepth  prometheus.Gauge
	ActiveClients    prometheus.Gauge

	sink statsd.Sink
}

// New registers the collectors with registry. sink may be nil.
func New(registry prometheus.Registerer, sink statsd.Sink) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bhajan_store_mutations_total",
				Help: "Store mutations by operation and terminal phase",
			},
			[]string{"op", "phase", "error_class"},
		),
		MutationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bhajan_store_mutation_duration_seconds",
				Help:    "Store mutation latency including the audit phase",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bhajan_guard_decisions_total",
				Help: "Navigation guard decisions by route and outcome",
			},
			[]string{"route", "outcome"},
		),
		AuditOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bhajan_audit_outcomes_total",
				Help: "Audit append outcomes",
			},
			[]string{"outcome"},
		),
		AuditQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bhajan_audit_retry_queue_depth",
				Help: "Audit entries waiting for replay",
			},
		),
		ActiveClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bhajan_active_clients",
				Help: "Browser clients held in memory",
			},
		),
		sink: sink,
	}
}

// ObserveMutation records one store mutation. err is nil unless phase is failed.
func (m *Metrics) ObserveMutation(op, phase string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	class := obserrors.Classify(err)
	m.Mutations.WithLabelValues(op, phase, class).Inc()
	m.MutationDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	if m.sink != nil {
		tags := map[string]string{"op": op, "phase": phase}
		if class != "" {
			tags["error_class"] = class
		}
		m.sink.Count("store.mutation", 1, tags)
		m.sink.Timing("store.mutation.duration", elapsed, map[string]string{"op": op})
	}
}

// ObserveGuard records one navigation decision.
func (m *Metrics) ObserveGuard(route, outcome string) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.GuardDecisions.WithLabelValues(route, outcome).Inc()
	if m.sink != nil {
		m.sink.Count("guard.decision", 1, map[string]string{"route": route, "outcome": outcome})
	}
}

// ObserveAudit records the outcome of one audit append.
func (m *Metrics) ObserveAudit(outcome string) {
	if m == nil {
		return
	}
	m.AuditOutcomes.WithLabelValues(outcome).Inc()
	if m.sink != nil {
		m.sink.Count("audit.outcome", 1, map[string]string{"outcome": outcome})
	}
}

// SetAuditQueueDepth publishes the retry queue length.
func (m *Metrics) SetAuditQueueDepth(n int64) {
	if m == nil {
		return
	}
	m.AuditQueueDepth.Set(float64(n))
	if m.sink != nil {
		m.sink.Gauge("audit.retry_queue.depth", float64(n), nil)
	}
}

// SetActiveClients publishes the number of clients held by the registry.
func (m *Metrics) SetActiveClients(n int) {
	if m == nil {
		return
	}
	m.ActiveClients.Set(float64(n))
	if m.sink != nil {
		m.sink.Gauge("clients.active", float64(n), nil)
	}
}
