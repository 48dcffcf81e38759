// Package metrics exposes Prometheus collectors for the bot's activity:
// answered turns by outcome, continuation routing, admin clears, and
// dropped work.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "megan"

// Metrics holds the bot's Prometheus collectors. A nil *Metrics is valid
// and turns every record method into a no-op.
type Metrics struct {
	registry *prometheus.Registry

	turnsTotal            *prometheus.CounterVec
	continuationResolved  prometheus.Counter
	continuationRejected  prometheus.Counter
	historiesClearedTotal prometheus.Counter
	guardRejectedTotal    prometheus.Counter
	inboxDroppedTotal     prometheus.Counter
}

// New constructs Metrics on a private registry, exposed via Handler.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := MustNew(reg)
	m.registry = reg
	return m
}

// MustNew constructs Metrics registered with reg. Registration errors panic,
// mirroring promauto semantics: a duplicate registration is a wiring bug.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "turns_total",
				Help:      "Answered turns by outcome (primary, fallback, failed).",
			},
			[]string{"outcome"},
		),
		continuationResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "continuation",
			Name:      "resolved_total",
			Help:      "Replies routed back into an existing session.",
		}),
		continuationRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "continuation",
			Name:      "rejected_total",
			Help:      "Replies to bot messages ignored because the replier did not own the session.",
		}),
		historiesClearedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "cleared_total",
			Help:      "Admin clear-all operations executed.",
		}),
		guardRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "guard_rejected_total",
			Help:      "Turns rejected by the in-flight request guard.",
		}),
		inboxDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "inbox_dropped_total",
			Help:      "Inbound messages dropped because the router inbox was full.",
		}),
	}

	reg.MustRegister(
		m.turnsTotal,
		m.continuationResolved,
		m.continuationRejected,
		m.historiesClearedTotal,
		m.guardRejectedTotal,
		m.inboxDroppedTotal,
	)
	return m
}

// Handler returns the scrape endpoint for the private registry. It returns
// nil when the Metrics were registered on an external registerer.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTurn counts one answered turn with its outcome label.
func (m *Metrics) RecordTurn(outcome string) {
	if m == nil || m.turnsTotal == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

// RecordContinuationResolved counts a reply routed back into its session.
func (m *Metrics) RecordContinuationResolved() {
	if m == nil || m.continuationResolved == nil {
		return
	}
	m.continuationResolved.Inc()
}

// RecordContinuationRejected counts a reply refused for ownership reasons.
func (m *Metrics) RecordContinuationRejected() {
	if m == nil || m.continuationRejected == nil {
		return
	}
	m.continuationRejected.Inc()
}

// RecordHistoriesCleared counts one clear-all operation.
func (m *Metrics) RecordHistoriesCleared() {
	if m == nil || m.historiesClearedTotal == nil {
		return
	}
	m.historiesClearedTotal.Inc()
}

// RecordGuardRejected counts a turn refused by the request guard.
func (m *Metrics) RecordGuardRejected() {
	if m == nil || m.guardRejectedTotal == nil {
		return
	}
	m.guardRejectedTotal.Inc()
}

// RecordInboxDropped counts a message dropped at the inbox boundary.
func (m *Metrics) RecordInboxDropped() {
	if m == nil || m.inboxDroppedTotal == nil {
		return
	}
	m.inboxDroppedTotal.Inc()
}
