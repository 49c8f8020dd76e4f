// Package metrics declares the Prometheus collectors shared by the server
// and the sync client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Server ─────────────────────────────────────────────────────────────────

// HTTPRequests counts served requests by route and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "spendly",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests served, by method, route and status.",
}, []string{"method", "route", "status"})

// HTTPLatency tracks request latency by route.
var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "spendly",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

// SyncEvents counts change events processed by the authority.
var SyncEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "spendly",
	Subsystem: "authority",
	Name:      "events_total",
	Help:      "Change events processed, by entity, action and result.",
}, []string{"entity", "action", "result"})

// SyncReturned counts change events sent back to clients.
var SyncReturned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "spendly",
	Subsystem: "authority",
	Name:      "returned_events_total",
	Help:      "Change events returned to clients since their watermark.",
})

// ─── Client ─────────────────────────────────────────────────────────────────

// ReconcileRuns counts reconciler round trips by outcome.
var ReconcileRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "spendly",
	Subsystem: "reconcile",
	Name:      "runs_total",
	Help:      "Sync round trips, by outcome.",
}, []string{"outcome"})

// QueueDepth is the number of pending local change events.
var QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "spendly",
	Subsystem: "queue",
	Name:      "depth",
	Help:      "Pending change events waiting to be synced.",
})

// Result labels.
const (
	ResultApplied = "applied"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)
