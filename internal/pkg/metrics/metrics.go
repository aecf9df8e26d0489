// Package metrics provides Prometheus metrics definitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opsdeck"

var (
	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status_code"},
	)

	// ServicesByStatus tracks the simulated fleet broken down by status.
	ServicesByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "services",
			Help:      "Number of simulated services by status",
		},
		[]string{"status"},
	)

	// ActiveIncidents tracks incidents that are open or investigating.
	ActiveIncidents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "active_incidents",
			Help:      "Number of incidents not yet resolved",
		},
	)

	// ActiveAlerts tracks alerts currently held in the store.
	ActiveAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "active_alerts",
			Help:      "Number of alerts currently held",
		},
	)

	// StoreSkippedOps counts store actions skipped because their target id
	// did not resolve. Not-found is a silent no-op; the counter is the
	// diagnostic surface for it.
	StoreSkippedOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "skipped_ops_total",
			Help:      "Store operations skipped due to unknown target ids",
		},
		[]string{"op"},
	)

	// ScenarioSteps counts executed demo scenario steps by action.
	ScenarioSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "steps_total",
			Help:      "Demo scenario steps executed by action",
		},
		[]string{"action"},
	)

	// ScenarioUnknownActions counts steps whose action tag was outside the
	// vocabulary and therefore ignored.
	ScenarioUnknownActions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "unknown_actions_total",
			Help:      "Demo scenario steps ignored due to unknown action tags",
		},
	)

	// RealtimeTicks counts executed real-time loop ticks.
	RealtimeTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "ticks_total",
			Help:      "Real-time loop ticks executed",
		},
	)

	// ExpiredAlerts counts alerts dismissed by the expiry sweep.
	ExpiredAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "expired_alerts_total",
			Help:      "Low-severity alerts dismissed by the expiry sweep",
		},
	)

	// StreamClients tracks connected websocket dashboard clients.
	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected websocket clients",
		},
	)
)
