// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the bridge.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// TRANSPORT METRICS
// =============================================================================

var (
	transportWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbridge_transport_writes_total",
			Help: "Total envelope writes per channel",
		},
		[]string{"transport", "channel", "status"}, // status: ok, error
	)

	transportReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbridge_transport_reads_total",
			Help: "Total envelope reads per channel",
		},
		[]string{"transport", "channel", "status"}, // status: ok, empty, malformed, error
	)

	cleanupRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardbridge_cleanup_removed_files_total",
			Help: "Total stale channel files removed by cleanup",
		},
	)
)

// =============================================================================
// ACTION METRICS
// =============================================================================

var (
	actionsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbridge_actions_dispatched_total",
			Help: "Total action commands dispatched through the correlator",
		},
		[]string{"action", "outcome"}, // outcome: resolved, rejected, timed_out, write_failed
	)

	actionWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardbridge_action_wait_seconds",
			Help:    "Time between dispatching an action and observing its result",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"action"},
	)

	staleResultsIgnoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardbridge_stale_results_ignored_total",
			Help: "Action results skipped because their sequence id did not match the in-flight command",
		},
	)
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordTransportWrite records the outcome of one WriteMessage call.
func RecordTransportWrite(transport, channel, status string) {
	transportWritesTotal.WithLabelValues(transport, channel, status).Inc()
}

// RecordTransportRead records the outcome of one ReadMessage call.
func RecordTransportRead(transport, channel, status string) {
	transportReadsTotal.WithLabelValues(transport, channel, status).Inc()
}

// RecordCleanupRemoved records files removed during a cleanup pass.
func RecordCleanupRemoved(count int) {
	cleanupRemovedTotal.Add(float64(count))
}

// RecordActionDispatch records the final outcome of a dispatch-and-wait.
func RecordActionDispatch(action, outcome string, waitSeconds float64) {
	actionsDispatchedTotal.WithLabelValues(action, outcome).Inc()
	actionWaitSeconds.WithLabelValues(action).Observe(waitSeconds)
}

// RecordStaleResultIgnored records a result envelope skipped during polling.
func RecordStaleResultIgnored() {
	staleResultsIgnoredTotal.Inc()
}
