// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HubEventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_processed_total",
			Help: "Total number of inbound events processed, by event and source",
		},
		[]string{"event", "source"},
	)

	HubEventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_failed_total",
			Help: "Total number of events whose handler or side effect failed",
		},
		[]string{"event", "error_code"},
	)

	HubUnknownEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_unknown_events_total",
			Help: "Total number of envelopes with an unrecognized event tag",
		},
	)

	HubEventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hub_event_duration_seconds",
			Help:    "Duration of synchronous event handling in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"event"},
	)

	HubPendingTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_pending_tasks",
			Help: "Number of asynchronous side effects still in flight",
		},
	)

	HubMenuRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_menu_rebuilds_total",
			Help: "Total number of context menu rebuilds, by resulting state",
		},
		[]string{"state"},
	)

	HubStoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_store_operations_total",
			Help: "State store operations by backend, operation and outcome",
		},
		[]string{"backend", "op", "outcome"},
	)

	HubBridgeConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_bridge_connected",
			Help: "1 while an extension shim is connected to the bridge",
		},
	)

	HubArchiveWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_archive_writes_total",
			Help: "Archived applications by sink and outcome",
		},
		[]string{"sink", "outcome"},
	)
)

// Recorder adapts the package-level vectors to the errors.Recorder interface.
type Recorder struct{}

func (Recorder) RecordEventFailure(event string, code string) {
	HubEventsFailed.WithLabelValues(event, code).Inc()
}

// Outcome converts an error into the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
