// Package metrics defines and registers all custom Prometheus metrics for the
// live tracking service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto; /metrics exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// ── Hub metrics ───────────────────────────────────────────────────────────────

// HubPeers tracks the number of open realtime connections.
var HubPeers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hub_peers",
		Help:      "Current number of connected realtime peers.",
	},
)

// HubRooms tracks the number of delivery rooms with at least one member.
var HubRooms = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hub_rooms",
		Help:      "Current number of non-empty delivery rooms.",
	},
)

// HubEventsRelayedTotal counts events forwarded to room members.
// Label:
//   - event: "location-update" or "order-status-update"
var HubEventsRelayedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hub_events_relayed_total",
		Help:      "Total number of realtime events relayed to a room.",
	},
	[]string{"event"},
)

// HubEventsRejectedTotal counts inbound frames the hub refused.
// Label:
//   - reason: e.g. "malformed", "unknown_event", "invalid_location", "invalid_status", "slow_consumer",
//     "forbidden", "queue_full"
var HubEventsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hub_events_rejected_total",
		Help:      "Total number of realtime frames rejected by the hub.",
	},
	[]string{"reason"},
)

// ── Client metrics ────────────────────────────────────────────────────────────

// ClientPublishDroppedTotal counts events dropped because the client was not connected.
// Label:
//   - event: the event name that was dropped
var ClientPublishDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_publish_dropped_total",
		Help:      "Total number of events dropped while the realtime client was disconnected.",
	},
	[]string{"event"},
)

// ── Location metrics ──────────────────────────────────────────────────────────

// LocationEventsTotal counts location events handled by the recorder.
// Label:
//   - result: "recorded", "stale", or "error"
var LocationEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "location_events_total",
		Help:      "Total number of relayed location events, by recording result.",
	},
	[]string{"result"},
)

// LocationQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var LocationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "location_queue_depth",
		Help:      "Current number of location events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// LocationProcessingDuration measures how long a single location event takes to record.
var LocationProcessingDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "location_processing_duration_seconds",
		Help:      "Duration of location recording from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts newly created orders.
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders created.",
	},
)

// OrderStatusTransitionsTotal counts applied order status changes.
// Label:
//   - status: the new status (e.g. "picked_up")
var OrderStatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Total number of order status transitions, by resulting status.",
	},
	[]string{"status"},
)

// RouteQueriesTotal counts routing provider calls.
// Labels:
//   - provider: "mapbox" or "estimate"
//   - result: "ok" or "unavailable"
var RouteQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_queries_total",
		Help:      "Total number of route queries, by provider and result.",
	},
	[]string{"provider", "result"},
)
