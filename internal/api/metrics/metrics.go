// Package metrics defines and registers all custom Prometheus metrics for the
// courier dispatch API. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics register with the default Prometheus registry at package init
// via promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "courier"

// ── Assignment metrics ────────────────────────────────────────────────────────

// AssignmentsTotal counts assignment attempts by kind and outcome.
// Labels:
//   - kind: "pickup_agent", "vehicle", "delivery_agent"
//   - result: "ok", "rejected", "conflict"
var AssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_total",
		Help:      "Total number of assignment attempts, by kind and result.",
	},
	[]string{"kind", "result"},
)

// CapacityRejectionsTotal counts vehicle assignments rejected for capacity.
var CapacityRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capacity_rejections_total",
		Help:      "Total number of vehicle assignments rejected because the load would exceed capacity.",
	},
)

// VehicleDispatchesTotal counts departed vehicles.
var VehicleDispatchesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vehicle_dispatches_total",
		Help:      "Total number of vehicle departures committed.",
	},
)

// ── Packet metrics ────────────────────────────────────────────────────────────

// PacketsCreatedTotal counts booked packets.
// Label:
//   - delivery_type: "delivery" or "pickup"
var PacketsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_created_total",
		Help:      "Total number of packets booked, by delivery type.",
	},
	[]string{"delivery_type"},
)

// PacketsDeliveredTotal counts packets reaching the terminal state.
var PacketsDeliveredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_delivered_total",
		Help:      "Total number of packets delivered or collected at the hub.",
	},
)

// ── Tracking metrics ──────────────────────────────────────────────────────────

// PositionTicksTotal counts ingested agent position ticks.
// Label:
//   - source: "http" or "mqtt"
var PositionTicksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "position_ticks_total",
		Help:      "Total number of agent position ticks ingested, by source.",
	},
	[]string{"source"},
)

// PositionTicksDroppedTotal counts position ticks shed because the owning
// worker's queue was full.
var PositionTicksDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "position_ticks_dropped_total",
		Help:      "Total number of agent position ticks dropped on a full worker queue.",
	},
)

// PositionQueueDepth tracks ticks waiting in the position dispatcher.
var PositionQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "position_queue_depth",
		Help:      "Current number of position ticks pending across dispatcher workers.",
	},
)

// ArrivalDetectionsTotal counts geofence arrivals fired.
var ArrivalDetectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "arrival_detections_total",
		Help:      "Total number of arrival events fired by the geofence latch.",
	},
)

// RouteRequestsTotal counts routing provider calls.
// Label:
//   - result: "ok" or "error"
var RouteRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_requests_total",
		Help:      "Total number of route computations requested from the routing provider.",
	},
	[]string{"result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationDeliveriesTotal counts outbound notification attempts.
// Labels:
//   - kind: "delivery_assignment", "pickup_confirmation", "delivery_confirmation"
//   - result: "sent", "duplicate", "error"
var NotificationDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_deliveries_total",
		Help:      "Total number of outbound notification attempts, by kind and result.",
	},
	[]string{"kind", "result"},
)
