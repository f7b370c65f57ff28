// Package metrics defines and registers all custom Prometheus metrics for the
// GigFlow marketplace API. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry at
// package init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gigflow"

// ── Marketplace metrics ───────────────────────────────────────────────────────

// GigsCreatedTotal counts newly posted gigs.
var GigsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gigs_created_total",
		Help:      "Total number of gigs created.",
	},
)

// BidOperationsTotal counts bid operations by outcome.
// Labels:
//   - op: "place", "update" or "delete"
//   - result: "ok" or the error kind (e.g. "invalid_state", "forbidden")
var BidOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bid_operations_total",
		Help:      "Total number of bid operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// HiresTotal counts hire attempts.
// Label:
//   - result: "hired", "lost_race", or the error kind
var HiresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hires_total",
		Help:      "Total number of hire attempts, labelled by result.",
	},
	[]string{"result"},
)

// HireDuration measures the hire transaction from open to commit or abort.
var HireDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "hire_duration_seconds",
		Help:      "Duration of the hire transaction.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts notification outcomes.
// Label:
//   - outcome: "delivered", "offline", "failed", "relayed" or "dropped"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of hire notifications, labelled by delivery outcome.",
	},
	[]string{"outcome"},
)

// NotificationQueueDepth tracks pending notifications in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Presence metrics ──────────────────────────────────────────────────────────

// PresenceOnline is the number of users with a registered connection.
var PresenceOnline = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "presence_online_users",
		Help:      "Number of users currently registered in the presence registry.",
	},
)
