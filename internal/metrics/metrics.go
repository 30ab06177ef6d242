// Package metrics defines and registers the custom Prometheus metrics of the
// back-office API. HTTP request metrics come from echoprometheus in the router;
// this package only holds domain-level series.
//
// All metrics register with the default registry at package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "backoffice"

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts notification outcomes.
// Labels:
//   - event: the notification event (e.g. "task_assigned")
//   - result: "sent", "failed", "dropped", "duplicate"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of outbound notifications, by event and result.",
	},
	[]string{"event", "result"},
)

// NotificationQueueDepth tracks pending notifications per dispatcher worker.
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Entity metrics ────────────────────────────────────────────────────────────

// TasksCreatedTotal counts newly created tasks.
var TasksCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created.",
	},
)

// TasksCompletedTotal counts transitions into the completed status.
var TasksCompletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_completed_total",
		Help:      "Total number of task transitions into completed.",
	},
)

// DocumentsUploadedTotal counts stored uploads.
// Label:
//   - strategy: "disk", "memory" or "cloudinary"
var DocumentsUploadedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_uploaded_total",
		Help:      "Total number of documents uploaded, by storage strategy.",
	},
	[]string{"strategy"},
)

// ── Database metrics ──────────────────────────────────────────────────────────

// DatabaseState exposes the connection state machine: 0 cold, 1 connecting,
// 2 ready, 3 degraded.
var DatabaseState = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "database_state",
		Help:      "Database connection state (0 cold, 1 connecting, 2 ready, 3 degraded).",
	},
)

// DatabaseConnectAttemptsTotal counts connection attempts by result ("ok", "error").
var DatabaseConnectAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "database_connect_attempts_total",
		Help:      "Total number of database connection attempts, by result.",
	},
	[]string{"result"},
)
