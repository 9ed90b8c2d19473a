// Package metrics defines and registers all custom Prometheus metrics for the
// ECG Health IQ API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ecg"

// ── Classification metrics ────────────────────────────────────────────────────

// ClassificationsTotal counts signals classified successfully.
// Labels:
//   - label: the predicted class (e.g. "Normal", "Atrial Fibrillation")
//   - source: where the signal came from ("record", "uploaded_csv", "uploaded_csv_text")
var ClassificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Total number of ECG signals classified, by predicted label.",
	},
	[]string{"label", "source"},
)

// ClassificationErrorsTotal counts classification attempts that failed.
// Label:
//   - reason: "empty_signal", "classifier_unavailable", "bad_response"
var ClassificationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classification_errors_total",
		Help:      "Total number of ECG classifications that failed.",
	},
	[]string{"reason"},
)

// ClassificationDuration measures the round trip to the inference service.
var ClassificationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "classification_duration_seconds",
		Help:      "Duration of calls to the ECG classifier.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Ingest metrics ────────────────────────────────────────────────────────────

// RecordsIngestedTotal counts stored ECG records.
// Label:
//   - source: "simulated", "device", "uploaded_csv", "uploaded_csv_text", "consultation"
var RecordsIngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_ingested_total",
		Help:      "Total number of ECG records stored, by source.",
	},
	[]string{"source"},
)

// ── Consultation metrics ──────────────────────────────────────────────────────

// ConsultationsCreatedTotal counts consultation requests.
// Label:
//   - result: "created" or "replayed"
var ConsultationsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consultations_created_total",
		Help:      "Total number of consultation requests, labelled by result.",
	},
	[]string{"result"},
)

// ConsultationRepliesTotal counts doctor replies.
// Label:
//   - result: "first", "overwrite" or "replay"
var ConsultationRepliesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consultation_replies_total",
		Help:      "Total number of doctor replies, labelled by how they were applied.",
	},
	[]string{"result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsQueueDepth tracks pending notifications per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationsDroppedTotal counts notifications discarded because a worker queue was full.
var NotificationsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Total number of consultation notifications dropped on a full queue.",
	},
)

// NotificationDuration measures delivery of a single notification.
// Label:
//   - outcome: "ok" or "error"
var NotificationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of consultation notification delivery.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)
