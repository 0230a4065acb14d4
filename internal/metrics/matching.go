package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching pipeline Prometheus metrics.
var (
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finder",
			Name:      "match_evaluations_total",
			Help:      "Found-item evaluations by outcome",
		},
		[]string{"outcome"}, // "matched" / "no_match" / "skipped" / "error"
	)

	AlertsScanned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "finder",
			Name:      "match_alerts_scanned",
			Help:      "Number of alerts scanned per evaluation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	MatchScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "finder",
			Name:      "match_score",
			Help:      "Cosine similarity of scored alert pairs",
			Buckets:   []float64{0, 0.2, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finder",
			Name:      "notifications_total",
			Help:      "Notification enqueue attempts by status",
		},
		[]string{"status"}, // "enqueued" / "failed"
	)

	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finder",
			Name:      "trigger_events_total",
			Help:      "Found-item created events by source and result",
		},
		[]string{"source", "result"}, // result: "handled" / "dropped" / "retry"
	)
)

var matchMetricsRegistered bool

// RegisterMatchMetrics registers Prometheus matching metrics. Must be called once from main.
func RegisterMatchMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(EvaluationsTotal)
	prometheus.MustRegister(AlertsScanned)
	prometheus.MustRegister(MatchScores)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(EventsTotal)
	matchMetricsRegistered = true
}
