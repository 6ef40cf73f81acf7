package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gmstats_operation_duration_seconds",
			Help:    "Duration of engine operations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
		[]string{"op"},
	)
	eventsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmstats_events_recorded_total",
			Help: "Greeting events recorded, by chain.",
		},
		[]string{"chain"},
	)
	invalidEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gmstats_invalid_events_total",
			Help: "Events rejected for an invalid timestamp.",
		},
	)
	adminDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmstats_admin_denied_total",
			Help: "Administrative actions denied to unauthorized callers.",
		},
		[]string{"action"},
	)
	leaderboardRecomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmstats_leaderboard_recomputes_total",
			Help: "Leaderboard cache recomputations.",
		},
		[]string{"board"},
	)
	feedPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gmstats_feed_pruned_total",
			Help: "Feed entries removed by retention.",
		},
	)
)

func init() {
	prometheus.MustRegister(opDuration)
	prometheus.MustRegister(eventsRecorded)
	prometheus.MustRegister(invalidEvents)
	prometheus.MustRegister(adminDenied)
	prometheus.MustRegister(leaderboardRecomputes)
	prometheus.MustRegister(feedPruned)
}

func EventRecorded(chain string) {
	eventsRecorded.WithLabelValues(chain).Inc()
}

func InvalidEvent() {
	invalidEvents.Inc()
}

func AdminDenied(action string) {
	adminDenied.WithLabelValues(action).Inc()
}

func LeaderboardRecomputed(board string) {
	leaderboardRecomputes.WithLabelValues(board).Inc()
}

func FeedPruned(n int) {
	feedPruned.Add(float64(n))
}
