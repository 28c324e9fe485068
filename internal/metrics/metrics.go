package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webclient",
		Name:      "submissions_total",
		Help:      "Total playback submissions by terminal outcome.",
	}, []string{"outcome"})

	SubmissionStageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "webclient",
		Name:      "submission_stage_duration_seconds",
		Help:      "Duration of each submission workflow stage in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 180},
	}, []string{"stage"})

	StaleCompletionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "webclient",
		Name:      "stale_completions_total",
		Help:      "Submissions that finished after a newer submission had started.",
	})

	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webclient",
		Name:      "searches_total",
		Help:      "Total search queries by provider and result status.",
	}, []string{"provider", "status"})

	SearchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "webclient",
		Name:      "search_duration_seconds",
		Help:      "Search query duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"provider"})

	SearchCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "webclient",
		Name:      "search_cache_hits_total",
		Help:      "Total number of search cache hits.",
	})

	SearchCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "webclient",
		Name:      "search_cache_misses_total",
		Help:      "Total number of search cache misses.",
	})

	UIClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "webclient",
		Name:      "ui_clients",
		Help:      "Connected UI websocket clients.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		SubmissionsTotal,
		SubmissionStageDuration,
		StaleCompletionsTotal,
		SearchesTotal,
		SearchDuration,
		SearchCacheHitsTotal,
		SearchCacheMissesTotal,
		UIClients,
	)
}
