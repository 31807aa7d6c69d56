package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and ranking Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"strategy", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchd",
			Name:      "search_duration_seconds",
			Help:      "Search execution duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	RerankStageSkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "rerank_stage_skips_total",
			Help:      "Rerank pipeline stages skipped due to collaborator failures",
		},
		[]string{"stage"},
	)

	SuggestCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "suggest_cache_total",
			Help:      "Suggestion cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ScoringRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "scoring_requests_total",
			Help:      "Total number of content scoring requests",
		},
		[]string{"provider", "model", "status"},
	)

	ScoringRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchd",
			Name:      "scoring_request_duration_seconds",
			Help:      "Content scoring request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	ScoringErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "scoring_errors_total",
			Help:      "Total content scoring errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(RerankStageSkipsTotal)
	prometheus.MustRegister(SuggestCacheTotal)
	prometheus.MustRegister(ScoringRequestsTotal)
	prometheus.MustRegister(ScoringRequestDuration)
	prometheus.MustRegister(ScoringErrorsTotal)
	searchMetricsRegistered = true
}
