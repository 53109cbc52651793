package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptforge_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	SessionsCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptforge_sessions_captured_total",
		Help: "Total captured training sessions",
	})

	OptimizeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_optimize_runs_total",
		Help: "Total optimization runs by outcome",
	}, []string{"status"})

	OptimizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptforge_optimize_duration_seconds",
		Help:    "Wall-clock duration of optimization runs",
		Buckets: []float64{1, 5, 15, 60, 120, 300, 600},
	})

	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_llm_requests_total",
		Help: "Total LLM requests",
	}, []string{"status"})
)
