// Package metrics exposes the pipeline's Prometheus counters.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	generations    *prometheus.CounterVec
	commits        *prometheus.CounterVec
	batchAttempts  *prometheus.CounterVec
	rateLimits     *prometheus.CounterVec
	generationTime *prometheus.HistogramVec
	requests       *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		generations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workmate",
			Name:      "generations_total",
			Help:      "Total number of reply generations by pilot mode and result.",
		}, []string{"mode", "result"}),
		commits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workmate",
			Name:      "commits_total",
			Help:      "Total number of AI messages appended and metered.",
		}, []string{"source"}),
		batchAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workmate",
			Name:      "batch_attempts_total",
			Help:      "Total number of batch item attempts by mode and result.",
		}, []string{"mode", "result"}),
		rateLimits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workmate",
			Name:      "rate_limit_hits_total",
			Help:      "Total number of failures classified as provider rate limiting.",
		}, []string{"op"}),
		generationTime: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workmate",
			Name:      "generation_duration_seconds",
			Help:      "Latency of language model calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"op"}),
		requests: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workmate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveGeneration(mode string, err error) {
	getMetrics().generations.WithLabelValues(mode, result(err)).Inc()
}

func ObserveGenerationSeconds(op string, seconds float64) {
	getMetrics().generationTime.WithLabelValues(op).Observe(seconds)
}

// ObserveCommit counts a committed AI message; source is "autopilot", "approval" or a webhook name.
func ObserveCommit(source string) {
	getMetrics().commits.WithLabelValues(source).Inc()
}

func ObserveBatchAttempt(mode string, err error) {
	getMetrics().batchAttempts.WithLabelValues(mode, result(err)).Inc()
}

func ObserveRateLimit(op string) {
	getMetrics().rateLimits.WithLabelValues(op).Inc()
}

func ObserveRequest(method, route string, status int, seconds float64) {
	getMetrics().requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
