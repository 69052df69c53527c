package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embyplay_upstream_requests_total",
		Help: "Requests sent to the media server by operation and HTTP status (0 = transport failure)",
	}, []string{"operation", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "embyplay_upstream_request_duration_seconds",
		Help:    "Media server request latency by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// RecordUpstreamRequest records one media server round trip.
func RecordUpstreamRequest(operation string, status int, seconds float64) {
	if operation == "" {
		operation = "unknown"
	}
	upstreamRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	upstreamDuration.WithLabelValues(operation).Observe(seconds)
}
