package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sendbridge_dispatches_total",
			Help: "Total number of top-level dispatches by status and provider.",
		},
		[]string{"status", "provider"},
	)

	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sendbridge_retries_total",
			Help: "Total number of failed provider attempts by reason.",
		},
		[]string{"reason"}, // e.g. http_5xx, timeout, network, other
	)

	BreakerRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sendbridge_breaker_rejections_total",
			Help: "Total number of dispatches rejected by an open circuit breaker.",
		},
	)

	DLQTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sendbridge_dlq_total",
			Help: "Total number of messages moved to DLQ.",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sendbridge_queue_depth",
			Help: "Number of messages waiting in the dispatch queue.",
		},
	)

	ThrottleWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sendbridge_throttle_wait_seconds",
			Help:    "Time spent waiting on the global rate limiter per dispatch.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		DispatchesTotal,
		RetriesTotal,
		BreakerRejectionsTotal,
		DLQTotal,
		QueueDepth,
		ThrottleWaitSeconds,
	)
}
