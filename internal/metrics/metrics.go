package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinicgrid"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status code class.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2},
		},
		[]string{"route"},
	)

	visitMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_mutations_total",
			Help:      "Count of visit mutations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	scheduleWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_blob_writes_total",
			Help:      "Count of full schedule blob writes.",
		},
	)

	clientCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_cache_total",
			Help:      "API client cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, visitMutations, scheduleWrites, clientCache)
	})
}

func ObserveHTTP(route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, codeClass(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncVisitMutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	visitMutations.WithLabelValues(op, outcome).Inc()
}

func IncScheduleWrite() {
	scheduleWrites.Inc()
}

func IncCacheHit() {
	clientCache.WithLabelValues("hit").Inc()
}

func IncCacheMiss() {
	clientCache.WithLabelValues("miss").Inc()
}

func codeClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
