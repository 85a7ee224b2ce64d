package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vrok_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vrok_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vrok_http_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
)

// RequestStarted marks a request as in flight. The returned func must be
// called once the response has been written.
func RequestStarted() func(method, route string, status int) {
	start := time.Now()
	httpRequestsInFlight.Inc()
	return func(method, route string, status int) {
		httpRequestsInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	}
}

// RecordRateLimited counts one rejected request.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}
