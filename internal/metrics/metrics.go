// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ConfirmationEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confirmation_emails_total",
			Help: "Confirmation code deliveries by result",
		},
		[]string{"result"}, // "sent", "failed", "unavailable"
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the auth rate limiter",
		},
		[]string{"route"},
	)

	// 0 closed, 1 half-open, 2 open
	MailBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mail_circuit_breaker_state",
			Help: "State of the outbound mail circuit breaker (0 closed, 1 half-open, 2 open)",
		},
	)
)

// RecordHTTPRequest records one served request. route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordConfirmationEmail(result string) {
	ConfirmationEmailsTotal.WithLabelValues(result).Inc()
}

func RecordRateLimited(route string) {
	RateLimitedTotal.WithLabelValues(route).Inc()
}

func SetMailBreakerState(state gobreaker.State) {
	switch state {
	case gobreaker.StateHalfOpen:
		MailBreakerState.Set(1)
	case gobreaker.StateOpen:
		MailBreakerState.Set(2)
	default:
		MailBreakerState.Set(0)
	}
}
