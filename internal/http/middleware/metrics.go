package middleware

import (
	"github.com/prometheus/client_golang/prometheus"

	"pegfall/internal/metrics"
)

var (
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "rate_limiter_requests_total",
			Help:      "Requests let through by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "rate_limiter_blocked_total",
			Help:      "Requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "rate_limiter_errors_total",
			Help:      "Redis errors that made the limiter fail open",
		},
	)
)

func init() {
	prometheus.MustRegister(RLRequests, RLBlocked, RLErrors)
}
