// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the flock API server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets suited for database-bound request
// handling, ranging from 1ms to 10s.
var APIBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flock_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flock_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthFailuresTotal counts rejected authentication attempts by reason
	// (no_token, invalid_token, no_secret, user_gone).
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flock_auth_failures_total",
			Help: "Authentication failures",
		},
		[]string{"reason"},
	)

	// SignupsTotal counts successful account creations.
	SignupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flock_signups_total",
			Help: "Successful signups",
		},
	)

	// LoginsTotal counts login attempts by outcome (success, failure).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flock_logins_total",
			Help: "Login attempts",
		},
		[]string{"outcome"},
	)

	// PostsCreatedTotal counts created posts.
	PostsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flock_posts_created_total",
			Help: "Posts created",
		},
	)

	// NotificationsTotal counts notifications created by type (follow, like).
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flock_notifications_total",
			Help: "Notifications created",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthFailuresTotal,
		SignupsTotal,
		LoginsTotal,
		PostsCreatedTotal,
		NotificationsTotal,
	)
}
