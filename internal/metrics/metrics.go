package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_errors_total",
			Help: "Total number of error responses by kind",
		},
		[]string{"kind"},
	)

	SignupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_signups_total",
			Help: "Total number of accounts created",
		},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_logins_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	TokensRevokedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_tokens_revoked_total",
			Help: "Total number of tokens revoked on logout",
		},
	)

	PostsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_posts_created_total",
			Help: "Total number of posts created",
		},
	)

	PostsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_posts_deleted_total",
			Help: "Total number of posts deleted",
		},
	)

	ImageRemovalFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_image_removal_failures_total",
			Help: "Total number of best-effort image removals that failed",
		},
	)
)
