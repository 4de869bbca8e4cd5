// Package observability provides domain metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFailures counts rejected requests at the authentication gate by reason
	// (no_token, invalid_token, token_expired) and failed logins (bad_credentials).
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnect_auth_failures_total",
		Help: "Total number of authentication failures by reason",
	}, []string{"reason"})

	// PolicyDenials counts authorization denials by reason.
	PolicyDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnect_policy_denials_total",
		Help: "Total number of authorization policy denials by reason",
	}, []string{"reason"})

	// CASRetries counts optimistic update attempts that lost a race.
	CASRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnect_cas_retries_total",
		Help: "Total number of optimistic concurrency retries by aggregate",
	}, []string{"aggregate"})

	// PostInteractions counts post likes, unlikes, comments and deletions.
	PostInteractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnect_post_interactions_total",
		Help: "Total number of post interactions by action",
	}, []string{"action"})

	// DatabaseQueryLatency records repository latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devconnect_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnect_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
