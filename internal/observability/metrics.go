// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bhreads_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bhreads_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthAttempts counts register and login outcomes.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bhreads_auth_attempts_total",
		Help: "Authentication attempts by action and result",
	}, []string{"action", "result"})

	// EngagementEvents counts likes, comments and reposts.
	EngagementEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bhreads_engagement_events_total",
		Help: "Engagement mutations by event type",
	}, []string{"event"})

	// MigrationBackfillFailures counts users the backfill migration had to skip.
	MigrationBackfillFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bhreads_migration_backfill_failures_total",
		Help: "Users skipped by the profile backfill migration",
	})
)

// Engagement event labels.
const (
	EventLike          = "like"
	EventUnlike        = "unlike"
	EventComment       = "comment"
	EventCommentDelete = "comment_delete"
	EventCommentLike   = "comment_like"
	EventCommentUnlike = "comment_unlike"
	EventRepost        = "repost"
)

// RecordEngagement increments the counter for event.
func RecordEngagement(event string) {
	EngagementEvents.WithLabelValues(event).Inc()
}

// RecordAuth increments the counter for an auth action outcome.
func RecordAuth(action string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	AuthAttempts.WithLabelValues(action, result).Inc()
}

// DatabaseMetrics records query latency for one table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}
