package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts created posts by category.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ainews_posts_created_total",
		Help: "Total number of posts created",
	}, []string{"category"})

	// ReactionsToggled counts like/bookmark toggles by subject and direction.
	ReactionsToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ainews_reactions_toggled_total",
		Help: "Total number of like and bookmark toggles",
	}, []string{"kind", "action"})

	// CascadeDeletes counts rows removed by cascading deletes.
	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ainews_cascade_deleted_rows_total",
		Help: "Rows removed while cascading a post or comment delete",
	}, []string{"entity"})

	// RepoQueryLatency records repository call latency per backend.
	RepoQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ainews_repository_latency_seconds",
		Help:    "Repository call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	// FeedEventsDropped counts realtime events dropped for slow clients.
	FeedEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ainews_feed_events_dropped_total",
		Help: "Realtime feed events dropped because a client buffer was full",
	})
)

// TrackQuery returns a func that records the elapsed time when called (e.g. defer).
func TrackQuery(backend, operation string) func() {
	start := time.Now()
	return func() {
		RepoQueryLatency.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	}
}
