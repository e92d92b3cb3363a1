package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Feed metrics
	FeedPagesFetched      prometheus.CounterVec
	FeedDuplicatesDropped prometheus.CounterVec
	FeedFetchDuration     prometheus.HistogramVec

	// Social graph cache metrics
	GraphCacheHitsTotal   prometheus.CounterVec
	GraphCacheMissesTotal prometheus.CounterVec

	// Classifier metrics
	ClassifierRequestsTotal  prometheus.CounterVec
	ClassifierFallbacksTotal prometheus.CounterVec

	// Engagement metrics
	ReactionsToggled prometheus.CounterVec
	SharesRecorded   prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of in-flight HTTP requests",
				},
				[]string{"method", "path"},
			),
			FeedPagesFetched: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_pages_fetched_total",
					Help: "Feed pages fetched by view",
				},
				[]string{"view"},
			),
			FeedDuplicatesDropped: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_duplicates_dropped_total",
					Help: "Posts dropped by feed dedupe",
				},
				[]string{"view"},
			),
			FeedFetchDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_fetch_duration_seconds",
					Help:    "Feed page fetch latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"view"},
			),
			GraphCacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "graph_cache_hits_total",
					Help: "Social graph cache hits",
				},
				[]string{"key_type"},
			),
			GraphCacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "graph_cache_misses_total",
					Help: "Social graph cache misses",
				},
				[]string{"key_type"},
			),
			ClassifierRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "classifier_requests_total",
					Help: "Classifier requests by outcome",
				},
				[]string{"outcome"},
			),
			ClassifierFallbacksTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "classifier_fallbacks_total",
					Help: "Posts labeled with the fallback category",
				},
				[]string{"reason"},
			),
			ReactionsToggled: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reactions_toggled_total",
					Help: "Reaction toggles by direction",
				},
				[]string{"direction"},
			),
			SharesRecorded: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "shares_recorded_total",
					Help: "Share events recorded",
				},
				[]string{},
			),
			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Server errors by route",
				},
				[]string{"path"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing if needed
func Get() *Metrics {
	return Initialize()
}
