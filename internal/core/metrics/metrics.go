// Package metrics mendefinisikan collector Prometheus aplikasi.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieguide_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movieguide_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieguide_tmdb_requests_total",
			Help: "TMDB requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movieguide_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	WatchedMarks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieguide_watched_marks_total",
			Help: "Watched-state inserts by kind and result",
		},
		[]string{"kind", "result"},
	)

	MetadataLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieguide_metadata_lookups_total",
			Help: "Metadata cache-through lookups by media type and source",
		},
		[]string{"media_type", "source"},
	)
)
