package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_db_queries_total",
			Help: "Total number of catalog queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_db_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_db_transaction_duration_seconds",
			Help:    "Catalog transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"outcome"}, // "commit" or "rollback"
	)
)

// Scan / reconciliation metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_scan_runs_total",
			Help: "Total number of library scans",
		},
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_scan_errors_total",
			Help: "Total number of failed library scans",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_scan_last_run_timestamp",
			Help: "Timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_scan_last_run_duration_seconds",
			Help: "Duration of the last completed scan in seconds",
		},
	)

	ScanFilesSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_scan_files_seen_total",
			Help: "Total number of files seen by scans",
		},
	)
)

// Thumbnail worker metrics
var (
	ThumbsQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_thumbs_queued_total",
			Help: "Total number of thumbnail generation requests accepted",
		},
	)

	ThumbsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_thumbs_dropped_total",
			Help: "Total number of thumbnail requests dropped due to a full queue",
		},
	)

	ThumbsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_thumbs_generated_total",
			Help: "Total number of thumbnails generated",
		},
	)

	ThumbsErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_thumbs_errors_total",
			Help: "Total number of thumbnail generation failures",
		},
	)
)
