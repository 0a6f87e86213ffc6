package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and path
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taikoweb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taikoweb_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// RequestInProgress counts HTTP requests currently being processed
	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taikoweb_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "path"},
	)

	// RateLimiterRejections counts rejected requests due to rate limiting
	RateLimiterRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taikoweb_rate_limiter_rejections_total",
			Help: "Total number of requests rejected by rate limiter",
		},
		[]string{"route"},
	)

	// DatabaseOperationDuration measures database operation duration
	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taikoweb_db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// MemoryStats tracks memory usage stats
	MemoryStats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taikoweb_memory_stats_bytes",
			Help: "Memory statistics in bytes",
		},
		[]string{"type"},
	)

	// GoroutineCount tracks the number of goroutines
	GoroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taikoweb_goroutine_count",
			Help: "Number of goroutines",
		},
	)

	// CacheHits counts the number of cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taikoweb_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses counts the number of cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taikoweb_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// IngestionsTotal counts finished song ingestions by outcome
	IngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taikoweb_ingestions_total",
			Help: "Total number of song ingestions by outcome",
		},
		[]string{"outcome"}, // "success" or the error kind
	)

	// IngestionDuration measures a full pipeline run
	IngestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taikoweb_ingestion_duration_seconds",
			Help:    "Song ingestion duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	// ExtractedBytes observes the decompressed size of accepted archives
	ExtractedBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taikoweb_extracted_bytes",
			Help:    "Decompressed size of extracted song archives",
			Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8),
		},
	)

	// UploadsInProgress counts archives currently staged or extracting
	UploadsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taikoweb_uploads_in_progress",
			Help: "Number of uploads currently being staged",
		},
	)

	// StagingDirsRemoved counts staging directories removed by the stale sweeper
	StagingDirsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taikoweb_staging_dirs_removed_total",
			Help: "Total number of orphaned staging directories removed",
		},
	)
)

// RecordDBOperation records the duration of a database operation
func RecordDBOperation(operation string, table string, startTime time.Time) {
	duration := time.Since(startTime).Seconds()
	DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordIngestion records the outcome and duration of a pipeline run
func RecordIngestion(outcome string, startTime time.Time) {
	IngestionsTotal.WithLabelValues(outcome).Inc()
	IngestionDuration.WithLabelValues(outcome).Observe(time.Since(startTime).Seconds())
}
