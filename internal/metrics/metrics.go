package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_viewer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_viewer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_viewer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Upload and catalog metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_viewer_uploads_total",
			Help: "Total number of uploaded files by outcome",
		},
		[]string{"status"}, // "accepted", "rejected"
	)

	DecodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_viewer_decode_failures_total",
			Help: "Total number of filenames that failed to decode, by kind",
		},
		[]string{"kind"},
	)

	FoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_viewer_folders_total",
			Help: "Number of asset folders in the catalog",
		},
	)

	ImagesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "survey_viewer_images_total",
			Help: "Number of images in the catalog by coarse status",
		},
		[]string{"status"},
	)

	FavoritesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "survey_viewer_favorites_total",
			Help: "Number of favorites by record kind",
		},
		[]string{"kind"}, // "folder", "image"
	)

	DeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_viewer_deletions_total",
			Help: "Total number of deleted records by kind",
		},
		[]string{"kind"},
	)
)

// Processing metrics
var (
	ProcessingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_viewer_processing_transitions_total",
			Help: "Total number of processing events recorded, by status",
		},
		[]string{"status"},
	)

	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_viewer_processing_duration_seconds",
			Help:    "Time from MEASURING to the final outcome",
			Buckets: []float64{0.1, 0.5, 1, 2, 3, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	ProcessingInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_viewer_processing_in_flight",
			Help: "Number of measurements currently pending",
		},
	)

	ProcessingRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_viewer_processing_retries_total",
			Help: "Total number of measurement retries",
		},
	)
)

// Snapshot store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_viewer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_viewer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "survey_viewer_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)

	SnapshotsCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_viewer_snapshots_coalesced_total",
			Help: "Snapshots replaced by a newer one before being written",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_viewer_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "survey_viewer_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_viewer_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_viewer_memory_paused",
			Help: "1 while thumbnail work is paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_viewer_memory_gc_pauses_total",
			Help: "Number of times memory pressure paused thumbnail work",
		},
	)

	ThumbnailsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_viewer_thumbnails_skipped_total",
			Help: "Thumbnails not generated, by reason",
		},
		[]string{"reason"}, // "queue_full", "memory"
	)
)

// AppInfo exposes build information as labels
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "survey_viewer_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
