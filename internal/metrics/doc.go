// Package metrics provides Prometheus instrumentation for the survey-viewer application.
//
// All metrics are registered at package init through promauto and are prefixed
// with "survey_viewer_" to avoid naming collisions with other applications.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Catalog Metrics
//
//   - UploadsTotal: Counter of uploaded files by outcome
//   - DecodeFailuresTotal: Counter of rejected filenames by failure kind
//   - FoldersTotal, ImagesTotal, FavoritesTotal: Gauges refreshed by the Collector
//   - DeletionsTotal: Counter of deleted folders and images
//
// ## Processing Metrics
//
//   - ProcessingTransitions: Counter of recorded events by status
//   - ProcessingDuration: Histogram of measurement time by final status
//   - ProcessingInFlight: Gauge of pending measurements
//   - ProcessingRetries: Counter of measurement retries
//
// ## Snapshot Store Metrics
//
//   - DBQueryTotal, DBQueryDuration: SQLite operations by name
//   - DBSizeBytes: Size of the database files (main, WAL, SHM)
//   - SnapshotsCoalesced: Snapshots superseded before they were written
//
// ## Thumbnail Metrics
//
//   - ThumbnailGenerationsTotal, ThumbnailGenerationDuration
//
// # Collector
//
// Gauges derived from catalog state are not updated inline. A Collector polls
// a StatsProvider on an interval:
//
//	collector := metrics.NewCollector(repo, dbPath, 30*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
