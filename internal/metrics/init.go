package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"accepted", "rejected"} {
		UploadsTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"invalid_extension", "malformed_filename", "invalid_timestamp", "invalid_km", "unknown"} {
		DecodeFailuresTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"PROCESSED", "PROCESSING", "PROCESSING_ERROR"} {
		ImagesTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"folder", "image"} {
		FavoritesTotal.WithLabelValues(kind)
		DeletionsTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"MEASURING", "DONE", "ERROR"} {
		ProcessingTransitions.WithLabelValues(status)
	}
	for _, status := range []string{"DONE", "ERROR"} {
		ProcessingDuration.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "load_snapshot", "save_snapshot"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, status := range []string{"success", "error"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, reason := range []string{"queue_full", "memory"} {
		ThumbnailsSkippedTotal.WithLabelValues(reason)
	}
}
