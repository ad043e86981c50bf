// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DATABASE_DIR: Path to the snapshot database directory (default: /database)
//   - PERSISTENCE_ENABLED: Save the catalog to SQLite and restore it on start (default: false)
//   - CACHE_DIR: Path to cache directory for thumbnails (default: /cache)
//   - PROCESSING_DELAY: Simulated measurement time as Go duration (default: 3s)
//   - PROCESSING_RETRIES: Extra measurement attempts after a failure (default: 0)
//   - DECODE_CACHE_TTL: How long decoded filenames stay cached (default: 10m)
//   - DEFAULT_UPLOADER: Uploader recorded when a request names none (default: Usuário)
//   - MAX_UPLOAD_SIZE: Maximum multipart request size, e.g. 512MiB (default: 512MiB)
//   - THUMBNAIL_WORKERS: Thumbnail worker count, 0 for automatic (default: 0)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Database directory: Required and writable only when persistence is enabled
//   - Cache directory: Optional, enables thumbnails if writable
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogDatabaseInit]: Database initialization timing and restored catalog size
//   - [LogPersistenceDisabled]: In-memory mode notice
//   - [LogProcessingInit]: Measurement delay and retry budget
//   - [LogThumbnailInit]: Thumbnail generator configuration
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	// Initialize components...
//	startup.LogProcessingInit(config.ProcessingDelay, config.ProcessingRetries)
//
//	// Start server...
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	// ... cleanup ...
//	startup.LogShutdownComplete()
package startup
