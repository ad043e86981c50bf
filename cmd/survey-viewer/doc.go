// Package main provides the entry point for the Survey Viewer service.
//
// Survey Viewer catalogs aerial-survey TIFF images. Each uploaded file is
// filed under an asset folder decoded from its name, carries a processing
// history, and can be browsed, marked favorite or deleted through a JSON API.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Snapshot Restore: When PERSISTENCE_ENABLED is set, opens the SQLite
//     snapshot store and restores the catalog; measurements cut short by the
//     previous shutdown are recorded as errors
//  3. Component Initialization:
//     - Catalog repository with a memoised filename decoder
//     - Processing controller with the configured measurement delay and retries
//     - Thumbnail generator sized to the available CPUs
//     - Metrics collector
//  4. HTTP Server Setup: Configures routes, middleware, and starts server
//  5. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - /api/uploads: multipart batch upload
//     - /api/folders: list, search, delete and favorite folders and their images
//     - /api/images: lookup, start processing, thumbnails
//     - /health, /healthz, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
// See package startup for the full list. The most common are:
//
//   - PORT: Main HTTP server port (default: 8080)
//   - PERSISTENCE_ENABLED: Keep the catalog across restarts (default: false)
//   - DATABASE_DIR: Directory for the SQLite snapshot store
//   - CACHE_DIR: Directory for thumbnails
//   - PROCESSING_DELAY: Simulated measurement time (default: 3s)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - MEMORY_LIMIT: Container memory limit; sets GOMEMLIMIT and enables
//     thumbnail backpressure
//
// # Graceful Shutdown
//
// The application handles SIGINT and SIGTERM signals gracefully:
//
//  1. Report not ready and stop accepting new HTTP requests
//  2. Stop metrics collector and metrics server
//  3. Cancel pending measurements
//  4. Stop thumbnail generator (queued work completes)
//  5. Write the final catalog snapshot
//  6. Close database connections
//
// # Build Requirements
//
// The SQLite driver needs CGO:
//
//	CGO_ENABLED=1 go build -o survey-viewer ./cmd/survey-viewer
//
// # Related Packages
//
//   - [survey-viewer/internal/filename]: Filename metadata decoding
//   - [survey-viewer/internal/catalog]: Folder and image repository
//   - [survey-viewer/internal/processing]: Processing lifecycle
//   - [survey-viewer/internal/survey]: Operations composing the above
//   - [survey-viewer/internal/memory]: GOMEMLIMIT and thumbnail backpressure
//   - [survey-viewer/internal/database]: SQLite snapshot store
//   - [survey-viewer/internal/handlers]: HTTP request handlers
//   - [survey-viewer/internal/middleware]: HTTP middleware (logging, metrics, compression)
//   - [survey-viewer/internal/startup]: Configuration and initialization
package main
