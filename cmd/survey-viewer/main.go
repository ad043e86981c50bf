package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"survey-viewer/internal/catalog"
	"survey-viewer/internal/database"
	"survey-viewer/internal/filename"
	"survey-viewer/internal/handlers"
	"survey-viewer/internal/logging"
	"survey-viewer/internal/media"
	"survey-viewer/internal/memory"
	"survey-viewer/internal/metrics"
	"survey-viewer/internal/middleware"
	"survey-viewer/internal/processing"
	"survey-viewer/internal/startup"
	"survey-viewer/internal/survey"
	"survey-viewer/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout         = 30 * time.Second
	metricsCollectInterval  = time.Minute
	maxThumbnailWorkerLimit = 8
)

// app holds every long-lived component so shutdown can stop them in order.
type app struct {
	config  *startup.Config
	db      *database.Database
	writer  *database.SnapshotWriter
	repo    *catalog.Repository
	svc     *survey.Service
	thumbs  *media.ThumbnailGenerator
	monitor *memory.Monitor
	handler *handlers.Handlers
	router  *mux.Router
}

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)

	a, err := newApp(context.Background(), config)
	if err != nil {
		startup.LogFatal("Initialization failed: %v", err)
	}

	startup.LogHTTPRoutes(a.router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.RequestID(
		middleware.Logger(loggingConfig)(
			middleware.Compression(middleware.DefaultCompressionConfig())(a.router),
		),
	)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute, // large multipart uploads
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var collector *metrics.Collector
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		dbPath := ""
		if config.PersistenceEnabled {
			dbPath = config.DatabasePath
		}
		collector = metrics.NewCollector(a.svc, dbPath, metricsCollectInterval)
		collector.Start()

		metricsSrv = newMetricsServer(config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go handleShutdown(done, srv, metricsSrv, collector, a)

	a.handler.SetReady(true)
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// newApp wires the catalog, its persistence and the processing pipeline.
func newApp(ctx context.Context, config *startup.Config) (*app, error) {
	a := &app{config: config}

	decoder := filename.NewCachedDecoder(config.DecodeCacheTTL)
	repoOpts := []catalog.Option{catalog.WithDecoder(decoder.Decode)}

	var restored []catalog.Folder
	if config.PersistenceEnabled {
		dbStart := time.Now()
		db, err := database.New(ctx, config.DatabasePath)
		if err != nil {
			return nil, err
		}
		restored, err = db.Load(ctx)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		a.writer = database.NewSnapshotWriter(db)
		repoOpts = append(repoOpts, catalog.WithObserver(a.writer.Publish))

		images := 0
		for _, f := range restored {
			images += len(f.Images)
		}
		startup.LogDatabaseInit(time.Since(dbStart), len(restored), images)
	} else {
		startup.LogPersistenceDisabled()
	}

	a.repo = catalog.New(repoOpts...)
	if len(restored) > 0 {
		a.repo.Restore(restored)
	}

	retry := processing.DefaultRetryConfig()
	retry.MaxRetries = config.ProcessingRetries
	startup.LogProcessingInit(config.ProcessingDelay, retry.MaxRetries)
	ctrl := processing.NewController(a.repo,
		processing.WithDelay(config.ProcessingDelay),
		processing.WithRetry(retry),
	)

	thumbWorkers := workers.ForCPU(maxThumbnailWorkerLimit, config.ThumbnailWorkers)
	a.thumbs = media.NewThumbnailGenerator(config.ThumbnailDir, config.ThumbnailsEnabled, thumbWorkers)
	startup.LogThumbnailInit(a.thumbs.IsEnabled(), thumbWorkers)

	a.monitor = memory.NewMonitor(memory.DefaultConfig())
	a.monitor.Start()
	a.thumbs.SetBackpressure(a.monitor)

	a.svc = survey.NewService(a.repo, ctrl,
		survey.WithThumbnailer(a.thumbs),
		survey.WithDefaultUploader(config.DefaultUploader),
	)

	a.handler = handlers.New(a.svc, a.thumbs, config)
	a.router = setupRouter(a.handler)
	return a, nil
}

// close stops processing, drains thumbnails, writes the final snapshot and
// closes the database, in that order.
func (a *app) close() {
	startup.LogShutdownStep("Stopping processing")
	a.svc.Close()
	startup.LogShutdownStepComplete("Processing stopped")

	startup.LogShutdownStep("Stopping thumbnail generator")
	a.monitor.Stop()
	a.thumbs.Close()
	startup.LogShutdownStepComplete("Thumbnail generator stopped")

	if a.writer != nil {
		startup.LogShutdownStep("Writing final snapshot")
		if err := a.writer.Close(); err != nil {
			logging.Error("Final snapshot failed: %v", err)
		} else {
			startup.LogShutdownStepComplete("Final snapshot written")
		}
	}

	if a.db != nil {
		startup.LogShutdownStep("Closing database")
		if err := a.db.Close(); err != nil {
			logging.Warn("Database close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Database closed")
		}
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/uploads", h.UploadImages).Methods("POST")

	// Folders
	api.HandleFunc("/folders", h.ListFolders).Methods("GET")
	api.HandleFunc("/folders/{folderId}", h.GetFolder).Methods("GET")
	api.HandleFunc("/folders/{folderId}", h.DeleteFolder).Methods("DELETE")
	api.HandleFunc("/folders/{folderId}/favorite", h.ToggleFolderFavorite).Methods("POST")
	api.HandleFunc("/folders/{folderId}/images/{imageId}", h.DeleteImage).Methods("DELETE")
	api.HandleFunc("/folders/{folderId}/images/{imageId}/favorite", h.ToggleImageFavorite).Methods("POST")

	// Images
	api.HandleFunc("/images/{imageId}", h.GetImage).Methods("GET")
	api.HandleFunc("/images/{imageId}/process", h.ProcessImage).Methods("POST")
	api.HandleFunc("/images/{imageId}/thumbnail", h.GetThumbnail).Methods("GET", "HEAD")

	// Route-aware so labels use templates, not ids
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	return r
}

func newMetricsServer(port string) *http.Server {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:         ":" + port,
		Handler:      m,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

func handleShutdown(done chan<- struct{}, srv, metricsSrv *http.Server, collector *metrics.Collector, a *app) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	a.handler.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	a.close()

	startup.LogShutdownComplete()
}
