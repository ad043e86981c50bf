package handlers

import (
	"net/http"
	"runtime"
	"time"

	"survey-viewer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Catalog summary
	Folders    int `json:"folders"`
	Images     int `json:"images"`
	Processing int `json:"processing"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.svc.GetStats()
	ready := h.ready.Load()

	response := HealthResponse{
		Status:       statusStarting,
		Ready:        ready,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		Folders:      stats.Folders,
		Images:       stats.Images,
		Processing:   stats.Processing,
	}

	status := http.StatusServiceUnavailable
	if ready {
		response.Status = statusHealthy
		status = http.StatusOK
	}

	writeJSONStatusCode(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		writeJSONStatusCode(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatusCode(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
