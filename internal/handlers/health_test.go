package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"survey-viewer/internal/startup"
)

// =============================================================================
// Health, liveness and readiness
// =============================================================================

func TestHealthCheck(t *testing.T) {
	h, svc := newTestHandlers(t, nil)
	mustAdd(t, svc, nameA1)
	mustAdd(t, svc, nameB1)

	tests := []struct {
		name       string
		ready      bool
		wantStatus int
		wantState  string
	}{
		{"starting", false, http.StatusServiceUnavailable, statusStarting},
		{"healthy", true, http.StatusOK, statusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.SetReady(tt.ready)

			w := serve(h.HealthCheck, "GET", "/health", nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var resp HealthResponse
			decodeBody(t, w, &resp)
			if resp.Status != tt.wantState || resp.Ready != tt.ready {
				t.Errorf("status/ready = %s/%v, want %s/%v", resp.Status, resp.Ready, tt.wantState, tt.ready)
			}
			if resp.Folders != 2 || resp.Images != 2 || resp.Processing != 2 {
				t.Errorf("catalog summary = %d/%d/%d, want 2/2/2", resp.Folders, resp.Images, resp.Processing)
			}
			if resp.Version != startup.Version || resp.GoVersion == "" || resp.NumCPU == 0 {
				t.Errorf("system info missing: %+v", resp)
			}
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	h, _ := newTestHandlers(t, nil)
	h.SetReady(false)

	w := serve(h.LivenessCheck, "GET", "/livez", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 even when not ready", w.Code)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["status"] != "alive" {
		t.Errorf("status = %q, want alive", body["status"])
	}

	w = serve(h.LivenessCheck, "HEAD", "/livez", nil)
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD = %d with %d body bytes, want 200 and none", w.Code, w.Body.Len())
	}
}

func TestReadinessCheck(t *testing.T) {
	h, _ := newTestHandlers(t, nil)

	tests := []struct {
		ready      bool
		wantStatus int
		wantBody   string
	}{
		{false, http.StatusServiceUnavailable, "not_ready"},
		{true, http.StatusOK, "ready"},
	}

	for _, tt := range tests {
		h.SetReady(tt.ready)
		w := serve(h.ReadinessCheck, "GET", "/readyz", nil)
		if w.Code != tt.wantStatus {
			t.Errorf("ready=%v: status = %d, want %d", tt.ready, w.Code, tt.wantStatus)
		}
		var body map[string]string
		decodeBody(t, w, &body)
		if body["status"] != tt.wantBody {
			t.Errorf("ready=%v: status = %q, want %q", tt.ready, body["status"], tt.wantBody)
		}
	}
}

// =============================================================================
// Version and stats
// =============================================================================

func TestGetVersion(t *testing.T) {
	t.Parallel()

	h := &Handlers{}

	req := httptest.NewRequest(http.MethodGet, "/version", http.NoBody)
	w := httptest.NewRecorder()

	h.GetVersion(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Expected Cache-Control no-cache, got %q", cc)
	}

	var response startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Version != startup.Version || response.OS == "" {
		t.Errorf("unexpected build info %+v", response)
	}
}

func TestGetStats(t *testing.T) {
	h, svc := newTestHandlers(t, nil)
	a1 := mustAdd(t, svc, nameA1)
	mustAdd(t, svc, nameA2)
	mustAdd(t, svc, nameB1)
	if _, err := svc.ToggleFolderFavorite(a1.FolderID); err != nil {
		t.Fatal(err)
	}

	var resp StatsResponse
	decodeBody(t, serve(h.GetStats, "GET", "/api/stats", nil), &resp)

	want := StatsResponse{Folders: 2, Images: 3, FavoriteFolders: 1, Processing: 3}
	if resp != want {
		t.Errorf("stats = %+v, want %+v", resp, want)
	}
}

func TestMetricsHandler(t *testing.T) {
	h := &Handlers{}

	w := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
