package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	// Check that all fields are populated
	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
			setEnv:       false,
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is empty",
			key:          "TEST_EMPTY_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
			setEnv:       true,
		},
		{
			name:         "Keeps non-ASCII values",
			key:          "TEST_UPLOADER_VAR",
			defaultValue: "x",
			envValue:     "Usuário",
			want:         "Usuário",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				// Ensure the variable is not set
				os.Unsetenv(tt.key)
				t.Cleanup(func() {
					os.Unsetenv(tt.key)
				})
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cacheDir := t.TempDir()
	for _, key := range []string{
		"PORT", "METRICS_PORT", "METRICS_ENABLED", "PERSISTENCE_ENABLED",
		"PROCESSING_DELAY", "PROCESSING_RETRIES", "DECODE_CACHE_TTL",
		"DEFAULT_UPLOADER", "MAX_UPLOAD_SIZE", "THUMBNAIL_WORKERS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("CACHE_DIR", cacheDir)
	t.Setenv("DATABASE_DIR", filepath.Join(t.TempDir(), "db"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != "8080" || cfg.MetricsPort != "9090" {
		t.Errorf("ports = %s/%s, want 8080/9090", cfg.Port, cfg.MetricsPort)
	}
	if !cfg.MetricsEnabled {
		t.Error("metrics should be enabled by default")
	}
	if cfg.PersistenceEnabled {
		t.Error("persistence should be disabled by default")
	}
	if cfg.ProcessingDelay != DefaultProcessingDelay {
		t.Errorf("ProcessingDelay = %v, want %v", cfg.ProcessingDelay, DefaultProcessingDelay)
	}
	if cfg.DecodeCacheTTL != DefaultDecodeCacheTTL {
		t.Errorf("DecodeCacheTTL = %v, want %v", cfg.DecodeCacheTTL, DefaultDecodeCacheTTL)
	}
	if cfg.DefaultUploader != DefaultUploader {
		t.Errorf("DefaultUploader = %q, want %q", cfg.DefaultUploader, DefaultUploader)
	}
	if cfg.MaxUploadSize != DefaultMaxUploadSize {
		t.Errorf("MaxUploadSize = %d, want %d", cfg.MaxUploadSize, DefaultMaxUploadSize)
	}
	if cfg.ThumbnailDir != filepath.Join(cacheDir, "thumbnails") {
		t.Errorf("ThumbnailDir = %s", cfg.ThumbnailDir)
	}
	if !cfg.ThumbnailsEnabled {
		t.Error("thumbnails should be enabled with a writable cache dir")
	}

	// Database dir is not touched while persistence is off
	if _, err := os.Stat(cfg.DatabaseDir); !os.IsNotExist(err) {
		t.Errorf("database dir should not be created, stat err = %v", err)
	}
}

func TestLoadConfigPersistence(t *testing.T) {
	dbDir := filepath.Join(t.TempDir(), "db")
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("PERSISTENCE_ENABLED", "true")
	t.Setenv("PROCESSING_DELAY", "250ms")
	t.Setenv("PROCESSING_RETRIES", "-2")
	t.Setenv("MAX_UPLOAD_SIZE", "64MiB")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !cfg.PersistenceEnabled {
		t.Fatal("persistence should be enabled")
	}
	if cfg.DatabasePath != filepath.Join(dbDir, "survey.db") {
		t.Errorf("DatabasePath = %s", cfg.DatabasePath)
	}
	if info, err := os.Stat(dbDir); err != nil || !info.IsDir() {
		t.Errorf("database dir not created: %v", err)
	}
	if cfg.ProcessingDelay != 250*time.Millisecond {
		t.Errorf("ProcessingDelay = %v, want 250ms", cfg.ProcessingDelay)
	}
	if cfg.ProcessingRetries != 0 {
		t.Errorf("negative retries should clamp to 0, got %d", cfg.ProcessingRetries)
	}
	if cfg.MaxUploadSize != 64<<20 {
		t.Errorf("MaxUploadSize = %d, want %d", cfg.MaxUploadSize, 64<<20)
	}
}

func TestLoadConfigDatabasePathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", file)
	t.Setenv("PERSISTENCE_ENABLED", "true")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error when DATABASE_DIR is a file")
	}
}

func TestRouteInfo(t *testing.T) {
	route := RouteInfo{
		Method: "GET",
		Path:   "/api/folders",
		Name:   "listFolders",
	}

	if route.Method != "GET" {
		t.Errorf("Expected Method=GET, got %s", route.Method)
	}
	if route.Path != "/api/folders" {
		t.Errorf("Expected Path=/api/folders, got %s", route.Path)
	}
	if route.Name != "listFolders" {
		t.Errorf("Expected Name=listFolders, got %s", route.Name)
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/folders", noop).Methods(http.MethodGet).Name("listFolders")
	api.HandleFunc("/images/{id}", noop).Methods(http.MethodGet, http.MethodDelete)
	r.HandleFunc("/health", noop)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}

	found := make(map[string]bool)
	for _, route := range routes {
		found[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /api/folders",
		"GET /api/images/{id}",
		"DELETE /api/images/{id}",
		"* /health",
	} {
		if !found[want] {
			t.Errorf("route %q not found in %v", want, routes)
		}
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/folders", "api/folders"},
		{"/api/folders/{id}/favorite", "api/folders"},
		{"/api/images/{id}", "api/images"},
		{"/health", "health"},
		{"/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRouteGroup(tt.path); got != tt.want {
				t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
