package media

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"survey-viewer/internal/logging"
	"survey-viewer/internal/metrics"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailSize is the bounding box of generated thumbnails.
	ThumbnailSize = 320

	thumbnailQuality = 80
	queuePerWorker   = 8
)

var (
	// ErrThumbnailsDisabled is returned when the generator was built disabled.
	ErrThumbnailsDisabled = errors.New("thumbnails disabled")
	// ErrThumbnailNotFound is returned when no thumbnail exists for an image.
	ErrThumbnailNotFound = errors.New("thumbnail not found")
)

// Backpressure lets a memory monitor hold or refuse thumbnail work.
type Backpressure interface {
	ShouldThrottle() bool
	WaitIfPaused() bool
}

type thumbnailJob struct {
	imageID string
	data    []byte
}

// ThumbnailGenerator renders JPEG thumbnails of uploaded images into a cache
// directory using a fixed pool of workers.
type ThumbnailGenerator struct {
	cacheDir     string
	enabled      bool
	backpressure Backpressure

	jobs   chan thumbnailJob
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool

	// queued counts jobs per image id; removed holds queued ids whose image
	// was deleted, so their jobs are dropped instead of written.
	queued  map[string]int
	removed map[string]struct{}
}

// NewThumbnailGenerator creates a generator and starts its workers. A
// generator whose cache directory cannot be created is disabled.
func NewThumbnailGenerator(cacheDir string, enabled bool, workers int) *ThumbnailGenerator {
	if enabled {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			logging.Warn("ThumbnailGenerator: failed to create cache dir %s: %v", cacheDir, err)
			enabled = false
		}
	}
	if workers < 1 {
		workers = 1
	}

	t := &ThumbnailGenerator{
		cacheDir: cacheDir,
		enabled:  enabled,
		jobs:     make(chan thumbnailJob, workers*queuePerWorker),
		queued:   make(map[string]int),
		removed:  make(map[string]struct{}),
	}

	if !enabled {
		logging.Debug("ThumbnailGenerator: disabled")
		return t
	}

	logging.Debug("ThumbnailGenerator: enabled, cache dir: %s, workers: %d", cacheDir, workers)
	for i := 0; i < workers; i++ {
		t.wg.Add(1)
		go t.worker()
	}
	return t
}

// IsEnabled reports whether thumbnails are generated.
func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// Accepting reports whether Submit would currently take work. Callers use it
// to avoid reading upload content that would only be dropped.
func (t *ThumbnailGenerator) Accepting() bool {
	if !t.enabled {
		return false
	}
	if t.backpressure != nil && t.backpressure.ShouldThrottle() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// SetBackpressure attaches a memory monitor. Call before the first Submit.
func (t *ThumbnailGenerator) SetBackpressure(b Backpressure) {
	t.backpressure = b
}

func (t *ThumbnailGenerator) worker() {
	defer t.wg.Done()
	for job := range t.jobs {
		t.run(job)
		t.done(job.imageID)
	}
}

func (t *ThumbnailGenerator) run(job thumbnailJob) {
	if t.backpressure != nil && !t.backpressure.WaitIfPaused() {
		metrics.ThumbnailsSkippedTotal.WithLabelValues("memory").Inc()
		return
	}
	if t.isRemoved(job.imageID) {
		logging.Debug("Image %s removed, dropping queued thumbnail", job.imageID)
		return
	}
	if err := t.Generate(job.imageID, job.data); err != nil {
		logging.Warn("Thumbnail generation failed for %s: %v", job.imageID, err)
	}
}

func (t *ThumbnailGenerator) isRemoved(imageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.removed[imageID]
	return ok
}

// done forgets a finished job; the removed mark goes with the last one.
func (t *ThumbnailGenerator) done(imageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.queued[imageID]--; t.queued[imageID] <= 0 {
		delete(t.queued, imageID)
		delete(t.removed, imageID)
	}
}

// Submit queues a thumbnail for background generation. It never blocks and
// reports false when the generator is disabled, closed, saturated or under
// memory pressure.
func (t *ThumbnailGenerator) Submit(imageID string, data []byte) bool {
	if !t.enabled || len(data) == 0 {
		return false
	}
	if t.backpressure != nil && t.backpressure.ShouldThrottle() {
		logging.Debug("Memory pressure, skipping thumbnail for %s", imageID)
		metrics.ThumbnailsSkippedTotal.WithLabelValues("memory").Inc()
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}

	select {
	case t.jobs <- thumbnailJob{imageID: imageID, data: data}:
		t.queued[imageID]++
		return true
	default:
		logging.Warn("Thumbnail queue full, skipping %s", imageID)
		metrics.ThumbnailsSkippedTotal.WithLabelValues("queue_full").Inc()
		return false
	}
}

// Generate renders and caches the thumbnail of one image synchronously.
func (t *ThumbnailGenerator) Generate(imageID string, data []byte) error {
	if !t.enabled {
		return ErrThumbnailsDisabled
	}

	start := time.Now()
	err := t.generate(imageID, data)
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	return nil
}

func (t *ThumbnailGenerator) generate(imageID string, data []byte) error {
	path, err := t.cachePath(imageID)
	if err != nil {
		return err
	}

	img, err := LoadImageConstrained(data, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return err
	}

	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	// Write to a temp file first so readers never see a partial JPEG
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	// Checked under the lock Remove takes, so a removal either sees the
	// file or stops it from being stored.
	t.mu.Lock()
	if _, gone := t.removed[imageID]; gone {
		t.mu.Unlock()
		_ = os.Remove(tmp)
		return nil
	}
	err = os.Rename(tmp, path)
	t.mu.Unlock()
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}

	logging.Debug("Thumbnail cached: %s", path)
	return nil
}

// GetThumbnail returns the cached JPEG for an image.
func (t *ThumbnailGenerator) GetThumbnail(imageID string) ([]byte, error) {
	if !t.enabled {
		return nil, ErrThumbnailsDisabled
	}

	path, err := t.cachePath(imageID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("image %s: %w", imageID, ErrThumbnailNotFound)
	}
	return data, err
}

// Remove deletes cached thumbnails and drops jobs still queued for the same
// images. Missing files are ignored.
func (t *ThumbnailGenerator) Remove(imageIDs ...string) {
	if !t.enabled {
		return
	}

	t.mu.Lock()
	for _, id := range imageIDs {
		if t.queued[id] > 0 {
			t.removed[id] = struct{}{}
		}
	}
	t.mu.Unlock()

	for _, id := range imageIDs {
		path, err := t.cachePath(id)
		if err != nil {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Failed to remove thumbnail %s: %v", path, err)
		}
	}
}

// Close stops accepting work, drains the queue and waits for the workers.
func (t *ThumbnailGenerator) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.jobs)
	t.mu.Unlock()

	t.wg.Wait()
}

func (t *ThumbnailGenerator) cachePath(imageID string) (string, error) {
	if imageID == "" || strings.ContainsAny(imageID, `/\`) || strings.Contains(imageID, "..") {
		return "", fmt.Errorf("invalid image id %q", imageID)
	}
	return filepath.Join(t.cacheDir, imageID+".jpg"), nil
}
