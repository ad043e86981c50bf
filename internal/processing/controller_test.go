package processing

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"survey-viewer/internal/catalog"

	"go.uber.org/goleak"
)

const testName = "CAM1202401151030X123456L12.tif"

func assetName(i int) string {
	return fmt.Sprintf("CAM1202401151030X%06dL1.tif", i)
}

func newRepoWithImage(t *testing.T) (*catalog.Repository, catalog.Image) {
	t.Helper()
	repo := catalog.New()
	img, err := repo.Ingest(testName, "tester")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	return repo, img
}

func waitForStatus(t *testing.T, repo *catalog.Repository, imageID string, want catalog.ImageStatus) catalog.Image {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		img, err := repo.FindImage(imageID)
		if err != nil {
			t.Fatalf("FindImage(%s) failed: %v", imageID, err)
		}
		if img.Status == want {
			return img
		}
		if time.Now().After(deadline) {
			t.Fatalf("image %s status = %s, want %s", imageID, img.Status, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartMarksProcessingThenProcessed(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo, img := newRepoWithImage(t)
	ctrl := NewController(repo, WithDelay(50*time.Millisecond))
	defer ctrl.Stop()

	event, err := ctrl.Start(img.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if event.Status != catalog.EventMeasuring {
		t.Errorf("event status = %s, want MEASURING", event.Status)
	}

	got, err := repo.FindImage(img.ID)
	if err != nil {
		t.Fatalf("FindImage failed: %v", err)
	}
	if got.Status != catalog.StatusProcessing {
		t.Errorf("status right after Start = %s, want PROCESSING", got.Status)
	}
	if !ctrl.Pending(img.ID) {
		t.Error("expected image to be pending")
	}

	done := waitForStatus(t, repo, img.ID, catalog.StatusProcessed)
	if len(done.ProcessingHistory) != 2 {
		t.Fatalf("history length = %d, want 2 (QUEUED, DONE)", len(done.ProcessingHistory))
	}
	last := done.ProcessingHistory[1]
	if last.ID != event.ID {
		t.Errorf("final event id = %s, want the MEASURING event %s amended in place", last.ID, event.ID)
	}
	if last.Status != catalog.EventDone {
		t.Errorf("final event status = %s, want DONE", last.Status)
	}
	if ctrl.InFlight() != 0 {
		t.Errorf("InFlight() = %d, want 0", ctrl.InFlight())
	}
}

func TestCompletionNotBeforeDelay(t *testing.T) {
	defer goleak.VerifyNone(t)

	const delay = 200 * time.Millisecond
	repo, img := newRepoWithImage(t)
	ctrl := NewController(repo, WithDelay(delay))
	defer ctrl.Stop()

	start := time.Now()
	if _, err := ctrl.Start(img.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(delay / 2)
	mid, err := repo.FindImage(img.ID)
	if err != nil {
		t.Fatalf("FindImage failed: %v", err)
	}
	if mid.Status != catalog.StatusProcessing {
		t.Fatalf("status at half the delay = %s, want PROCESSING", mid.Status)
	}
	if last, _ := mid.LastEvent(); last.Status != catalog.EventMeasuring {
		t.Errorf("last event at half the delay = %s, want MEASURING", last.Status)
	}

	waitForStatus(t, repo, img.ID, catalog.StatusProcessed)
	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("PROCESSED after %v, want at least %v", elapsed, delay)
	}
}

func TestStartRejectsSecondStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo, img := newRepoWithImage(t)
	ctrl := NewController(repo, WithDelay(time.Hour))
	defer ctrl.Stop()

	if _, err := ctrl.Start(img.ID); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if _, err := ctrl.Start(img.ID); !errors.Is(err, ErrAlreadyProcessing) {
		t.Errorf("second Start error = %v, want ErrAlreadyProcessing", err)
	}

	got, _ := repo.FindImage(img.ID)
	if len(got.ProcessingHistory) != 2 {
		t.Errorf("history length = %d, want 2", len(got.ProcessingHistory))
	}
}

func TestStartUnknownImage(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := NewController(catalog.New(), WithDelay(time.Millisecond))
	defer ctrl.Stop()

	if _, err := ctrl.Start("img-missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Start error = %v, want ErrNotFound", err)
	}
}

func TestRestartAfterCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo, img := newRepoWithImage(t)
	ctrl := NewController(repo, WithDelay(10*time.Millisecond))
	defer ctrl.Stop()

	if _, err := ctrl.Start(img.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForStatus(t, repo, img.ID, catalog.StatusProcessed)

	for ctrl.Pending(img.ID) {
		time.Sleep(time.Millisecond)
	}
	if _, err := ctrl.Start(img.ID); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	got := waitForStatus(t, repo, img.ID, catalog.StatusProcessed)
	if len(got.ProcessingHistory) != 3 {
		t.Errorf("history length = %d, want 3", len(got.ProcessingHistory))
	}
}

func TestCancelOnDeleteDoesNotResurrect(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo, img := newRepoWithImage(t)
	ctrl := NewController(repo, WithDelay(30*time.Millisecond))
	defer ctrl.Stop()

	if _, err := ctrl.Start(img.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := repo.DeleteImage(img.FolderID, img.ID); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	ctrl.Cancel(img.ID)

	time.Sleep(80 * time.Millisecond)

	if _, err := repo.FindImage(img.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("FindImage after delete = %v, want ErrNotFound", err)
	}
	if ctrl.InFlight() != 0 {
		t.Errorf("InFlight() = %d, want 0", ctrl.InFlight())
	}
}

func TestCompletionAfterDeleteIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo, img := newRepoWithImage(t)
	var completions atomic.Int32
	ctrl := NewController(repo,
		WithDelay(20*time.Millisecond),
		WithCompletion(func(string, catalog.EventStatus) { completions.Add(1) }),
	)
	defer ctrl.Stop()

	if _, err := ctrl.Start(img.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Folder deleted without retracting the task
	if _, err := repo.DeleteFolder(img.FolderID); err != nil {
		t.Fatalf("DeleteFolder failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Pending(img.ID) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if len(repo.Folders()) != 0 {
		t.Errorf("expected catalog to stay empty, got %d folders", len(repo.Folders()))
	}
	if completions.Load() != 0 {
		t.Errorf("completion hook ran %d times for a deleted image", completions.Load())
	}
}

func TestFailingMeasurerRecordsError(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo, img := newRepoWithImage(t)
	ctrl := NewController(repo, WithMeasurer(MeasureFunc(func(context.Context, catalog.Image) error {
		return errors.New("sensor offline")
	})))
	defer ctrl.Stop()

	if _, err := ctrl.Start(img.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	got := waitForStatus(t, repo, img.ID, catalog.StatusProcessingError)
	last, _ := got.LastEvent()
	if last.Status != catalog.EventError {
		t.Errorf("last event = %s, want ERROR", last.Status)
	}
	if last.Message != "sensor offline" {
		t.Errorf("last event message = %q, want %q", last.Message, "sensor offline")
	}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name       string
		failures   int32
		err        error
		maxRetries int
		wantStatus catalog.ImageStatus
		wantCalls  int32
	}{
		{"succeeds after transient failures", 2, errors.New("busy"), 3, catalog.StatusProcessed, 3},
		{"gives up after max retries", 10, errors.New("busy"), 2, catalog.StatusProcessingError, 3},
		{"permanent error not retried", 10, Permanent(errors.New("corrupt tiff")), 5, catalog.StatusProcessingError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			repo, img := newRepoWithImage(t)
			var calls atomic.Int32
			measurer := MeasureFunc(func(context.Context, catalog.Image) error {
				if calls.Add(1) <= tt.failures {
					return tt.err
				}
				return nil
			})
			ctrl := NewController(repo,
				WithMeasurer(measurer),
				WithRetry(RetryConfig{MaxRetries: tt.maxRetries, InitialBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}),
			)
			defer ctrl.Stop()

			if _, err := ctrl.Start(img.ID); err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			waitForStatus(t, repo, img.ID, tt.wantStatus)

			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("measurer calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestPanickingMeasurerRecordsError(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo, img := newRepoWithImage(t)
	ctrl := NewController(repo, WithMeasurer(MeasureFunc(func(context.Context, catalog.Image) error {
		panic("boom")
	})))
	defer ctrl.Stop()

	if _, err := ctrl.Start(img.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got := waitForStatus(t, repo, img.ID, catalog.StatusProcessingError)
	last, _ := got.LastEvent()
	if last.Message != "measurer panic: boom" {
		t.Errorf("message = %q", last.Message)
	}
}

func TestFail(t *testing.T) {
	t.Run("pending image", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		repo, img := newRepoWithImage(t)
		ctrl := NewController(repo, WithDelay(time.Hour))
		defer ctrl.Stop()

		if _, err := ctrl.Start(img.ID); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if err := ctrl.Fail(img.ID, errors.New("lost connection")); err != nil {
			t.Fatalf("Fail failed: %v", err)
		}

		got, _ := repo.FindImage(img.ID)
		if got.Status != catalog.StatusProcessingError {
			t.Errorf("status = %s, want PROCESSING_ERROR", got.Status)
		}
		if len(got.ProcessingHistory) != 2 {
			t.Errorf("history length = %d, want 2", len(got.ProcessingHistory))
		}
		last, _ := got.LastEvent()
		if last.Message != "lost connection" {
			t.Errorf("message = %q, want %q", last.Message, "lost connection")
		}
		if ctrl.Pending(img.ID) {
			t.Error("image still pending after Fail")
		}
	})

	t.Run("idle image", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		repo, img := newRepoWithImage(t)
		ctrl := NewController(repo)
		defer ctrl.Stop()

		if err := ctrl.Fail(img.ID, nil); err != nil {
			t.Fatalf("Fail failed: %v", err)
		}
		got, _ := repo.FindImage(img.ID)
		if len(got.ProcessingHistory) != 2 {
			t.Fatalf("history length = %d, want 2", len(got.ProcessingHistory))
		}
		last, _ := got.LastEvent()
		if last.Status != catalog.EventError || last.Message != "processing failed" {
			t.Errorf("last event = %+v", last)
		}
	})

	t.Run("unknown image", func(t *testing.T) {
		ctrl := NewController(catalog.New())
		defer ctrl.Stop()

		if err := ctrl.Fail("img-missing", nil); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("Fail error = %v, want ErrNotFound", err)
		}
	})
}

func TestStopCancelsPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := catalog.New()
	ctrl := NewController(repo, WithDelay(time.Hour))

	var ids []string
	for i := 0; i < 3; i++ {
		img, err := repo.Ingest(assetName(i), "tester")
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
		if _, err := ctrl.Start(img.ID); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		ids = append(ids, img.ID)
	}

	ctrl.Stop()

	if ctrl.InFlight() != 0 {
		t.Errorf("InFlight() after Stop = %d, want 0", ctrl.InFlight())
	}
	for _, id := range ids {
		img, _ := repo.FindImage(id)
		if img.Status != catalog.StatusProcessing {
			t.Errorf("image %s status = %s, want PROCESSING to be left as is", id, img.Status)
		}
	}
	if _, err := ctrl.Start(ids[0]); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after Stop error = %v, want ErrStopped", err)
	}
}

func TestConcurrentImagesAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := catalog.New()
	ctrl := NewController(repo, WithDelay(40*time.Millisecond))
	defer ctrl.Stop()

	var ids []string
	for i := 0; i < 5; i++ {
		img, err := repo.Ingest(assetName(i), "tester")
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
		if _, err := ctrl.Start(img.ID); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		ids = append(ids, img.ID)
	}

	cancelled := ids[2]
	ctrl.Cancel(cancelled)

	for _, id := range ids {
		if id == cancelled {
			continue
		}
		waitForStatus(t, repo, id, catalog.StatusProcessed)
	}

	img, _ := repo.FindImage(cancelled)
	if img.Status != catalog.StatusProcessing {
		t.Errorf("cancelled image status = %s, want PROCESSING", img.Status)
	}
}

func TestCompletionHook(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo, img := newRepoWithImage(t)
	got := make(chan catalog.EventStatus, 1)
	ctrl := NewController(repo,
		WithDelay(5*time.Millisecond),
		WithCompletion(func(id string, status catalog.EventStatus) {
			if id == img.ID {
				got <- status
			}
		}),
	)
	defer ctrl.Stop()

	if _, err := ctrl.Start(img.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case status := <-got:
		if status != catalog.EventDone {
			t.Errorf("completion status = %s, want DONE", status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("completion hook was not called")
	}
}

func TestDelayMeasurerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DelayMeasurer{Delay: time.Hour}.Measure(ctx, catalog.Image{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Measure error = %v, want context.Canceled", err)
	}
}
