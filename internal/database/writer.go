package database

import (
	"context"
	"sync"

	"survey-viewer/internal/catalog"
	"survey-viewer/internal/logging"
	"survey-viewer/internal/metrics"
)

// Saver persists a whole catalog snapshot.
type Saver interface {
	Save(ctx context.Context, folders []catalog.Folder) error
}

// SnapshotWriter saves catalog snapshots on a background goroutine. Only the
// latest snapshot matters, so a publish replaces any snapshot still waiting.
type SnapshotWriter struct {
	saver Saver

	mu         sync.Mutex
	pending    []catalog.Folder
	hasPending bool
	closed     bool

	notify chan struct{}
	stop   chan struct{}
	done   chan struct{}

	lastErr error
}

// NewSnapshotWriter starts a writer over saver.
func NewSnapshotWriter(saver Saver) *SnapshotWriter {
	w := &SnapshotWriter{
		saver:  saver,
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// Publish hands a snapshot to the writer without blocking. It matches
// catalog.Observer.
func (w *SnapshotWriter) Publish(folders []catalog.Folder) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if w.hasPending {
		metrics.SnapshotsCoalesced.Inc()
	}
	w.pending = folders
	w.hasPending = true
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *SnapshotWriter) take() ([]catalog.Folder, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.hasPending {
		return nil, false
	}
	folders := w.pending
	w.pending = nil
	w.hasPending = false
	return folders, true
}

func (w *SnapshotWriter) run() {
	defer close(w.done)

	for {
		select {
		case <-w.notify:
			w.flush()
		case <-w.stop:
			// Final write of whatever arrived before Close
			w.flush()
			return
		}
	}
}

func (w *SnapshotWriter) flush() {
	folders, ok := w.take()
	if !ok {
		return
	}
	err := w.saver.Save(context.Background(), folders)
	if err != nil {
		logging.Error("Failed to save catalog snapshot: %v", err)
	}
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

// Close stops accepting snapshots, writes the last pending one and waits
// for the writer to exit. It returns the result of the final save.
func (w *SnapshotWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return w.lastError()
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
	return w.lastError()
}

func (w *SnapshotWriter) lastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}
