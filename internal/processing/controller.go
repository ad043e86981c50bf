package processing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"survey-viewer/internal/catalog"
	"survey-viewer/internal/logging"
	"survey-viewer/internal/metrics"
)

// DefaultDelay is how long the simulated measurement takes.
const DefaultDelay = 3 * time.Second

var (
	// ErrAlreadyProcessing is returned when an image already has a measurement pending.
	ErrAlreadyProcessing = errors.New("image is already being processed")
	// ErrStopped is returned after Stop has been called.
	ErrStopped = errors.New("processing controller stopped")
)

// Measurer performs the measurement step for one image.
type Measurer interface {
	Measure(ctx context.Context, img catalog.Image) error
}

// MeasureFunc adapts a function to the Measurer interface.
type MeasureFunc func(ctx context.Context, img catalog.Image) error

// Measure calls f.
func (f MeasureFunc) Measure(ctx context.Context, img catalog.Image) error {
	return f(ctx, img)
}

// DelayMeasurer is the placeholder backend: it succeeds after Delay.
type DelayMeasurer struct {
	Delay time.Duration
}

// Measure waits for the delay or until ctx is cancelled.
func (m DelayMeasurer) Measure(ctx context.Context, _ catalog.Image) error {
	timer := time.NewTimer(m.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Store is the part of the catalog the controller reads and mutates.
type Store interface {
	FindImage(imageID string) (catalog.Image, error)
	AppendEvent(imageID string, status catalog.EventStatus, message string) (catalog.ProcessingEvent, error)
	ResolveEvent(imageID, eventID string, status catalog.EventStatus, message string) error
}

// CompletionFunc is called after a measurement outcome has been recorded.
type CompletionFunc func(imageID string, status catalog.EventStatus)

type task struct {
	eventID string
	started time.Time
	cancel  context.CancelFunc
}

// Controller moves images through QUEUED -> MEASURING -> DONE/ERROR. Each
// image has at most one pending measurement; each runs on its own goroutine
// and can be retracted by image id.
type Controller struct {
	store      Store
	measurer   Measurer
	retry      RetryConfig
	onComplete CompletionFunc

	baseCtx context.Context
	stop    context.CancelFunc

	mu      sync.Mutex
	pending map[string]*task
	stopped bool
	wg      sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithMeasurer replaces the measurement backend.
func WithMeasurer(m Measurer) Option {
	return func(c *Controller) { c.measurer = m }
}

// WithDelay uses a DelayMeasurer with the given delay.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) { c.measurer = DelayMeasurer{Delay: d} }
}

// WithRetry sets the retry policy for failing measurements.
func WithRetry(config RetryConfig) Option {
	return func(c *Controller) { c.retry = config }
}

// WithCompletion registers a hook run after each recorded outcome.
func WithCompletion(fn CompletionFunc) Option {
	return func(c *Controller) { c.onComplete = fn }
}

// NewController creates a controller over store.
func NewController(store Store, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:    store,
		measurer: DelayMeasurer{Delay: DefaultDelay},
		retry:    DefaultRetryConfig(),
		baseCtx:  ctx,
		stop:     cancel,
		pending:  make(map[string]*task),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start appends a MEASURING event to the image and schedules its measurement.
// It returns as soon as the event is recorded.
func (c *Controller) Start(imageID string) (catalog.ProcessingEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return catalog.ProcessingEvent{}, ErrStopped
	}
	if _, busy := c.pending[imageID]; busy {
		return catalog.ProcessingEvent{}, fmt.Errorf("image %s: %w", imageID, ErrAlreadyProcessing)
	}

	event, err := c.store.AppendEvent(imageID, catalog.EventMeasuring, "")
	if err != nil {
		return catalog.ProcessingEvent{}, err
	}

	img, err := c.store.FindImage(imageID)
	if err != nil {
		// Deleted between the append and the lookup; nothing to measure.
		return catalog.ProcessingEvent{}, err
	}

	ctx, cancel := context.WithCancel(c.baseCtx)
	t := &task{eventID: event.ID, started: time.Now(), cancel: cancel}
	c.pending[imageID] = t

	metrics.ProcessingTransitions.WithLabelValues(string(catalog.EventMeasuring)).Inc()
	metrics.ProcessingInFlight.Inc()
	logging.Debug("Processing started for %s (event %s)", imageID, event.ID)

	c.wg.Add(1)
	go c.run(ctx, imageID, img, t)

	return event, nil
}

func (c *Controller) run(ctx context.Context, imageID string, img catalog.Image, t *task) {
	defer c.wg.Done()
	defer t.cancel()

	err := measureWithRetry(ctx, c.measurer, img, c.retry)
	if ctx.Err() != nil {
		// Retracted or shutting down: the record is left alone.
		logging.Debug("Processing of %s cancelled", imageID)
		return
	}

	status, message := catalog.EventDone, ""
	if err != nil {
		status, message = catalog.EventError, err.Error()
	}

	c.mu.Lock()
	if c.pending[imageID] != t {
		c.mu.Unlock()
		return
	}
	delete(c.pending, imageID)
	metrics.ProcessingInFlight.Dec()
	resolveErr := c.store.ResolveEvent(imageID, t.eventID, status, message)
	c.mu.Unlock()

	if resolveErr != nil {
		if errors.Is(resolveErr, catalog.ErrNotFound) || errors.Is(resolveErr, catalog.ErrStaleEvent) {
			logging.Debug("Dropping completion for %s: %v", imageID, resolveErr)
			return
		}
		logging.Error("Failed to record processing outcome for %s: %v", imageID, resolveErr)
		return
	}

	metrics.ProcessingTransitions.WithLabelValues(string(status)).Inc()
	metrics.ProcessingDuration.WithLabelValues(string(status)).Observe(time.Since(t.started).Seconds())
	if status == catalog.EventError {
		logging.Warn("Processing failed for %s: %s", imageID, message)
	} else {
		logging.Debug("Processing finished for %s", imageID)
	}

	if c.onComplete != nil {
		c.onComplete(imageID, status)
	}
}

// Cancel retracts pending measurements for the given images. Unknown ids are ignored.
func (c *Controller) Cancel(imageIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range imageIDs {
		if t, ok := c.pending[id]; ok {
			t.cancel()
			delete(c.pending, id)
			metrics.ProcessingInFlight.Dec()
			logging.Debug("Retracted pending processing for %s", id)
		}
	}
}

// Fail records an externally detected failure for an image. A pending
// measurement is retracted and its MEASURING event resolved to ERROR;
// otherwise a new ERROR event is appended.
func (c *Controller) Fail(imageID string, cause error) error {
	message := "processing failed"
	if cause != nil {
		message = cause.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.pending[imageID]; ok {
		t.cancel()
		delete(c.pending, imageID)
		metrics.ProcessingInFlight.Dec()
		if err := c.store.ResolveEvent(imageID, t.eventID, catalog.EventError, message); err == nil {
			metrics.ProcessingTransitions.WithLabelValues(string(catalog.EventError)).Inc()
			return nil
		} else if !errors.Is(err, catalog.ErrStaleEvent) {
			return err
		}
	}

	if _, err := c.store.AppendEvent(imageID, catalog.EventError, message); err != nil {
		return err
	}
	metrics.ProcessingTransitions.WithLabelValues(string(catalog.EventError)).Inc()
	return nil
}

// Pending reports whether the image has a measurement in flight.
func (c *Controller) Pending(imageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[imageID]
	return ok
}

// InFlight returns the number of pending measurements.
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Stop cancels every pending measurement and waits for their goroutines.
// Images left mid-measurement keep their MEASURING event.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	for id := range c.pending {
		delete(c.pending, id)
		metrics.ProcessingInFlight.Dec()
	}
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()
}
