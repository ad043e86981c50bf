package processing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"survey-viewer/internal/catalog"
	"survey-viewer/internal/logging"
	"survey-viewer/internal/metrics"
)

// RetryConfig configures retry behavior around the measurement backend
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the configuration used for the simulated backend:
// it never fails, so there is nothing to retry.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     0,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
	}
}

// PermanentError marks a measurement failure that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so measureWithRetry gives up immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// measureWithRetry runs the measurer, retrying failures with capped
// exponential backoff. Context cancellation is returned as-is and never retried.
func measureWithRetry(ctx context.Context, m Measurer, img catalog.Image, config RetryConfig) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := safeMeasure(ctx, m, img)
		if err == nil {
			if attempt > 0 {
				logging.Info("Measurement of %s succeeded on retry %d", img.ID, attempt)
			}
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return err
		}

		// Don't sleep after the last attempt
		if attempt < config.MaxRetries {
			metrics.ProcessingRetries.Inc()
			logging.Debug("Measurement of %s failed: %v, retrying in %v (attempt %d/%d)",
				img.ID, err, backoff, attempt+1, config.MaxRetries)

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}

			// Exponential backoff with cap
			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	if config.MaxRetries > 0 {
		logging.Warn("Measurement of %s failed after %d retries: %v", img.ID, config.MaxRetries, lastErr)
	}
	return lastErr
}

// safeMeasure converts a panicking backend into an error.
func safeMeasure(ctx context.Context, m Measurer, img catalog.Image) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("measurer panic: %v", r)
		}
	}()
	return m.Measure(ctx, img)
}
