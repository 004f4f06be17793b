package remote

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Retry and backoff constants.
const (
	defaultMaxAttempts = 3
	baseBackoff        = 500 * time.Millisecond
	maxBackoff         = 30 * time.Second
	backoffFactor      = 2.0
	jitterFraction     = 0.25
)

// AttemptObserver is called after each failed attempt that will be
// retried. It never fires for the final failure — exhaustion is reported
// through the returned *ExhaustedError instead.
type AttemptObserver func(attempt, remaining int, err error)

// Retrier wraps an operation with bounded retries, exponential backoff
// with ±25% jitter, and per-attempt observability. Zero value is not
// usable; construct with NewRetrier.
type Retrier struct {
	maxAttempts int
	observer    AttemptObserver
	logger      *slog.Logger

	// sleepFunc is called to wait between attempts. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier. maxAttempts <= 0 selects the default (3).
// observer may be nil.
func NewRetrier(maxAttempts int, observer AttemptObserver, logger *slog.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Retrier{
		maxAttempts: maxAttempts,
		observer:    observer,
		logger:      logger,
		sleepFunc:   timeSleep,
	}
}

// Do invokes op up to maxAttempts times. Each non-final failure fires
// the observer and is logged before the backoff wait; the final failure
// is wrapped in *ExhaustedError. Context cancellation aborts immediately
// without consuming an attempt or firing the observer.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Debug("operation succeeded after retry",
					slog.String("op", op),
					slog.Int("attempt", attempt),
				)
			}

			return nil
		}

		// Cancellation is not a remote failure — propagate unchanged.
		if ctx.Err() != nil {
			return fmt.Errorf("remote: %s canceled: %w", op, ctx.Err())
		}

		lastErr = err

		remaining := r.maxAttempts - attempt
		if remaining == 0 {
			break
		}

		r.logger.Warn("attempt failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Int("remaining", remaining),
			slog.String("error", err.Error()),
		)

		if r.observer != nil {
			r.observer(attempt, remaining, err)
		}

		if sleepErr := r.sleepFunc(ctx, calcBackoff(attempt-1)); sleepErr != nil {
			return fmt.Errorf("remote: %s canceled: %w", op, sleepErr)
		}
	}

	r.logger.Error("retry attempts exhausted",
		slog.String("op", op),
		slog.Int("attempts", r.maxAttempts),
		slog.String("error", lastErr.Error()),
	)

	return &ExhaustedError{Op: op, Attempts: r.maxAttempts, Err: lastErr}
}

// calcBackoff computes exponential backoff with ±25% jitter.
func calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	backoff += jitter

	return time.Duration(backoff)
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Retrier.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
