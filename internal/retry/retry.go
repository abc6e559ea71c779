// Package retry provides bounded retry with exponential backoff for
// transient failures.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Do executes fn with retry logic.
// It respects context cancellation during backoff waits and returns the
// last error, classified, once attempts are exhausted or a non-transient
// error occurs.
func Do[T any](ctx context.Context, cfg Config, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := fn(attempt + 1)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < maxAttempts-1 {
			delay := cfg.Delay(attempt)
			slog.Debug("retrying after transient failure",
				"attempt", attempt+1,
				"max_attempts", maxAttempts,
				"delay", delay,
				"error", err,
			)

			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
	}

	return zero, lastErr
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
