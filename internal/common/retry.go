package common

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy describes one retry discipline: how many attempts to make in total,
// how long to sleep after a failed attempt, and which errors are worth
// retrying at all. Attempt numbers passed to Delay start at zero.
type Policy struct {
	MaxAttempts int
	Delay       func(attempt int) time.Duration
	Retryable   func(err error) bool
}

// ExponentialDelay returns a delay schedule of base doubled per attempt:
// base, 2*base, 4*base and so on.
func ExponentialDelay(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base << attempt
	}
}

// Retry executes operation under the policy, sleeping between attempts.
// Errors the policy rejects surface immediately; once attempts are
// exhausted the last error is returned wrapped in ErrMaxRetries. A nil
// Retryable treats every error as retryable.
func Retry(ctx context.Context, operation func() error, p Policy) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	for attempt := 0; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		if attempt >= p.MaxAttempts-1 {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, p.MaxAttempts, err)
		}

		var delay time.Duration
		if p.Delay != nil {
			delay = p.Delay(attempt)
		}

		slog.Warn("Operation failed, retrying",
			"attempt", attempt+1,
			"max_attempts", p.MaxAttempts,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
