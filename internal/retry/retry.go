// Package retry runs an operation under a bounded retry policy.
package retry

import (
	"context"
	"fmt"
	"time"
)

// BackoffFunc returns the delay to wait after the given failed attempt
// (1-based) before starting the next one.
type BackoffFunc func(attempt int) time.Duration

// Classifier reports whether an error is transient and worth another attempt.
type Classifier func(err error) bool

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how many times an operation is attempted and how long to
// wait between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	Backoff     BackoffFunc
	Retryable   Classifier

	// Sleep defaults to a context-aware timer.
	Sleep SleepFunc

	// OnRetry, if set, is called before each wait with the failed attempt
	// number, its error and the upcoming delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Linear returns a backoff of attempt × unit: one unit before the second
// attempt, two before the third, and so on.
func Linear(unit time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * unit
	}
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. Non-retryable errors are returned unchanged; exhaustion
// is reported as *ExhaustedError wrapping the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry: waiting after attempt %d: %w", attempt, err)
		}
	}

	return &ExhaustedError{Attempts: maxAttempts, Last: lastErr}
}

// Sleep blocks for d, returning early with ctx.Err() if ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
