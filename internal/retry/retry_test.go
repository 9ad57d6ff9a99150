package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func isTransient(err error) bool { return errors.Is(err, errTransient) }

// recordingSleep captures requested delays instead of waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newPolicy(rs *recordingSleep) Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     Linear(time.Second),
		Retryable:   isTransient,
		Sleep:       rs.sleep,
	}
}

func TestLinear(t *testing.T) {
	b := Linear(time.Second)
	assert.Equal(t, time.Second, b(1))
	assert.Equal(t, 2*time.Second, b(2))
	assert.Equal(t, 3*time.Second, b(3))
}

func TestDo_SucceedsAfterTwoTransientFailures(t *testing.T) {
	rs := &recordingSleep{}
	calls := 0

	err := newPolicy(rs).Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rs.delays)
}

func TestDo_ExhaustsAfterMaxAttempts(t *testing.T) {
	rs := &recordingSleep{}
	calls := 0

	err := newPolicy(rs).Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
	// No wait after the final attempt.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rs.delays)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	rs := &recordingSleep{}
	calls := 0

	err := newPolicy(rs).Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return errFatal
	})

	assert.Equal(t, errFatal, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rs.delays)
}

func TestDo_NilClassifierNeverRetries(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 5}

	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryReportsEachWait(t *testing.T) {
	rs := &recordingSleep{}
	p := newPolicy(rs)

	var attempts []int
	p.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, time.Duration(attempt)*time.Second, delay)
	}

	_ = p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return errTransient
	})

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{
		MaxAttempts: 3,
		Backoff:     Linear(time.Hour),
		Retryable:   isTransient,
	}

	calls := 0
	err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestSleep_ZeroDuration(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
}
