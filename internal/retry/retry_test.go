package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("connection reset")
var errFatal = errors.New("invalid params")

func newTestPolicy(maxRetries int, base time.Duration) (*Policy, *[]time.Duration) {
	policy := NewPolicy(maxRetries, base, func(err error) bool {
		return errors.Is(err, errTransient)
	})
	var sleeps []time.Duration
	policy.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	policy.jitter = func(time.Duration) time.Duration { return 0 }
	return policy, &sleeps
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	policy, sleeps := newTestPolicy(3, 100*time.Millisecond)

	attempts := 0
	err := policy.Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		if attempts <= 2 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	// Exponential: base, then 2*base.
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *sleeps)
}

func TestDo_NonTransientFailsOnFirstAttempt(t *testing.T) {
	policy, sleeps := newTestPolicy(3, 100*time.Millisecond)

	attempts := 0
	err := policy.Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return errFatal
	})

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *sleeps, "non-transient errors must not be delayed")
}

func TestDo_ExhaustionReturnsLastErrorUnchanged(t *testing.T) {
	policy, sleeps := newTestPolicy(2, 50*time.Millisecond)

	lastErr := fmt.Errorf("%w: attempt specific detail", errTransient)
	attempts := 0
	err := policy.Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return lastErr
	})

	assert.Equal(t, 3, attempts, "max retries 2 means 3 total attempts")
	assert.Same(t, lastErr, err, "exhaustion re-raises the last error unchanged")
	assert.Len(t, *sleeps, 2)
}

func TestDo_JitterBoundedByBase(t *testing.T) {
	policy := NewPolicy(3, 100*time.Millisecond, func(error) bool { return true })
	for i := 0; i < 50; i++ {
		j := policy.jitter(policy.BaseDelay)
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, policy.BaseDelay)
	}
}

func TestDo_CanceledSleepStopsRetrying(t *testing.T) {
	policy := NewPolicy(5, 10*time.Millisecond, func(error) bool { return true })
	policy.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}
	policy.jitter = func(time.Duration) time.Duration { return 0 }

	attempts := 0
	err := policy.Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return errTransient
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, errTransient, "the operation error wins over the canceled sleep")
}

func TestDo_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	policy, _ := newTestPolicy(0, 10*time.Millisecond)

	attempts := 0
	err := policy.Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return errTransient
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, errTransient)
}
