// Package retry wraps a single remote operation in bounded exponential
// backoff with jitter. Only errors the predicate classifies as transient
// are retried; everything else, and the last error once attempts are
// exhausted, is returned unchanged so callers keep the original type.
//
// The wrapper does not distinguish idempotent from non-idempotent calls.
// Callers only route operations that are safe to repeat through it: reads
// and upsert-style writes.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/leadwatch/leadwatch/pkg/logging"
)

const subsystem = "retry"

// Defaults for the CRM endpoint: 4 total attempts, 1s base delay.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Policy configures one retry wrapper. The zero value is unusable; use
// NewPolicy.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration

	// Transient decides which errors are worth another attempt.
	Transient func(error) bool

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(d time.Duration) time.Duration
}

// NewPolicy builds a policy around a transient-error predicate. A
// negative retry count and a non-positive base delay fall back to the
// defaults; zero retries is honored as a single attempt.
func NewPolicy(maxRetries int, baseDelay time.Duration, transient func(error) bool) *Policy {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Policy{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		Transient:  transient,
		sleep:      sleepCtx,
		jitter: func(d time.Duration) time.Duration {
			return time.Duration(rand.Int63n(int64(d)))
		},
	}
}

// Do runs op, retrying transient failures with delay base*2^attempt plus
// jitter in [0, base). The error from the final attempt is returned
// unchanged.
func (p *Policy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt >= p.MaxRetries || p.Transient == nil || !p.Transient(lastErr) {
			return lastErr
		}

		delay := p.BaseDelay<<uint(attempt) + p.jitter(p.BaseDelay)
		logging.Warn(subsystem, "%s attempt %d/%d failed, retrying in %s: %v",
			name, attempt+1, p.MaxRetries+1, delay, lastErr)
		if err := p.sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
