// Package ratelimit implements the dual-window admission control applied
// before every remote CRM call: a short burst window that callers wait
// out, and a daily quota that fails fast. One Limiter instance is bound
// to one location's credentials, since the CRM accounts per location.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leadwatch/leadwatch/pkg/logging"
)

const subsystem = "ratelimit"

// CRM-documented limits per location.
const (
	DefaultBurstLimit  = 100
	DefaultBurstWindow = 10 * time.Second
	DefaultDailyLimit  = 200000
)

// safetyMargin pads the computed wait so the re-check lands after the
// server-side window has actually rolled over.
const safetyMargin = 100 * time.Millisecond

// QuotaExceededError reports that the daily cap is exhausted. It is never
// retried or waited out; the day has to roll over first.
type QuotaExceededError struct {
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily quota of %d requests exhausted", e.Limit)
}

// Usage is a non-mutating snapshot of both windows.
type Usage struct {
	BurstRemaining int
	DailyRemaining int
	DailyUsed      int
}

// Limiter tracks both rolling windows. Counters reset exactly when the
// elapsed time reaches their window size; they are never partially
// decremented. Safe for concurrent use.
type Limiter struct {
	mu sync.Mutex

	burstLimit  int
	burstWindow time.Duration
	burstCount  int
	burstStart  time.Time

	dailyLimit int
	dailyCount int
	dayStart   time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter with the given caps. Non-positive arguments fall
// back to the CRM defaults.
func New(burstLimit int, burstWindow time.Duration, dailyLimit int) *Limiter {
	if burstLimit <= 0 {
		burstLimit = DefaultBurstLimit
	}
	if burstWindow <= 0 {
		burstWindow = DefaultBurstWindow
	}
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	return &Limiter{
		burstLimit:  burstLimit,
		burstWindow: burstWindow,
		dailyLimit:  dailyLimit,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Acquire admits one call, blocking while the burst window is exhausted
// and failing immediately with QuotaExceededError when the daily cap is
// reached. On admission both counters are incremented atomically with
// respect to concurrent acquirers.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.roll(now)

		if l.dailyCount >= l.dailyLimit {
			limit := l.dailyLimit
			l.mu.Unlock()
			return &QuotaExceededError{Limit: limit}
		}
		if l.burstCount < l.burstLimit {
			l.burstCount++
			l.dailyCount++
			l.mu.Unlock()
			return nil
		}

		wait := l.burstWindow - now.Sub(l.burstStart) + safetyMargin
		l.mu.Unlock()

		logging.Debug(subsystem, "burst window exhausted, waiting %s", wait)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Snapshot reports remaining capacity in both windows and the day's
// running count without mutating any counter.
func (l *Limiter) Snapshot() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	burstRemaining := l.burstLimit - l.burstCount
	if now.Sub(l.burstStart) >= l.burstWindow {
		burstRemaining = l.burstLimit
	}
	dailyUsed := l.dailyCount
	if now.Sub(l.dayStart) >= 24*time.Hour {
		dailyUsed = 0
	}
	return Usage{
		BurstRemaining: burstRemaining,
		DailyRemaining: l.dailyLimit - dailyUsed,
		DailyUsed:      dailyUsed,
	}
}

// roll resets whichever windows have fully elapsed. Caller holds mu.
func (l *Limiter) roll(now time.Time) {
	if l.burstStart.IsZero() || now.Sub(l.burstStart) >= l.burstWindow {
		l.burstStart = now
		l.burstCount = 0
	}
	if l.dayStart.IsZero() || now.Sub(l.dayStart) >= 24*time.Hour {
		l.dayStart = now
		l.dailyCount = 0
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
