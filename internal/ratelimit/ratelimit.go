// Package ratelimit enforces a minimum spacing between consecutive dispatch
// attempts, system-wide. It is a thin wrapper around golang.org/x/time/rate
// with burst 1: the first wait returns immediately, every later wait blocks
// until a full interval has passed since the previous release.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const DefaultInterval = 2 * time.Second

// Limiter spaces callers at least one interval apart. A single instance is
// shared by the whole engine; two concurrent waits cannot both pass before
// the token is consumed.
type Limiter struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// New creates a limiter with the given minimum interval. interval <= 0
// disables limiting entirely.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the caller may proceed, returning the time spent
// waiting. ctx cancellation aborts the wait; the engine passes a background
// context so in practice this is a plain timed wait.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}

// Interval returns the configured minimum spacing (0 when disabled).
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
