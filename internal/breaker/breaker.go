// Package breaker implements the failure gate used by the dispatch engine:
// after FailureThreshold consecutive provider exhaustions the circuit opens
// and dispatches are rejected until ResetTimeout has elapsed.
package breaker

import (
	"sync"
	"time"
)

const (
	DefaultFailureThreshold = 3
	DefaultResetTimeout     = 10 * time.Second
)

// Breaker tracks consecutive full-exhaustion failures. It is checked once
// per top-level dispatch, never inside a retry loop, so retries within a
// single dispatch proceed even while failures accumulate.
type Breaker struct {
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
}

// New creates a breaker. Non-positive threshold or timeout fall back to the
// defaults.
func New(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if resetTimeout <= 0 {
		resetTimeout = DefaultResetTimeout
	}
	return &Breaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// SetNow overrides the clock. Test hook.
func (b *Breaker) SetNow(now func() time.Time) {
	b.mu.Lock()
	b.now = now
	b.mu.Unlock()
}

// Allow reports whether an attempt may proceed. While the failure count is
// below the threshold the circuit is closed. Once open, the circuit re-closes
// (and the failure count resets to zero) only after resetTimeout has elapsed
// since the last recorded failure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return true
	}
	if b.now().Sub(b.lastFailure) > b.resetTimeout {
		b.failures = 0
		return true
	}
	return false
}

// RecordFailure increments the failure count and stamps the failure time.
// Called once per exhausted provider retry sequence.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	b.failures++
	b.lastFailure = b.now()
	b.mu.Unlock()
}

// Reset forces the breaker back to closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Open reports whether the circuit is currently rejecting attempts.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return false
	}
	return b.now().Sub(b.lastFailure) <= b.resetTimeout
}
