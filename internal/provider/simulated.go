package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/anchorline/sendbridge/internal/message"
)

// Simulated is an in-process provider used by bridgectl simulate and local
// demos. Each Send succeeds with probability SuccessRate, after failing the
// first FailFirstN calls unconditionally. The probability state lives here,
// outside the dispatch core.
type Simulated struct {
	name        string
	successRate float64
	failFirstN  int

	mu    sync.Mutex
	rng   *rand.Rand
	calls int
}

// NewSimulated creates a simulated provider. successRate is clamped to
// [0, 1]; seed fixes the RNG so scenarios are reproducible.
func NewSimulated(name string, successRate float64, seed int64) *Simulated {
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}
	return &Simulated{
		name:        name,
		successRate: successRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// FailFirst makes the first n calls fail regardless of the success rate,
// mimicking a backend that is down and then recovers.
func (s *Simulated) FailFirst(n int) *Simulated {
	s.failFirstN = n
	return s
}

func (s *Simulated) Name() string { return s.name }

// Calls reports how many Send calls the provider has seen.
func (s *Simulated) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Simulated) Send(ctx context.Context, m message.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failFirstN {
		return fmt.Errorf("provider %s: simulated outage (%d/%d)", s.name, s.calls, s.failFirstN)
	}
	if s.rng.Float64() >= s.successRate {
		return fmt.Errorf("provider %s: simulated delivery failure", s.name)
	}
	return nil
}
