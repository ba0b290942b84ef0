package providers

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Simulator is the shared source of randomness, latency and injected
// failures for the simulated stubs. Safe for concurrent use.
type Simulator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	latency     time.Duration
	failureRate float64
}

// NewSimulator builds a simulator. A zero seed draws a random one.
func NewSimulator(seed uint64, latency time.Duration, failureRate float64) *Simulator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Simulator{
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		latency:     latency,
		failureRate: failureRate,
	}
}

// Between returns an integer in [lo, hi].
func (s *Simulator) Between(lo, hi int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// Chance reports true with probability p.
func (s *Simulator) Chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < p
}

// Pick returns a random element of options.
func (s *Simulator) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[s.Between(0, len(options)-1)]
}

// Call waits for the configured latency and then fails with the configured
// probability. Cancellation of ctx surfaces as a timeout.
func (s *Simulator) Call(ctx context.Context, providerID string) error {
	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return NewProviderError(ErrorTimeout, providerID, "request cancelled", ctx.Err())
		case <-t.C:
		}
	}
	if s.failureRate > 0 && s.Chance(s.failureRate) {
		return NewProviderError(ErrorProviderOutage, providerID, "simulated provider outage", nil)
	}
	return nil
}
