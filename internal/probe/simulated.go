package probe

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrSimulatedFailure is what Simulated reports for a failed probe.
var ErrSimulatedFailure = errors.New("simulated query failure")

// Simulated stands in for a real query: it sleeps a random latency and fails
// a share of the time.
type Simulated struct {
	MinLatency  time.Duration
	MaxLatency  time.Duration
	FailureRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulated returns an executor with 100ms-1100ms latency and a 10% failure rate.
func NewSimulated() *Simulated {
	return NewSimulatedWithSource(rand.NewSource(time.Now().UnixNano()))
}

func NewSimulatedWithSource(src rand.Source) *Simulated {
	return &Simulated{
		MinLatency:  100 * time.Millisecond,
		MaxLatency:  1100 * time.Millisecond,
		FailureRate: 0.1,
		rnd:         rand.New(src),
	}
}

func (s *Simulated) draw() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latency := s.MinLatency
	if span := s.MaxLatency - s.MinLatency; span > 0 {
		latency += time.Duration(s.rnd.Int63n(int64(span)))
	}
	return latency, s.rnd.Float64() < s.FailureRate
}

func (s *Simulated) Execute(ctx context.Context, _ string) (time.Duration, error) {
	latency, fail := s.draw()

	t := time.NewTimer(latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-t.C:
	}

	if fail {
		return 0, ErrSimulatedFailure
	}
	return latency, nil
}
