package probe

import (
	"context"
	"time"
)

// Multi runs its executors in order and fails on the first error. The
// reported latency is the sum of the individual latencies.
type Multi struct {
	Executors []Executor
}

func NewMulti(executors ...Executor) *Multi {
	return &Multi{Executors: executors}
}

func (m *Multi) Execute(ctx context.Context, probeID string) (time.Duration, error) {
	var total time.Duration
	for _, e := range m.Executors {
		if e == nil {
			continue
		}
		d, err := e.Execute(ctx, probeID)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}
