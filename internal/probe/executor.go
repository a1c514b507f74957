package probe

import (
	"context"
	"time"
)

// Executor performs one probe. probeID is opaque and only used for
// correlation. A nil error means success and the returned duration is the
// measured latency.
type Executor interface {
	Execute(ctx context.Context, probeID string) (time.Duration, error)
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, probeID string) (time.Duration, error)

func (f ExecutorFunc) Execute(ctx context.Context, probeID string) (time.Duration, error) {
	return f(ctx, probeID)
}
