package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/buzzmonitor/internal/repo"
)

var _ repo.AlertStore = (*Alerts)(nil)

// Alerts is an in-process AlertStore.
type Alerts struct {
	mu sync.RWMutex
	m  map[string]repo.AlertRecord
}

func NewAlerts() *Alerts {
	return &Alerts{m: make(map[string]repo.AlertRecord)}
}

func (a *Alerts) Get(_ context.Context, monitor string) (*repo.AlertRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.m[monitor]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (a *Alerts) Set(_ context.Context, monitor string, lastState bool, sentAt time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	a.m[monitor] = repo.AlertRecord{Monitor: monitor, LastState: lastState, LastSentAt: ts}
	return nil
}
