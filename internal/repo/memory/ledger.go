package memory

import (
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/hamed0406/buzzmonitor/internal/domain"
	"github.com/hamed0406/buzzmonitor/internal/repo"
)

var _ repo.OutcomeStore = (*Ledger)(nil)

// Ledger is a bounded, insertion-ordered store of probe outcomes.
//
// Entries are only ever read with Peek so the LRU order stays the insertion
// order, and the oldest entry is removed before a new one is added.
type Ledger struct {
	mu      sync.RWMutex
	max     int
	entries *simplelru.LRU[string, *domain.Outcome]
}

func NewLedger(maxQueries int) (*Ledger, error) {
	if maxQueries <= 0 {
		return nil, fmt.Errorf("%w: ledger size must be positive, got %d", domain.ErrInvalidConfig, maxQueries)
	}
	entries, err := simplelru.NewLRU[string, *domain.Outcome](maxQueries, nil)
	if err != nil {
		return nil, fmt.Errorf("simplelru.NewLRU: %w", err)
	}
	return &Ledger{max: maxQueries, entries: entries}, nil
}

func (l *Ledger) Insert(o domain.Outcome) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.entries.Contains(o.ID) {
		return "", fmt.Errorf("%w: %s", repo.ErrDuplicateID, o.ID)
	}
	var evicted string
	if l.entries.Len() >= l.max {
		evicted, _, _ = l.entries.RemoveOldest()
	}
	cp := o
	l.entries.Add(o.ID, &cp)
	return evicted, nil
}

func (l *Ledger) Update(id string, fn func(*domain.Outcome)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.entries.Peek(id)
	if !ok {
		return false
	}
	fn(o)
	return true
}

func (l *Ledger) Get(id string) (domain.Outcome, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	o, ok := l.entries.Peek(id)
	if !ok {
		return domain.Outcome{}, false
	}
	return *o, true
}

func (l *Ledger) All() []domain.Outcome {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := l.entries.Keys()
	out := make([]domain.Outcome, 0, len(keys))
	for _, k := range keys {
		if o, ok := l.entries.Peek(k); ok {
			out = append(out, *o)
		}
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries.Len()
}
