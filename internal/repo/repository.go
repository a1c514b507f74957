package repo

import (
	"errors"

	"github.com/hamed0406/buzzmonitor/internal/domain"
)

// ErrDuplicateID is returned by Insert when the id is already stored.
var ErrDuplicateID = errors.New("outcome id already stored")

// OutcomeStore is the ledger of recent probe outcomes.
type OutcomeStore interface {
	// Insert adds a new outcome, evicting the oldest entry first when the
	// store is full. It reports the evicted id, or "" when nothing was
	// evicted. An id already present is rejected with ErrDuplicateID and
	// nothing is evicted.
	Insert(o domain.Outcome) (evicted string, err error)
	// Update applies fn to the stored outcome. It returns false, without
	// calling fn, when id is not present.
	Update(id string, fn func(*domain.Outcome)) bool
	Get(id string) (domain.Outcome, bool)
	// All returns the retained outcomes oldest first.
	All() []domain.Outcome
	Len() int
}
