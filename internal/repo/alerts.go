package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last up/down state seen for a monitor and the last
// time a notification went out (used for cooldown).
type AlertRecord struct {
	Monitor    string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore keeps alert state between alerter passes.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, monitor string) (*AlertRecord, error)
	// Set upserts the record. A zero sentAt keeps LastSentAt nil.
	Set(ctx context.Context, monitor string, lastState bool, sentAt time.Time) error
}
