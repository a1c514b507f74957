package domain

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ProbeConfig drives a monitor. It is immutable once the monitor is built.
type ProbeConfig struct {
	Interval   time.Duration
	MaxQueries int
	// Timeout is the deadline applied to every probe.
	Timeout time.Duration
	// MaxInFlight caps concurrent probe cycles; 0 means unbounded.
	MaxInFlight int
}

// Validate rejects configurations the monitor cannot run with. Every problem
// is reported, each wrapping ErrInvalidConfig.
func (c ProbeConfig) Validate() error {
	var err error
	if c.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, c.Interval))
	}
	if c.MaxQueries <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: max queries must be positive, got %d", ErrInvalidConfig, c.MaxQueries))
	}
	if c.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout))
	}
	if c.MaxInFlight < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: max in flight must not be negative, got %d", ErrInvalidConfig, c.MaxInFlight))
	}
	return err
}
