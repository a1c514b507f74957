// Package stats derives aggregate monitoring statistics from a ledger snapshot.
package stats

import (
	"time"

	"github.com/hamed0406/buzzmonitor/internal/domain"
)

// Compute aggregates outcomes as of now. It has no side effects and never
// caches; callers pass a fresh snapshot each time.
func Compute(outcomes []domain.Outcome, startTime, now time.Time) domain.Stats {
	s := domain.Stats{TotalQueries: len(outcomes)}

	var (
		total time.Duration
		timed int
	)
	for _, o := range outcomes {
		switch {
		case o.Status == domain.StatusSuccess:
			s.SuccessfulQueries++
			if o.ExecutionTime != nil {
				total += *o.ExecutionTime
				timed++
			}
		case o.Status.Failed():
			s.FailedQueries++
		}
	}
	if timed > 0 {
		s.AverageExecutionTime = total / time.Duration(timed)
	}

	if up := now.Sub(startTime); up > 0 {
		s.Uptime = up
	}
	return s
}
