package domain

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// Settled reports whether the status is terminal.
func (s Status) Settled() bool {
	return s == StatusSuccess || s == StatusError || s == StatusTimeout
}

// Failed reports whether the status counts against the monitor (error or timeout).
func (s Status) Failed() bool {
	return s == StatusError || s == StatusTimeout
}

// Outcome is the record of a single probe.
//
// ExecutionTime is set only for StatusSuccess, Error only for StatusError and
// EndTime for every settled status.
type Outcome struct {
	ID            string         `json:"id"`
	Status        Status         `json:"status"`
	ExecutionTime *time.Duration `json:"execution_time,omitempty"`
	Error         string         `json:"error,omitempty"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
}

// Succeed settles a pending outcome as a success. It returns false if the
// outcome was already settled.
func (o *Outcome) Succeed(took time.Duration, at time.Time) bool {
	if o.Status.Settled() {
		return false
	}
	if took < 0 {
		took = 0
	}
	o.Status = StatusSuccess
	o.ExecutionTime = &took
	o.EndTime = &at
	return true
}

func (o *Outcome) Fail(reason string, at time.Time) bool {
	if o.Status.Settled() {
		return false
	}
	if reason == "" {
		reason = "unknown error"
	}
	o.Status = StatusError
	o.Error = reason
	o.EndTime = &at
	return true
}

func (o *Outcome) TimeOut(at time.Time) bool {
	if o.Status.Settled() {
		return false
	}
	o.Status = StatusTimeout
	o.EndTime = &at
	return true
}

// Stats is a point-in-time aggregate over the retained outcomes.
type Stats struct {
	TotalQueries         int           `json:"total_queries"`
	SuccessfulQueries    int           `json:"successful_queries"`
	FailedQueries        int           `json:"failed_queries"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
	Uptime               time.Duration `json:"uptime"`
}
