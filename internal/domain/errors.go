package domain

import "errors"

var (
	// ErrAlreadyRunning is returned by Start on a monitor that is running.
	ErrAlreadyRunning = errors.New("monitor is already running")
	ErrInvalidConfig  = errors.New("invalid probe config")
)
