package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrQueueFull    = errors.New("analysis queue full")
	ErrSessionEnded = errors.New("live session already finished")
)
