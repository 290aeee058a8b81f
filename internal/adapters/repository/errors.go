package repository

import "errors"

// Sentinel kinds for job store errors.
var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobExists         = errors.New("job already exists")
	ErrInvalidTransition = errors.New("invalid job transition")
)
