package sampler

import "errors"

var (
	// ErrNoMedia is returned when no media or estimator was supplied.
	ErrNoMedia = errors.New("no media source")
	// ErrInsufficientData is returned for sessions shorter than the minimum length.
	ErrInsufficientData = errors.New("session too short to analyze")
	// ErrNotSeekable is returned when seeking is forced on media without a known duration.
	ErrNotSeekable = errors.New("media cannot be sampled by seeking")
	// ErrUnknownMode is returned for an unrecognised sampling mode.
	ErrUnknownMode = errors.New("unknown sampling mode")
)
