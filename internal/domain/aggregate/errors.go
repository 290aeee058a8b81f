package aggregate

import "errors"

// ErrOutOfOrder is returned when a frame is older than the last folded frame.
var ErrOutOfOrder = errors.New("frame timestamp precedes previous frame")
