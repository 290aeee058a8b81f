package sampler

import (
	"time"

	"github.com/okian/posecoach/pkg/logger"
)

// Option configures a Sampler.
type Option func(*Sampler)

// WithRate sets the target samples per second.
func WithRate(fps float64) Option {
	return func(s *Sampler) {
		if fps > 0 {
			s.rate = fps
		}
	}
}

// WithMinSeconds sets the shortest session worth analysing.
func WithMinSeconds(sec float64) Option {
	return func(s *Sampler) {
		if sec >= 0 {
			s.minSeconds = sec
		}
	}
}

// WithMinSamples sets the smallest number of seek-driven samples.
func WithMinSamples(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.minSamples = n
		}
	}
}

// WithSeekMargin keeps seek targets this many seconds before the end.
func WithSeekMargin(sec float64) Option {
	return func(s *Sampler) {
		if sec >= 0 {
			s.seekMargin = sec
		}
	}
}

// WithFrameTimeout bounds each seek and estimate call. Zero means no bound.
func WithFrameTimeout(d time.Duration) Option {
	return func(s *Sampler) {
		if d >= 0 {
			s.frameTimeout = d
		}
	}
}

// WithMode forces a sampling mode.
func WithMode(m Mode) Option {
	return func(s *Sampler) { s.mode = m }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.log = l
		}
	}
}
