package aggregate

import (
	"github.com/okian/posecoach/internal/domain/debounce"
	"github.com/okian/posecoach/internal/domain/features"
	"github.com/okian/posecoach/internal/domain/model"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithExtractor sets the per-frame metric extractor.
func WithExtractor(e *features.Extractor) Option {
	return func(a *Aggregator) {
		if e != nil {
			a.extractor = e
		}
	}
}

// WithThresholds sets the warning levels.
func WithThresholds(t model.Thresholds) Option {
	return func(a *Aggregator) { a.thresholds = t }
}

// WithSampleRate sets the nominal frames per second used to turn the
// per-pair move ratio into a rate.
func WithSampleRate(fps float64) Option {
	return func(a *Aggregator) {
		if fps > 0 {
			a.sampleRate = fps
		}
	}
}

// WithDebouncer sets the event debouncer.
func WithDebouncer(d debounce.Debouncer) Option {
	return func(a *Aggregator) {
		if d != nil {
			a.debouncer = d
		}
	}
}
