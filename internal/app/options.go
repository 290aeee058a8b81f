package service

import (
	"time"

	"github.com/okian/posecoach/internal/adapters/enrich"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/scoring"
	"github.com/okian/posecoach/internal/sampler"
	"github.com/okian/posecoach/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithThresholds sets every warning level.
func WithThresholds(t model.Thresholds) Option {
	return func(s *Service) { s.thresholds = t }
}

// WithSlopes sets the score slopes.
func WithSlopes(sl scoring.Slopes) Option {
	return func(s *Service) { s.slopes = sl }
}

// WithSampling configures the frame sampler.
func WithSampling(opts ...sampler.Option) Option {
	return func(s *Service) { s.samplerOpts = append(s.samplerOpts, opts...) }
}

// WithSampleRate sets the frames per second used by both the sampler and the
// gesture rate computation.
func WithSampleRate(fps float64) Option {
	return func(s *Service) {
		if fps > 0 {
			s.sampleRate = fps
		}
	}
}

// WithMinSeconds sets the shortest session that is analysed.
func WithMinSeconds(sec float64) Option {
	return func(s *Service) {
		if sec >= 0 {
			s.minSeconds = sec
		}
	}
}

// WithDebounce sets the per-category event spacing in seconds.
func WithDebounce(seconds float64) Option {
	return func(s *Service) {
		if seconds >= 0 {
			s.debounce = seconds
		}
	}
}

// WithTopK sets how many worst moments become tips per category.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithConfidence sets the hand and landmark confidence floors.
func WithConfidence(hand, landmark float64) Option {
	return func(s *Service) {
		s.handConfidence = hand
		s.landmarkConfidence = landmark
	}
}

// WithEnricher enables narrative enrichment.
func WithEnricher(e enrich.Enricher, timeout time.Duration) Option {
	return func(s *Service) {
		s.enricher = e
		if timeout > 0 {
			s.enrichTimeout = timeout
		}
	}
}

// WithWorkerCount sets the number of async analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending async analyses.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobRetention caps how many jobs are remembered.
func WithJobRetention(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.jobRetention = n
		}
	}
}
