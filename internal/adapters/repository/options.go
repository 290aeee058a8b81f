package repository

import "time"

// Option applies a configuration option to the MemoryJobStore.
type Option func(*MemoryJobStore)

// WithRetention caps how many jobs are kept. The oldest are evicted first.
func WithRetention(n int) Option {
	return func(s *MemoryJobStore) {
		if n > 0 {
			s.retention = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryJobStore) {
		if now != nil {
			s.now = now
		}
	}
}
