// Package repository tracks asynchronous analysis jobs.
package repository

import (
	"context"

	"github.com/okian/posecoach/internal/domain/model"
)

// JobStore provides read/write access to job state.
type JobStore interface {
	// Create registers a queued job. Returns ErrJobExists for a duplicate ID.
	Create(ctx context.Context, id string) (model.Job, error)
	// Start moves a queued job to running.
	Start(ctx context.Context, id string) error
	// Complete stores the result of a running job.
	Complete(ctx context.Context, id string, result model.Analysis) error
	// Fail records why a queued or running job did not finish.
	Fail(ctx context.Context, id string, cause error) error
	// Get returns ErrJobNotFound for unknown or evicted jobs.
	Get(ctx context.Context, id string) (model.Job, error)
	// Count returns the number of jobs tracked.
	Count(ctx context.Context) int
}
