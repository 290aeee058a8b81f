package repository

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/pkg/metrics"
)

const defaultRetention = 10_000

// MemoryJobStore keeps jobs in memory, evicting in submission order once
// retention is reached.
type MemoryJobStore struct {
	retention int
	now       func() time.Time

	mu    sync.RWMutex
	jobs  map[string]*list.Element
	order *list.List // of *model.Job, oldest at front
}

// NewMemoryJobStore creates an empty store.
func NewMemoryJobStore(opts ...Option) *MemoryJobStore {
	s := &MemoryJobStore{
		retention: defaultRetention,
		now:       time.Now,
		jobs:      make(map[string]*list.Element),
		order:     list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryJobStore) Create(_ context.Context, id string) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; ok {
		return model.Job{}, fmt.Errorf("%w: %s", ErrJobExists, id)
	}
	for s.order.Len() >= s.retention {
		oldest := s.order.Front()
		delete(s.jobs, oldest.Value.(*model.Job).ID)
		s.order.Remove(oldest)
	}
	j := &model.Job{ID: id, Status: model.JobQueued, SubmittedAt: s.now().UTC()}
	s.jobs[id] = s.order.PushBack(j)
	metrics.UpdateJobsTracked(s.order.Len())
	return *j, nil
}

func (s *MemoryJobStore) Start(_ context.Context, id string) error {
	return s.transition(id, func(j *model.Job) error {
		if j.Status != model.JobQueued {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, j.Status)
		}
		t := s.now().UTC()
		j.Status, j.StartedAt = model.JobRunning, &t
		return nil
	})
}

func (s *MemoryJobStore) Complete(_ context.Context, id string, result model.Analysis) error {
	return s.transition(id, func(j *model.Job) error {
		if j.Status != model.JobRunning {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, j.Status)
		}
		t := s.now().UTC()
		j.Status, j.FinishedAt, j.Result = model.JobDone, &t, &result
		return nil
	})
}

func (s *MemoryJobStore) Fail(_ context.Context, id string, cause error) error {
	return s.transition(id, func(j *model.Job) error {
		if j.Status.Terminal() {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, j.Status)
		}
		t := s.now().UTC()
		j.Status, j.FinishedAt = model.JobFailed, &t
		if cause != nil {
			j.Error = cause.Error()
		}
		return nil
	})
}

func (s *MemoryJobStore) transition(id string, fn func(*model.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return fn(e.Value.(*model.Job))
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.jobs[id]
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return *e.Value.(*model.Job), nil
}

func (s *MemoryJobStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}
