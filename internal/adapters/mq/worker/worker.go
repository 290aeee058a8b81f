package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/pkg/logger"
	"github.com/okian/posecoach/pkg/metrics"
)

const (
	defaultTaskTimeout  = 5 * time.Minute
	poolShutdownTimeout = 30 * time.Second
)

// Analyzer computes the analysis for a task.
type Analyzer interface {
	Process(ctx context.Context, t model.Task) (model.Analysis, error)
}

// Recorder tracks job state transitions.
type Recorder interface {
	Start(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, result model.Analysis) error
	Fail(ctx context.Context, id string, cause error) error
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Task
}

// Worker processes tasks until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)
	// Shutdown stops the worker after its current task.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	analyzer    Analyzer
	recorder    Recorder
	name        string
	taskTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, a Analyzer, r Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		analyzer:    a,
		recorder:    r,
		name:        "worker",
		taskTimeout: defaultTaskTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			if err := w.process(ctx, t); err != nil {
				w.logger.Error(ctx, "task failed", logger.String("job", t.JobID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, t model.Task) error { //nolint:gocritic // hugeParam: Task is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.recorder.Start(ctx, t.JobID); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("start job %s: %w", t.JobID, err)
	}

	tctx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()
	result, err := w.analyzer.Process(tctx, t)
	if err != nil {
		metrics.RecordWorkerError()
		if ferr := w.recorder.Fail(ctx, t.JobID, err); ferr != nil {
			w.logger.Warn(ctx, "could not record failure", logger.String("job", t.JobID), logger.Error(ferr))
		}
		return fmt.Errorf("analyze job %s: %w", t.JobID, err)
	}
	if err := w.recorder.Complete(ctx, t.JobID, result); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("complete job %s: %w", t.JobID, err)
	}
	w.logger.Debug(ctx, "job done",
		logger.String("job", t.JobID),
		logger.Float64("overall", result.ScoreReport.Overall),
		logger.Int("tips", len(result.Tips)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of n workers; n < 1 uses runtime.NumCPU().
func NewPool(n int, q Queue, a Analyzer, r Recorder, opts ...Option) *Pool {
	if n < 1 {
		n = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, n),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, a, r, wopts...)
	}
	metrics.UpdateWorkerCount(n)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue when it supports it and waits for workers to
// drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	sctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-sctx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("pool shutdown: %w", sctx.Err())
	}
	return nil
}
