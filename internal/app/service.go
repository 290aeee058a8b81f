// Package service wires the analysis pipeline and exposes the operations the
// HTTP API, the live socket and the replay CLI depend on.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/posecoach/internal/adapters/enrich"
	taskqueue "github.com/okian/posecoach/internal/adapters/mq/queue"
	workerpool "github.com/okian/posecoach/internal/adapters/mq/worker"
	"github.com/okian/posecoach/internal/adapters/repository"
	"github.com/okian/posecoach/internal/domain/aggregate"
	"github.com/okian/posecoach/internal/domain/debounce"
	"github.com/okian/posecoach/internal/domain/features"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/ranking"
	"github.com/okian/posecoach/internal/domain/scoring"
	"github.com/okian/posecoach/internal/domain/transcript"
	"github.com/okian/posecoach/internal/sampler"
	"github.com/okian/posecoach/pkg/logger"
	"github.com/okian/posecoach/pkg/metrics"
)

const (
	defaultSampleRate    = 2.0
	defaultMinSeconds    = 3.0
	defaultDebounce      = 1.0
	defaultTopK          = 4
	defaultHandConf      = 0.3
	defaultEnrichTimeout = 20 * time.Second
	defaultQueueSize     = 1_000
	defaultJobRetention  = 10_000
)

// Service runs analyses. Configuration is fixed at construction; every
// analysis gets its own aggregator, so concurrent calls share nothing but the
// job store.
type Service struct {
	mu sync.RWMutex

	// Configuration
	thresholds         model.Thresholds
	slopes             scoring.Slopes
	sampleRate         float64
	minSeconds         float64
	debounce           float64
	topK               int
	handConfidence     float64
	landmarkConfidence float64
	samplerOpts        []sampler.Option
	enricher           enrich.Enricher
	enrichTimeout      time.Duration
	workerCount        int
	queueSize          int
	jobRetention       int

	// Components
	sampler *sampler.Sampler
	scorer  scoring.Scorer
	ranker  *ranking.Ranker
	jobs    repository.JobStore
	queue   taskqueue.Queue
	pool    *workerpool.Pool

	started bool

	analyses     atomic.Int64
	noData       atomic.Int64
	partial      atomic.Int64
	liveSessions atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Async jobs need Start.
func New(opts ...Option) *Service {
	s := &Service{
		thresholds:     model.DefaultThresholds(),
		slopes:         scoring.DefaultSlopes(),
		sampleRate:     defaultSampleRate,
		minSeconds:     defaultMinSeconds,
		debounce:       defaultDebounce,
		topK:           defaultTopK,
		handConfidence: defaultHandConf,
		enrichTimeout:  defaultEnrichTimeout,
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		jobRetention:   defaultJobRetention,
		logger:         logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	base := []sampler.Option{
		sampler.WithRate(s.sampleRate),
		sampler.WithMinSeconds(s.minSeconds),
		sampler.WithLogger(s.logger.Named("sampler")),
	}
	s.sampler = sampler.New(append(base, s.samplerOpts...)...)
	s.scorer = scoring.NewComposite(scoring.WithSlopes(s.slopes))
	s.ranker = ranking.New(ranking.WithTopK(s.topK), ranking.WithThresholds(s.thresholds))
	return s
}

// Start brings up the async job pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.jobs = repository.NewMemoryJobStore(repository.WithRetention(s.jobRetention))
	q := taskqueue.NewInMemoryQueue(taskqueue.WithCapacity(s.queueSize))
	s.queue = q
	s.pool = workerpool.NewPool(s.workerCount, q, s, s.jobs)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("enrichment", s.enricher != nil),
	)
	return nil
}

// Stop drains queued jobs and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx := context.Background()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
}

// Submit validates a session and queues it for asynchronous analysis.
func (s *Service) Submit(ctx context.Context, req SessionRequest) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Job{}, ErrNotStarted
	}
	if err := checkOrder(req.Session.Frames); err != nil {
		return model.Job{}, err
	}

	sess := req.Session
	if len(sess.TranscriptLines) == 0 {
		sess.TranscriptLines = transcript.Split(req.Transcript)
	}
	id := uuid.NewString()
	job, err := s.jobs.Create(ctx, id)
	if err != nil {
		return model.Job{}, fmt.Errorf("create job: %w", err)
	}
	if err := s.queue.Enqueue(ctx, model.Task{JobID: id, Session: sess, Enrich: req.Enrich}); err != nil {
		cause := err
		if errors.Is(err, taskqueue.ErrFull) {
			cause = ErrQueueFull
		}
		_ = s.jobs.Fail(ctx, id, cause)
		return model.Job{}, fmt.Errorf("enqueue job: %w", cause)
	}
	return job, nil
}

// Job returns the state of a submitted analysis.
func (s *Service) Job(ctx context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Job{}, ErrNotStarted
	}
	return s.jobs.Get(ctx, id)
}

// Process implements the worker's Analyzer.
func (s *Service) Process(ctx context.Context, t model.Task) (model.Analysis, error) { //nolint:gocritic // hugeParam: Task comes by value off the queue
	return s.AnalyzeSession(ctx, SessionRequest{Session: t.Session, Enrich: t.Enrich})
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"analyses":     s.analyses.Load(),
		"noData":       s.noData.Load(),
		"partial":      s.partial.Load(),
		"liveSessions": s.liveSessions.Load(),
		"enrichment":   s.enricher != nil,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["jobsTracked"] = s.jobs.Count(context.Background())
	}
	return stats
}

func (s *Service) newAggregator() *aggregate.Aggregator {
	ex := features.NewExtractor(
		features.WithHandConfidence(s.handConfidence),
		features.WithLandmarkConfidence(s.landmarkConfidence),
	)
	return aggregate.New(
		aggregate.WithExtractor(ex),
		aggregate.WithThresholds(s.thresholds),
		aggregate.WithSampleRate(s.sampleRate),
		aggregate.WithDebouncer(debounce.New(debounce.WithWindow(s.debounce))),
	)
}

func (s *Service) recordOutcome(mode string, a model.Analysis, started time.Time) {
	s.analyses.Add(1)
	metrics.RecordSessionAnalyzed(mode)
	metrics.RecordAnalysisLatency(float64(time.Since(started).Milliseconds()))
	if a.ScoreReport.Advisory == model.AdvisoryNoData {
		s.noData.Add(1)
		metrics.RecordSessionNoData()
	}
	if a.ScoreReport.Partial {
		s.partial.Add(1)
		metrics.RecordSessionPartial()
	}
	for _, e := range a.Events {
		metrics.RecordIssueEvent(e.Category.String())
	}
	metrics.RecordTips(len(a.Tips))
}
