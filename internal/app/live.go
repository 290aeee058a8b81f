package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/posecoach/internal/domain/aggregate"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/transcript"
	"github.com/okian/posecoach/pkg/metrics"
)

// LiveSession folds frames pushed by a realtime client. It is safe for use
// from one producer plus a concurrent Finish.
type LiveSession struct {
	svc     *Service
	agg     *aggregate.Aggregator
	lines   []string
	started time.Time

	mu   sync.Mutex
	last float64
	done bool
}

// NewLiveSession starts an incremental analysis.
func (s *Service) NewLiveSession(transcriptText string) *LiveSession {
	s.liveSessions.Add(1)
	metrics.UpdateLiveSessions(1)
	return &LiveSession{
		svc:     s,
		agg:     s.newAggregator(),
		lines:   transcript.Split(transcriptText),
		started: time.Now(),
	}
}

// Add folds one frame and returns the events it fired.
func (l *LiveSession) Add(f model.Frame) ([]model.IssueEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return nil, ErrSessionEnded
	}
	events, err := l.agg.Add(f)
	if err != nil {
		metrics.RecordLiveFrameDropped()
		return nil, err
	}
	l.last = f.Timestamp
	for _, e := range events {
		metrics.RecordIssueEvent(e.Category.String())
	}
	return events, nil
}

// Finish closes the session and returns its analysis. partial marks a session
// the client stopped early; it is analysed even when shorter than the
// minimum duration.
func (l *LiveSession) Finish(ctx context.Context, partial, wantEnrich bool) (model.Analysis, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return model.Analysis{}, ErrSessionEnded
	}
	l.done = true
	s := l.svc
	s.liveSessions.Add(-1)
	metrics.UpdateLiveSessions(-1)

	if !partial && l.last < s.minSeconds {
		a := model.NoDataAnalysis()
		s.recordOutcome(ModeLive, a, l.started)
		return a, nil
	}
	a := s.finish(ctx, l.agg.Summary(), l.last, l.lines, partial, wantEnrich)
	s.recordOutcome(ModeLive, a, l.started)
	return a, nil
}

// Abandon releases a session that will never be finished.
func (l *LiveSession) Abandon() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.done = true
	l.svc.liveSessions.Add(-1)
	metrics.UpdateLiveSessions(-1)
}
