package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/posecoach/internal/adapters/enrich"
	"github.com/okian/posecoach/internal/domain/aggregate"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/scoring"
	"github.com/okian/posecoach/internal/domain/transcript"
	"github.com/okian/posecoach/internal/sampler"
	"github.com/okian/posecoach/pkg/logger"
	"github.com/okian/posecoach/pkg/metrics"
)

// Analysis modes reported in metrics.
const (
	ModeFrames = "frames"
	ModeLive   = "live"
)

// MediaRequest analyses a playable source through an estimator.
type MediaRequest struct {
	Media      sampler.Media
	Estimator  sampler.Estimator
	Transcript string
	Enrich     bool
}

// SessionRequest analyses frames that were already sampled.
type SessionRequest struct {
	Session model.Session
	// Transcript is split into lines when Session.TranscriptLines is empty.
	Transcript string
	Enrich     bool
}

// Analyze samples req.Media and analyses the resulting frames. A session too
// short or without usable detections yields the no-data analysis. Cancelling
// ctx stops sampling and returns what was gathered, marked partial.
func (s *Service) Analyze(ctx context.Context, req MediaRequest) (model.Analysis, error) {
	start := time.Now()
	agg := s.newAggregator()
	out, err := s.sampler.Run(ctx, req.Media, req.Estimator, func(f model.Frame) error {
		_, err := agg.Add(f)
		return err
	})
	switch {
	case errors.Is(err, sampler.ErrInsufficientData):
		s.logger.Info(ctx, "session too short", logger.Float64("duration", out.Duration), logger.Error(err))
		a := model.NoDataAnalysis()
		s.recordOutcome(string(out.Mode), a, start)
		return a, nil
	case err != nil:
		return model.Analysis{}, fmt.Errorf("sample media: %w", err)
	}
	if out.Failed > 0 {
		s.logger.Warn(ctx, "frames skipped", logger.Int("failed", out.Failed), logger.Int("frames", out.Frames))
	}

	a := s.finish(ctx, agg.Summary(), out.Duration, transcript.Split(req.Transcript), out.Partial, req.Enrich)
	s.recordOutcome(string(out.Mode), a, start)
	return a, nil
}

// AnalyzeSession analyses pre-sampled frames. Frames must be in
// non-decreasing time order; ErrOutOfOrder is returned otherwise.
func (s *Service) AnalyzeSession(ctx context.Context, req SessionRequest) (model.Analysis, error) {
	start := time.Now()
	if err := checkOrder(req.Session.Frames); err != nil {
		return model.Analysis{}, err
	}
	lines := req.Session.TranscriptLines
	if len(lines) == 0 {
		lines = transcript.Split(req.Transcript)
	}
	duration := sessionDuration(req.Session)

	if len(req.Session.Frames) == 0 || duration < s.minSeconds {
		a := model.NoDataAnalysis()
		s.recordOutcome(ModeFrames, a, start)
		return a, nil
	}

	agg := s.newAggregator()
	partial := false
	for _, f := range req.Session.Frames {
		if ctx.Err() != nil {
			partial = true
			break
		}
		if _, err := agg.Add(f); err != nil {
			return model.Analysis{}, err
		}
	}

	a := s.finish(ctx, agg.Summary(), duration, lines, partial, req.Enrich)
	s.recordOutcome(ModeFrames, a, start)
	return a, nil
}

// finish scores a summary, synthesises tips aligned to the transcript and
// optionally enriches the result. Enrichment failure leaves the analysis
// unchanged.
func (s *Service) finish(ctx context.Context, sum aggregate.Summary, duration float64, lines []string, partial, wantEnrich bool) model.Analysis {
	// Scoring must survive a cancelled run.
	report, err := s.scorer.Score(context.WithoutCancel(ctx), scoring.Input{Summary: sum, Partial: partial})
	if err != nil {
		s.logger.Error(ctx, "scoring failed", logger.Error(err))
		report = model.NoDataReport()
		report.Partial = partial
	}

	a := model.Analysis{ScoreReport: report, Tips: []model.Tip{}, Events: []model.IssueEvent{}}
	if sum.HasData() {
		a.Events = append(a.Events, sum.Events...)
		a.Tips = s.ranker.Tips(sum, duration)
		aligner := transcript.NewAligner(lines, duration)
		for i := range a.Tips {
			a.Tips[i].NearestTranscriptLine = aligner.Line(a.Tips[i].Time)
		}
	}

	if wantEnrich {
		s.enrich(ctx, &a, duration, lines)
	}
	return a
}

func (s *Service) enrich(ctx context.Context, a *model.Analysis, duration float64, lines []string) {
	switch {
	case s.enricher == nil:
		metrics.RecordEnrichment("disabled", 0)
		return
	case a.ScoreReport.Advisory == model.AdvisoryNoData:
		metrics.RecordEnrichment("skipped", 0)
		return
	case ctx.Err() != nil:
		metrics.RecordEnrichment("cancelled", 0)
		return
	}

	ectx, cancel := context.WithTimeout(ctx, s.enrichTimeout)
	defer cancel()
	start := time.Now()
	text, err := s.enricher.Enrich(ectx, enrich.BuildSummary(duration, *a), strings.Join(lines, "\n"))
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		outcome := "failed"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ectx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.RecordEnrichment(outcome, elapsed)
		s.logger.Warn(ctx, "enrichment unavailable; returning base analysis", logger.String("outcome", outcome), logger.Error(err))
		return
	}
	metrics.RecordEnrichment("ok", elapsed)
	a.Enrichment = text
}

func checkOrder(frames []model.Frame) error {
	for i := 1; i < len(frames); i++ {
		if frames[i].Timestamp < frames[i-1].Timestamp {
			return fmt.Errorf("%w: frame %d at %.3f after %.3f",
				aggregate.ErrOutOfOrder, i, frames[i].Timestamp, frames[i-1].Timestamp)
		}
	}
	return nil
}

// sessionDuration prefers the declared duration and falls back to the last
// frame time.
func sessionDuration(sess model.Session) float64 {
	d := sess.DurationSeconds
	if (d <= 0 || math.IsNaN(d) || math.IsInf(d, 0)) && len(sess.Frames) > 0 {
		d = sess.Frames[len(sess.Frames)-1].Timestamp
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}
