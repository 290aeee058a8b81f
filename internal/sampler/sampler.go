// Package sampler drives a media source and a pose estimator to produce a
// time-ordered stream of frames.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/pkg/logger"
	"github.com/okian/posecoach/pkg/metrics"
)

// Default sampling configuration constants.
const (
	defaultRate       = 2.0
	defaultMinSeconds = 3.0
	defaultMinSamples = 6
	defaultSeekMargin = 0.05
)

// Mode selects how frames are pulled from the media.
type Mode string

const (
	// ModeAuto seeks when the media allows it and plays in real time otherwise.
	ModeAuto Mode = "auto"
	// ModeSeek steps through the media by seeking.
	ModeSeek Mode = "seek"
	// ModeRealtime plays the media and samples on a wall-clock ticker.
	ModeRealtime Mode = "realtime"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAuto, ModeSeek, ModeRealtime:
		return m, nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Media is a playable recording or live source.
type Media interface {
	// Duration in seconds; zero, negative or non-finite when unknown.
	Duration() float64
	Seekable() bool
	// Seek returns once the media reports the seek completed.
	Seek(ctx context.Context, t float64) error
	Position() float64
	Play(ctx context.Context) error
	Pause() error
	// Capture grabs the current picture. io.EOF marks the end of the media.
	Capture(ctx context.Context) (Snapshot, error)
	Close() error
}

// Estimator detects keypoints in a snapshot.
type Estimator interface {
	Estimate(ctx context.Context, snap Snapshot) (Detection, error)
	Close() error
}

// Visitor receives each frame in order. Returning an error aborts the run.
type Visitor func(model.Frame) error

// Outcome describes a finished run.
type Outcome struct {
	Mode     Mode
	Frames   int
	Failed   int
	Partial  bool
	Duration float64
}

// Sampler pulls frames at a fixed rate. It holds only configuration and can
// serve concurrent runs.
type Sampler struct {
	rate         float64
	minSeconds   float64
	minSamples   int
	seekMargin   float64
	frameTimeout time.Duration
	mode         Mode
	log          logger.Logger
}

// New creates a Sampler.
func New(opts ...Option) *Sampler {
	s := &Sampler{
		rate:       defaultRate,
		minSeconds: defaultMinSeconds,
		minSamples: defaultMinSamples,
		seekMargin: defaultSeekMargin,
		mode:       ModeAuto,
		log:        logger.Get().Named("sampler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rate returns the configured samples per second.
func (s *Sampler) Rate() float64 { return s.rate }

// TotalSamples is how many seek-driven samples a session of duration gets.
func (s *Sampler) TotalSamples(duration float64) int {
	n := int(math.Floor(duration * s.rate))
	if n < s.minSamples {
		n = s.minSamples
	}
	return n
}

// Run samples media through est and hands every frame to visit. Both
// collaborators are closed before Run returns. Cancellation is checked between
// frames and yields a partial Outcome without error.
func (s *Sampler) Run(ctx context.Context, media Media, est Estimator, visit Visitor) (Outcome, error) {
	if media == nil || est == nil {
		return Outcome{}, ErrNoMedia
	}
	defer s.release(ctx, media, est)

	duration := media.Duration()
	known := finite(duration) && duration > 0
	if known && duration < s.minSeconds {
		return Outcome{Duration: duration}, fmt.Errorf("%w: %.2fs < %.2fs", ErrInsufficientData, duration, s.minSeconds)
	}

	mode := s.mode
	if mode == ModeAuto {
		mode = ModeRealtime
		if known && media.Seekable() {
			mode = ModeSeek
		}
	}
	if mode == ModeSeek && !known {
		return Outcome{Mode: mode}, ErrNotSeekable
	}

	var (
		out Outcome
		err error
	)
	switch mode {
	case ModeSeek:
		out, err = s.seekRun(ctx, media, est, duration, visit)
	case ModeRealtime:
		out, err = s.realtimeRun(ctx, media, est, duration, known, visit)
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	out.Mode = mode
	if err != nil {
		return out, err
	}
	if !out.Partial && out.Duration < s.minSeconds {
		return out, fmt.Errorf("%w: %.2fs < %.2fs", ErrInsufficientData, out.Duration, s.minSeconds)
	}
	return out, nil
}

func (s *Sampler) seekRun(ctx context.Context, media Media, est Estimator, duration float64, visit Visitor) (Outcome, error) {
	out := Outcome{Duration: duration}
	total := s.TotalSamples(duration)
	step := duration / float64(total)
	limit := math.Max(0, duration-s.seekMargin)
	last := math.Inf(-1)

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			out.Partial = true
			return out, nil
		}
		t := float64(i) * step
		if t <= last {
			continue
		}
		if err := s.seek(ctx, media, clamp(t, 0, limit)); err != nil {
			if ctx.Err() != nil {
				out.Partial = true
				return out, nil
			}
			s.skip(ctx, &out, "seek", t, err)
			continue
		}
		frame, err := s.capture(ctx, media, est, t)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				out.Partial = true
				return out, nil
			}
			out.Failed++
			continue
		}
		if err := s.emit(&out, frame, visit, ModeSeek); err != nil {
			return out, err
		}
		last = t
	}
	return out, nil
}

func (s *Sampler) realtimeRun(ctx context.Context, media Media, est Estimator, duration float64, known bool, visit Visitor) (Outcome, error) {
	var out Outcome
	if err := media.Play(ctx); err != nil {
		s.log.Warn(ctx, "play request rejected", logger.Error(err))
	}
	defer func() {
		if err := media.Pause(); err != nil {
			s.log.Debug(ctx, "pause failed", logger.Error(err))
		}
	}()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.rate))
	defer ticker.Stop()

	last := math.Inf(-1)
	for {
		select {
		case <-ctx.Done():
			out.Partial = true
			return out, nil
		case <-ticker.C:
		}

		pos := media.Position()
		if known && pos >= duration {
			out.Duration = duration
			return out, nil
		}
		if !finite(pos) || pos <= last {
			continue
		}
		frame, err := s.capture(ctx, media, est, pos)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			out.Failed++
			continue
		}
		if err := s.emit(&out, frame, visit, ModeRealtime); err != nil {
			return out, err
		}
		last = pos
		out.Duration = pos
	}
}

func (s *Sampler) seek(ctx context.Context, media Media, t float64) error {
	cctx, cancel := s.frameContext(ctx)
	defer cancel()
	return media.Seek(cctx, t)
}

// capture grabs a snapshot and runs the estimator on it. Failures other than
// io.EOF are logged here and counted by the caller.
func (s *Sampler) capture(ctx context.Context, media Media, est Estimator, t float64) (model.Frame, error) {
	snap, err := media.Capture(ctx)
	if errors.Is(err, io.EOF) {
		return model.Frame{}, err
	}
	if err != nil {
		metrics.RecordFrameFailure("capture")
		s.log.Warn(ctx, "capture failed", logger.Float64("t", t), logger.Error(err))
		return model.Frame{}, err
	}
	snap.Time = t

	cctx, cancel := s.frameContext(ctx)
	defer cancel()
	start := time.Now()
	det, err := est.Estimate(cctx, snap)
	metrics.RecordEstimatorLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordFrameFailure("estimate")
		s.log.Warn(ctx, "estimator failed; frame skipped", logger.Float64("t", t), logger.Error(err))
		return model.Frame{}, err
	}
	return det.Frame(t), nil
}

func (s *Sampler) emit(out *Outcome, f model.Frame, visit Visitor, mode Mode) error {
	if visit != nil {
		if err := visit(f); err != nil {
			return err
		}
	}
	out.Frames++
	metrics.RecordFrameSampled(string(mode))
	return nil
}

func (s *Sampler) skip(ctx context.Context, out *Outcome, stage string, t float64, err error) {
	out.Failed++
	metrics.RecordFrameFailure(stage)
	s.log.Warn(ctx, stage+" failed; frame skipped", logger.Float64("t", t), logger.Error(err))
}

func (s *Sampler) frameContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.frameTimeout > 0 {
		return context.WithTimeout(ctx, s.frameTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Sampler) release(ctx context.Context, media Media, est Estimator) {
	if err := est.Close(); err != nil {
		s.log.Warn(ctx, "estimator close failed", logger.Error(err))
	}
	if err := media.Close(); err != nil {
		s.log.Warn(ctx, "media close failed", logger.Error(err))
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
