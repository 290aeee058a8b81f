// Package scoring turns session statistics into 0-10 category scores.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/posecoach/internal/domain/aggregate"
	"github.com/okian/posecoach/internal/domain/model"
)

const maxScoreValue = 10

// Metric average keys beyond the per-frame metric names.
const (
	KeyHandsBothVisible  = "handsBothVisible"
	KeyGestureRate       = "gestureRate"
	KeyFidgetVariance    = "fidgetVariance"
	KeyWristDisplacement = "wristDisplacement"
	KeyBodyDisplacement  = "bodyDisplacement"
)

// Slopes are the penalty per unit of each average. They are tuned so a value
// at its warning threshold scores around 7 to 8.
type Slopes struct {
	HeadTilt          float64
	TorsoLean         float64
	ShoulderOffset    float64
	ElbowDeviation    float64
	KneeDeviation     float64
	WristDisplacement float64
	BodyDisplacement  float64
}

// DefaultSlopes returns the calibrated penalty slopes.
func DefaultSlopes() Slopes {
	return Slopes{
		HeadTilt:          0.3,
		TorsoLean:         0.2,
		ShoulderOffset:    50,
		ElbowDeviation:    1.0 / 9,
		KneeDeviation:     1.0 / 9,
		WristDisplacement: 100,
		BodyDisplacement:  200,
	}
}

func (s Slopes) posture(m model.Metric) float64 {
	switch m {
	case model.MetricHeadTilt:
		return s.HeadTilt
	case model.MetricTorsoLean:
		return s.TorsoLean
	case model.MetricShoulderOffset:
		return s.ShoulderOffset
	case model.MetricElbowDeviation:
		return s.ElbowDeviation
	case model.MetricKneeDeviation:
		return s.KneeDeviation
	default:
		return 0
	}
}

// Option applies a configuration option to the Composite scorer.
type Option func(*Composite)

// WithSlopes sets the penalty slopes.
func WithSlopes(s Slopes) Option {
	return func(c *Composite) { c.slopes = s }
}

// Input is what the scorer needs from a finished session.
type Input struct {
	Summary aggregate.Summary
	Partial bool
}

// Scorer computes a score report from session statistics.
type Scorer interface {
	// Score computes the report, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (model.ScoreReport, error)
}

// Composite scores posture, gesture and movement with linear penalties.
type Composite struct {
	slopes Slopes
}

// NewComposite creates a scorer with the default slopes.
func NewComposite(opts ...Option) *Composite {
	c := &Composite{slopes: DefaultSlopes()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score computes the report. A category without any measurement is left out
// of the overall mean; a session without any measurement gets the no-data
// report.
func (c *Composite) Score(ctx context.Context, in Input) (model.ScoreReport, error) {
	if err := ctx.Err(); err != nil {
		return model.ScoreReport{}, fmt.Errorf("context cancelled: %w", err)
	}
	sum := in.Summary
	if !sum.HasData() {
		r := model.NoDataReport()
		r.Partial = in.Partial
		return r, nil
	}

	var posture []float64
	for _, m := range model.PostureMetrics {
		if v, ok := sum.Mean(m); ok {
			posture = append(posture, SubScore(v, c.slopes.posture(m)))
		}
	}

	r := model.ScoreReport{MetricAverages: averages(sum), Partial: in.Partial}
	var categories []float64
	if p, ok := mean(posture); ok {
		r.Posture = Round1(p)
		categories = append(categories, p)
	} else {
		r.Unmeasured = append(r.Unmeasured, model.ScorePosture)
	}
	if sum.GestureDefined() {
		g := SubScore(sum.WristDisplacement, c.slopes.WristDisplacement)
		r.Gesture = Round1(g)
		categories = append(categories, g)
	} else {
		r.Unmeasured = append(r.Unmeasured, model.ScoreGesture)
	}
	if sum.BodyDefined() {
		m := SubScore(sum.BodyDisplacement, c.slopes.BodyDisplacement)
		r.Movement = Round1(m)
		categories = append(categories, m)
	} else {
		r.Unmeasured = append(r.Unmeasured, model.ScoreMovement)
	}

	overall, ok := mean(categories)
	if !ok {
		r = model.NoDataReport()
		r.Partial = in.Partial
		return r, nil
	}
	r.Overall = Round1(overall)
	if in.Partial {
		r.Advisory = model.AdvisoryPartial
	}
	return r, nil
}

// SubScore maps an average onto [0, 10] with a linear penalty.
func SubScore(avg, slope float64) float64 {
	return math.Max(0, math.Min(maxScoreValue, maxScoreValue-slope*avg))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }

func mean(vs []float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	var s float64
	for _, v := range vs {
		s += v
	}
	return s / float64(len(vs)), true
}

func averages(sum aggregate.Summary) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range model.PostureMetrics {
		if v, ok := sum.Mean(m); ok {
			out[m.String()] = round4(v)
		}
	}
	if v, ok := sum.Mean(model.MetricHandsBoth); ok {
		out[KeyHandsBothVisible] = round4(v)
	}
	if sum.GestureDefined() {
		out[KeyGestureRate] = round4(sum.GestureRate)
		out[KeyWristDisplacement] = round4(sum.WristDisplacement)
	}
	if sum.BodyDefined() {
		out[KeyBodyDisplacement] = round4(sum.BodyDisplacement)
	}
	if sum.FidgetDefined {
		out[KeyFidgetVariance] = round4(sum.FidgetVariance)
	}
	return out
}
