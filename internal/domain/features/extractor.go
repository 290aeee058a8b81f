// Package features turns a single Frame into a metric Sample.
package features

import (
	"math"

	"github.com/okian/posecoach/internal/domain/geometry"
	"github.com/okian/posecoach/internal/domain/model"
)

const (
	defaultHandConfidence = 0.3
	defaultElbowReference = 90
	defaultKneeReference  = 180
)

// headPairs are tried in order until one pair is fully detected.
var headPairs = [...][2]model.LandmarkName{
	{model.LeftEar, model.RightEar},
	{model.LeftEyeOuter, model.RightEyeOuter},
	{model.LeftEye, model.RightEye},
}

type limb struct{ a, vertex, c model.LandmarkName }

var (
	elbows = [...]limb{
		{model.LeftShoulder, model.LeftElbow, model.LeftWrist},
		{model.RightShoulder, model.RightElbow, model.RightWrist},
	}
	knees = [...]limb{
		{model.LeftHip, model.LeftKnee, model.LeftAnkle},
		{model.RightHip, model.RightKnee, model.RightAnkle},
	}
)

// Extractor computes per-frame posture metrics. It holds no per-session state
// and is safe for concurrent use.
type Extractor struct {
	handConfidence     float64
	landmarkConfidence float64
	elbowReference     float64
	kneeReference      float64
}

// NewExtractor builds an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		handConfidence: defaultHandConfidence,
		elbowReference: defaultElbowReference,
		kneeReference:  defaultKneeReference,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Point returns the position of n when it is detected with enough confidence.
func (e *Extractor) Point(f model.Frame, n model.LandmarkName) (geometry.Point, bool) {
	lm, ok := f.Landmarks.Get(n)
	if !ok || lm.Confidence < e.landmarkConfidence {
		return geometry.Point{}, false
	}
	return lm.Point, true
}

func (e *Extractor) pair(f model.Frame, a, b model.LandmarkName) (geometry.Point, geometry.Point, bool) {
	pa, okA := e.Point(f, a)
	pb, okB := e.Point(f, b)
	return pa, pb, okA && okB
}

// Extract computes the Sample for f. An empty frame yields a sample with every
// metric undefined.
func (e *Extractor) Extract(f model.Frame) model.Sample {
	var s model.Sample
	if f.Empty() {
		return s
	}

	for _, hp := range headPairs {
		if l, r, ok := e.pair(f, hp[0], hp[1]); ok {
			s.Set(model.MetricHeadTilt, geometry.AxisDeviation(l, r))
			break
		}
	}

	ls, rs, shouldersOK := e.pair(f, model.LeftShoulder, model.RightShoulder)
	if shouldersOK {
		s.Set(model.MetricShoulderOffset, math.Abs(ls.Y-rs.Y))
		if lh, rh, ok := e.pair(f, model.LeftHip, model.RightHip); ok {
			hip, shoulder := geometry.Midpoint(lh, rh), geometry.Midpoint(ls, rs)
			if geometry.Distance(hip, shoulder) > 0 {
				s.Set(model.MetricTorsoLean, 90-geometry.AxisDeviation(hip, shoulder))
			}
		}
	}

	if v, ok := e.jointDeviation(f, elbows[:], e.elbowReference); ok {
		s.Set(model.MetricElbowDeviation, v)
	}
	if v, ok := e.jointDeviation(f, knees[:], e.kneeReference); ok {
		s.Set(model.MetricKneeDeviation, v)
	}

	left := e.handVisible(f, model.SideLeft)
	right := e.handVisible(f, model.SideRight)
	s.Set(model.MetricHandLeft, flag(left))
	s.Set(model.MetricHandRight, flag(right))
	s.Set(model.MetricHandsBoth, flag(left && right))
	return s
}

// jointDeviation averages |angle - reference| over the sides whose three
// landmarks are detected.
func (e *Extractor) jointDeviation(f model.Frame, limbs []limb, reference float64) (float64, bool) {
	var sum float64
	n := 0
	for _, l := range limbs {
		a, okA := e.Point(f, l.a)
		v, okV := e.Point(f, l.vertex)
		c, okC := e.Point(f, l.c)
		if !okA || !okV || !okC {
			continue
		}
		angle, ok := geometry.AngleAtVertex(a, v, c)
		if !ok {
			continue
		}
		sum += math.Abs(angle - reference)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (e *Extractor) handVisible(f model.Frame, side model.Side) bool {
	h, ok := f.HandFor(side)
	return ok && h.Confidence > e.handConfidence
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
