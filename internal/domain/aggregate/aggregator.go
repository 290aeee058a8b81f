// Package aggregate folds a time-ordered frame stream into session statistics
// and debounced issue events.
package aggregate

import (
	"fmt"

	"github.com/okian/posecoach/internal/domain/debounce"
	"github.com/okian/posecoach/internal/domain/features"
	"github.com/okian/posecoach/internal/domain/geometry"
	"github.com/okian/posecoach/internal/domain/model"
)

const defaultSampleRate = 2.0

// Moment is the sample extracted at one instant.
type Moment struct {
	Time   float64
	Sample model.Sample
}

type anchorKind uint8

const (
	anchorNone anchorKind = iota
	anchorHips
	anchorShoulders
)

type track struct {
	at geometry.Point
	ok bool
}

// Aggregator accumulates one session. It is owned by a single analysis run and
// must not be shared between goroutines.
type Aggregator struct {
	extractor  *features.Extractor
	thresholds model.Thresholds
	sampleRate float64
	debouncer  debounce.Debouncer

	sums   [model.NumMetrics]float64
	counts [model.NumMetrics]int

	moments []Moment
	events  []model.IssueEvent
	frames  int
	usable  int
	last    float64

	hands         [2]track
	gestureMoves  int
	gestureChecks int
	wristTravel   float64

	anchor     track
	anchorKind anchorKind
	bodyTravel float64
	bodyPairs  int

	nose []geometry.Point
}

// New creates an empty Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		thresholds: model.DefaultThresholds(),
		sampleRate: defaultSampleRate,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.extractor == nil {
		a.extractor = features.NewExtractor()
	}
	if a.debouncer == nil {
		a.debouncer = debounce.New()
	}
	return a
}

// Add folds f and returns the issue events it fired. Frames must arrive with
// non-decreasing timestamps; an older frame is rejected with ErrOutOfOrder and
// leaves the state untouched.
func (a *Aggregator) Add(f model.Frame) ([]model.IssueEvent, error) {
	if a.frames > 0 && f.Timestamp < a.last {
		return nil, fmt.Errorf("%w: %.3f after %.3f", ErrOutOfOrder, f.Timestamp, a.last)
	}
	a.frames++
	a.last = f.Timestamp

	if f.Empty() {
		a.breakContinuity()
		return nil, nil
	}
	a.usable++

	s := a.extractor.Extract(f)
	a.moments = append(a.moments, Moment{Time: f.Timestamp, Sample: s})
	for m := model.Metric(0); int(m) < model.NumMetrics; m++ {
		if v, ok := s.Get(m); ok {
			a.sums[m] += v
			a.counts[m]++
		}
	}

	a.trackHands(f)
	a.trackBody(f)
	if p, ok := a.extractor.Point(f, model.Nose); ok {
		a.nose = append(a.nose, p)
	}

	return a.fire(f.Timestamp, s), nil
}

func (a *Aggregator) fire(t float64, s model.Sample) []model.IssueEvent {
	var fired []model.IssueEvent
	for _, m := range model.PostureMetrics {
		v, ok := s.Get(m)
		if !ok {
			continue
		}
		limit, _ := a.thresholds.For(m)
		if limit <= 0 || v <= limit {
			continue
		}
		c, _ := m.Category()
		if !a.debouncer.Fire(c, t) {
			continue
		}
		ev := model.IssueEvent{Time: t, Category: c, Value: v, Severity: v / limit}
		a.events = append(a.events, ev)
		fired = append(fired, ev)
	}
	return fired
}

func (a *Aggregator) breakContinuity() {
	a.hands = [2]track{}
	a.anchor = track{}
	a.anchorKind = anchorNone
}

// trackHands compares each hand against the previous frame. A hand detection
// wins over the wrist landmark of the same side.
func (a *Aggregator) trackHands(f model.Frame) {
	sides := [2]struct {
		side  model.Side
		wrist model.LandmarkName
	}{
		{model.SideLeft, model.LeftWrist},
		{model.SideRight, model.RightWrist},
	}
	for i, sd := range sides {
		var cur track
		if h, ok := f.HandFor(sd.side); ok {
			cur = track{at: h.Point, ok: true}
		} else if p, ok := a.extractor.Point(f, sd.wrist); ok {
			cur = track{at: p, ok: true}
		}
		if cur.ok && a.hands[i].ok {
			d := geometry.Distance(a.hands[i].at, cur.at)
			a.gestureChecks++
			a.wristTravel += d
			if d > a.thresholds.Motion {
				a.gestureMoves++
			}
		}
		a.hands[i] = cur
	}
}

// trackBody follows the hip midpoint, or the shoulder midpoint when the hips
// are out of frame. Pairs are only compared when both frames used the same
// anchor.
func (a *Aggregator) trackBody(f model.Frame) {
	kind := anchorNone
	var at geometry.Point
	if l, r, ok := a.pair(f, model.LeftHip, model.RightHip); ok {
		kind, at = anchorHips, geometry.Midpoint(l, r)
	} else if l, r, ok := a.pair(f, model.LeftShoulder, model.RightShoulder); ok {
		kind, at = anchorShoulders, geometry.Midpoint(l, r)
	}
	if kind != anchorNone && a.anchor.ok && kind == a.anchorKind {
		a.bodyTravel += geometry.Distance(a.anchor.at, at)
		a.bodyPairs++
	}
	a.anchor = track{at: at, ok: kind != anchorNone}
	a.anchorKind = kind
}

func (a *Aggregator) pair(f model.Frame, l, r model.LandmarkName) (geometry.Point, geometry.Point, bool) {
	pl, okL := a.extractor.Point(f, l)
	pr, okR := a.extractor.Point(f, r)
	return pl, pr, okL && okR
}

// Frames returns how many frames were folded, empty ones included.
func (a *Aggregator) Frames() int { return a.frames }

// Summary snapshots the session statistics. The aggregator can keep folding
// frames afterwards.
func (a *Aggregator) Summary() Summary {
	s := Summary{
		Frames:       a.frames,
		UsableFrames: a.usable,
		Moments:      append([]Moment(nil), a.moments...),
		Events:       append([]model.IssueEvent{}, a.events...),
	}
	for m := 0; m < model.NumMetrics; m++ {
		if a.counts[m] > 0 {
			s.Means[m] = a.sums[m] / float64(a.counts[m])
			s.Defined[m] = true
		}
	}
	if a.gestureChecks > 0 {
		s.GestureRate = float64(a.gestureMoves) / float64(a.gestureChecks) * a.sampleRate
		s.WristDisplacement = a.wristTravel / float64(a.gestureChecks)
		s.GestureChecks = a.gestureChecks
	}
	if a.bodyPairs > 0 {
		s.BodyDisplacement = a.bodyTravel / float64(a.bodyPairs)
		s.BodyPairs = a.bodyPairs
	}
	if len(a.nose) >= geometry.MinVariancePoints {
		s.FidgetVariance = geometry.Variance(a.nose)
		s.FidgetDefined = true
	}
	return s
}
