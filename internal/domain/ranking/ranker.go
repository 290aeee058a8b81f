// Package ranking picks the worst moments of a session and turns them into
// coaching tips.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/posecoach/internal/domain/aggregate"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/transcript"
)

const defaultTopK = 4

// Option configures a Ranker.
type Option func(*Ranker)

// WithTopK sets how many moments are kept per category.
func WithTopK(k int) Option {
	return func(r *Ranker) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithThresholds sets the warning levels.
func WithThresholds(t model.Thresholds) Option {
	return func(r *Ranker) { r.thresholds = t }
}

// Ranker selects worst moments and synthesizes tips. It is stateless.
type Ranker struct {
	topK       int
	thresholds model.Thresholds
}

// New creates a Ranker.
func New(opts ...Option) *Ranker {
	r := &Ranker{topK: defaultTopK, thresholds: model.DefaultThresholds()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Moment is a ranked instant.
type Moment struct {
	Time  float64
	Value float64
}

// less orders moments worst first, earlier first on ties.
func less(highIsBad bool) func(a, b Moment) int {
	return func(a, b Moment) int {
		if a.Value != b.Value {
			if highIsBad {
				return cmp.Compare(b.Value, a.Value)
			}
			return cmp.Compare(a.Value, b.Value)
		}
		return cmp.Compare(a.Time, b.Time)
	}
}

// Worst returns up to k moments with distinct timestamps where m was worst.
// Frames that left m undefined are skipped.
func Worst(moments []aggregate.Moment, m model.Metric, highIsBad bool, k int) []Moment {
	candidates := make([]Moment, 0, len(moments))
	for _, mo := range moments {
		if v, ok := mo.Sample.Get(m); ok {
			candidates = append(candidates, Moment{Time: mo.Time, Value: v})
		}
	}
	slices.SortStableFunc(candidates, less(highIsBad))

	out := make([]Moment, 0, k)
	seen := make(map[float64]struct{}, k)
	for _, c := range candidates {
		if len(out) == k {
			break
		}
		if _, dup := seen[c.Time]; dup {
			continue
		}
		seen[c.Time] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Tips builds the tip list for a session of the given duration. Nearest
// transcript lines are left for the caller to fill in.
func (r *Ranker) Tips(sum aggregate.Summary, duration float64) []model.Tip {
	tips := []model.Tip{}
	if !sum.HasData() {
		return tips
	}

	for _, m := range model.PostureMetrics {
		avg, ok := sum.Mean(m)
		limit, _ := r.thresholds.For(m)
		if !ok || limit <= 0 || avg <= limit {
			continue
		}
		c, _ := m.Category()
		for _, mo := range Worst(sum.Moments, m, true, r.topK) {
			tips = append(tips, model.Tip{Time: mo.Time, Category: c, Text: momentText(c, mo.Value)})
		}
	}

	if both, ok := sum.Mean(model.MetricHandsBoth); ok && 1-both > r.thresholds.HandsLostFraction {
		for _, mo := range Worst(sum.Moments, model.MetricHandsBoth, false, r.topK) {
			tips = append(tips, model.Tip{
				Time:     mo.Time,
				Category: model.CategoryHandsHidden,
				Text:     momentText(model.CategoryHandsHidden, mo.Value),
			})
		}
	}

	if sum.GestureDefined() {
		switch {
		case sum.GestureRate < r.thresholds.GestureLow:
			tips = append(tips, model.Tip{
				Time:     anchorAt(duration, gestureAnchor),
				Category: model.CategoryGestureRate,
				Text:     gestureText(sum.GestureRate, true),
			})
		case sum.GestureRate > r.thresholds.GestureHigh:
			tips = append(tips, model.Tip{
				Time:     anchorAt(duration, gestureAnchor),
				Category: model.CategoryGestureRate,
				Text:     gestureText(sum.GestureRate, false),
			})
		}
	}

	if sum.GestureDefined() && r.thresholds.WristDisplacement > 0 && sum.WristDisplacement > r.thresholds.WristDisplacement {
		tips = append(tips, model.Tip{
			Time:     anchorAt(duration, handMotionAnchor),
			Category: model.CategoryHandMotion,
			Text:     handMotionText(sum.WristDisplacement),
		})
	}

	if sum.BodyDefined() && r.thresholds.BodyDisplacement > 0 && sum.BodyDisplacement > r.thresholds.BodyDisplacement {
		tips = append(tips, model.Tip{
			Time:     anchorAt(duration, bodyMotionAnchor),
			Category: model.CategoryBodyMotion,
			Text:     bodyMotionText(sum.BodyDisplacement),
		})
	}

	if sum.FidgetDefined && sum.FidgetVariance > r.thresholds.Fidget {
		tips = append(tips, model.Tip{
			Time:     anchorAt(duration, fidgetAnchor),
			Category: model.CategoryFidget,
			Text:     fidgetText,
		})
	}

	slices.SortStableFunc(tips, func(a, b model.Tip) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	for i := range tips {
		tips[i].Timecode = transcript.Timecode(tips[i].Time)
	}
	return tips
}
