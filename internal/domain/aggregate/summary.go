package aggregate

import "github.com/okian/posecoach/internal/domain/model"

// Summary is an immutable snapshot of an Aggregator.
type Summary struct {
	Frames       int
	UsableFrames int

	Means   [model.NumMetrics]float64
	Defined [model.NumMetrics]bool

	// GestureRate is moves per second; defined when GestureChecks > 0.
	GestureRate       float64
	WristDisplacement float64
	GestureChecks     int

	// BodyDisplacement is the mean torso travel per frame pair.
	BodyDisplacement float64
	BodyPairs        int

	FidgetVariance float64
	FidgetDefined  bool

	Moments []Moment
	Events  []model.IssueEvent
}

// Mean returns the session average of m, if any frame defined it.
func (s Summary) Mean(m model.Metric) (float64, bool) {
	if int(m) >= model.NumMetrics || !s.Defined[m] {
		return 0, false
	}
	return s.Means[m], true
}

// HasData reports whether at least one frame carried detections.
func (s Summary) HasData() bool { return s.UsableFrames > 0 }

// GestureDefined reports whether any consecutive hand pair was compared.
func (s Summary) GestureDefined() bool { return s.GestureChecks > 0 }

// BodyDefined reports whether any consecutive torso pair was compared.
func (s Summary) BodyDefined() bool { return s.BodyPairs > 0 }
