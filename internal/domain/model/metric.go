package model

import "math"

// Metric names one per-frame measurement.
type Metric uint8

const (
	MetricHeadTilt Metric = iota
	MetricTorsoLean
	MetricShoulderOffset
	MetricElbowDeviation
	MetricKneeDeviation
	MetricHandLeft
	MetricHandRight
	MetricHandsBoth
	metricCount
)

// NumMetrics is the size of the metric enumeration.
const NumMetrics = int(metricCount)

var metricNames = [NumMetrics]string{
	"headTilt", "torsoLean", "shoulderOffset", "elbowDeviation", "kneeDeviation",
	"handLeft", "handRight", "handsBoth",
}

// PostureMetrics are the metrics that feed the posture sub-score and emit
// issue events.
var PostureMetrics = [...]Metric{
	MetricHeadTilt, MetricTorsoLean, MetricShoulderOffset, MetricElbowDeviation, MetricKneeDeviation,
}

func (m Metric) String() string {
	if int(m) >= NumMetrics {
		return "unknown"
	}
	return metricNames[m]
}

// Category is the issue category a threshold breach of m is filed under.
func (m Metric) Category() (Category, bool) {
	switch m {
	case MetricHeadTilt:
		return CategoryHeadTilt, true
	case MetricTorsoLean:
		return CategoryTorsoLean, true
	case MetricShoulderOffset:
		return CategoryShoulders, true
	case MetricElbowDeviation:
		return CategoryElbows, true
	case MetricKneeDeviation:
		return CategoryKnees, true
	case MetricHandsBoth:
		return CategoryHandsHidden, true
	default:
		return 0, false
	}
}

// Sample holds the metrics extracted from one frame. A metric that could not
// be computed is undefined and never reads as zero.
type Sample struct {
	values  [NumMetrics]float64
	defined [NumMetrics]bool
}

// Set records v for m. Non-finite values leave m undefined.
func (s *Sample) Set(m Metric, v float64) {
	if int(m) >= NumMetrics || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s.values[m] = v
	s.defined[m] = true
}

// Get returns the value of m and whether it is defined.
func (s Sample) Get(m Metric) (float64, bool) {
	if int(m) >= NumMetrics || !s.defined[m] {
		return 0, false
	}
	return s.values[m], true
}

// Defined reports whether m carries a value.
func (s Sample) Defined(m Metric) bool {
	return int(m) < NumMetrics && s.defined[m]
}
