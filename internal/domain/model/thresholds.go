package model

// Thresholds are the warning levels every detector compares against.
type Thresholds struct {
	HeadTilt       float64 // degrees
	TorsoLean      float64 // degrees
	ShoulderOffset float64 // normalised height
	ElbowDeviation float64 // degrees from 90
	KneeDeviation  float64 // degrees from 180

	HandsLostFraction float64 // share of frames without both hands
	GestureLow        float64 // moves per second
	GestureHigh       float64 // moves per second
	Fidget            float64 // nose variance
	Motion            float64 // per-pair wrist travel counted as a move

	WristDisplacement float64
	BodyDisplacement  float64
}

// DefaultThresholds returns the calibrated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeadTilt:          8,
		TorsoLean:         10,
		ShoulderOffset:    0.04,
		ElbowDeviation:    25,
		KneeDeviation:     25,
		HandsLostFraction: 0.55,
		GestureLow:        0.08,
		GestureHigh:       0.6,
		Fidget:            0.35,
		Motion:            0.025,
		WristDisplacement: 0.02,
		BodyDisplacement:  0.01,
	}
}

// For returns the per-frame warning level of m.
func (t Thresholds) For(m Metric) (float64, bool) {
	switch m {
	case MetricHeadTilt:
		return t.HeadTilt, true
	case MetricTorsoLean:
		return t.TorsoLean, true
	case MetricShoulderOffset:
		return t.ShoulderOffset, true
	case MetricElbowDeviation:
		return t.ElbowDeviation, true
	case MetricKneeDeviation:
		return t.KneeDeviation, true
	default:
		return 0, false
	}
}
