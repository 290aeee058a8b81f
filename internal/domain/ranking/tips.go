package ranking

import (
	"fmt"
	"math"

	"github.com/okian/posecoach/internal/domain/model"
)

// Summary tips sit at fixed fractions of the session.
const (
	gestureAnchor    = 0.25
	handMotionAnchor = 0.25
	fidgetAnchor     = 0.5
	bodyMotionAnchor = 0.75
)

func momentText(c model.Category, v float64) string {
	switch c {
	case model.CategoryHeadTilt:
		return fmt.Sprintf("Keep head level (tilt %.0f°). Imagine balancing a book.", v)
	case model.CategoryTorsoLean:
		return fmt.Sprintf("Straighten posture (reduce forward lean ~%.0f°). Roll shoulders back.", v)
	case model.CategoryShoulders:
		return fmt.Sprintf("Square shoulders; keep them level (off by %.0f%% of frame height). A quick reset breath can help.", v*100)
	case model.CategoryElbows:
		return fmt.Sprintf("Relax your arms (elbows %.0f° away from a natural bend). Let them settle before the next gesture.", v)
	case model.CategoryKnees:
		return fmt.Sprintf("Unlock your knees (bent %.0f° off straight). Keep weight even on both feet.", v)
	case model.CategoryHandsHidden:
		return "Bring both hands into frame; use open, mid-torso gestures for clarity."
	default:
		return ""
	}
}

func gestureText(rate float64, low bool) string {
	if low {
		return fmt.Sprintf("Use purposeful gestures to mark key points (e.g., counting on fingers for your roadmap). You gestured %.2f times per second.", rate)
	}
	return "Reduce fidgeting; freeze for emphasis at key lines, then gesture deliberately."
}

const fidgetText = "Anchor your stance (feet shoulder-width). Reset hands to neutral between points."

func handMotionText(avg float64) string {
	return fmt.Sprintf("Steady your hand gestures; finish each one before starting the next (average travel %.0f%% of frame width per sample).", avg*100)
}

func bodyMotionText(avg float64) string {
	return fmt.Sprintf("Reduce body movement; plant your feet and let your voice carry the energy (average sway %.0f%% of frame width per sample).", avg*100)
}

func anchorAt(duration, fraction float64) float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0
	}
	return duration * fraction
}
