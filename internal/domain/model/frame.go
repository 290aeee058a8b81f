package model

import "github.com/okian/posecoach/internal/domain/geometry"

// Side tells which hand a detection belongs to.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Hand is one hand detection.
type Hand struct {
	Side Side `json:"side"`
	geometry.Point
	Confidence float64 `json:"confidence"`
}

// Frame is the estimator output for one sampled instant.
type Frame struct {
	Timestamp float64     `json:"t"`
	Landmarks LandmarkSet `json:"landmarks"`
	Hands     []Hand      `json:"hands,omitempty"`
}

// Empty reports whether the estimator found nothing at all.
func (f Frame) Empty() bool {
	return f.Landmarks.Len() == 0 && len(f.Hands) == 0
}

// HandFor returns the most confident hand detected on side.
func (f Frame) HandFor(side Side) (Hand, bool) {
	var best Hand
	found := false
	for _, h := range f.Hands {
		if h.Side != side {
			continue
		}
		if !found || h.Confidence > best.Confidence {
			best, found = h, true
		}
	}
	return best, found
}

// Session is a sampled recording ready for analysis.
type Session struct {
	DurationSeconds float64  `json:"durationSeconds"`
	Frames          []Frame  `json:"frames"`
	TranscriptLines []string `json:"transcriptLines,omitempty"`
}
