package sampler

import (
	"image"
	"strings"

	"github.com/okian/posecoach/internal/domain/geometry"
	"github.com/okian/posecoach/internal/domain/model"
)

// Snapshot is one captured picture handed to the estimator.
type Snapshot struct {
	Time  float64
	Image image.Image
}

// Keypoint is one labelled body keypoint as reported by an estimator.
type Keypoint struct {
	Part  string  `json:"part"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// HandDetection is one hand as reported by an estimator.
type HandDetection struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Detection is the raw estimator output for one snapshot. Width and Height
// are set when coordinates are in pixels.
type Detection struct {
	Keypoints []Keypoint      `json:"keypoints,omitempty"`
	Hands     []HandDetection `json:"hands,omitempty"`
	Width     float64         `json:"width,omitempty"`
	Height    float64         `json:"height,omitempty"`
}

// TimedDetection pairs a detection with its session time.
type TimedDetection struct {
	Time float64 `json:"t"`
	Detection
}

// Frame converts d into a normalised model.Frame stamped t. Unknown keypoint
// labels and hands without a side are dropped.
func (d Detection) Frame(t float64) model.Frame {
	w, h := 1.0, 1.0
	if d.Width > 0 && d.Height > 0 {
		w, h = d.Width, d.Height
	}
	f := model.Frame{Timestamp: t}
	for _, kp := range d.Keypoints {
		n, ok := model.ParseLandmarkName(kp.Part)
		if !ok {
			continue
		}
		f.Landmarks.Set(n, model.Landmark{
			Point:      geometry.Point{X: kp.X / w, Y: kp.Y / h},
			Confidence: kp.Score,
		})
	}
	for _, hd := range d.Hands {
		side, ok := parseSide(hd.Label)
		if !ok {
			continue
		}
		f.Hands = append(f.Hands, model.Hand{
			Side:       side,
			Point:      geometry.Point{X: hd.X / w, Y: hd.Y / h},
			Confidence: hd.Score,
		})
	}
	return f
}

func parseSide(label string) (model.Side, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "left", "l":
		return model.SideLeft, true
	case "right", "r":
		return model.SideRight, true
	default:
		return "", false
	}
}
