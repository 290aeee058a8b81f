// Package modeltest builds synthetic pose frames for tests.
package modeltest

import (
	"math"

	"github.com/okian/posecoach/internal/domain/geometry"
	"github.com/okian/posecoach/internal/domain/model"
)

const confident = 0.9

var upright = map[model.LandmarkName]geometry.Point{
	model.Nose:          {X: 0.5, Y: 0.2},
	model.LeftEye:       {X: 0.47, Y: 0.18},
	model.RightEye:      {X: 0.53, Y: 0.18},
	model.LeftEyeOuter:  {X: 0.45, Y: 0.18},
	model.RightEyeOuter: {X: 0.55, Y: 0.18},
	model.LeftEar:       {X: 0.43, Y: 0.2},
	model.RightEar:      {X: 0.57, Y: 0.2},
	model.LeftShoulder:  {X: 0.4, Y: 0.4},
	model.RightShoulder: {X: 0.6, Y: 0.4},
	model.LeftElbow:     {X: 0.4, Y: 0.55},
	model.RightElbow:    {X: 0.6, Y: 0.55},
	model.LeftWrist:     {X: 0.48, Y: 0.55},
	model.RightWrist:    {X: 0.52, Y: 0.55},
	model.LeftHip:       {X: 0.45, Y: 0.7},
	model.RightHip:      {X: 0.55, Y: 0.7},
	model.LeftKnee:      {X: 0.45, Y: 0.85},
	model.RightKnee:     {X: 0.55, Y: 0.85},
	model.LeftAnkle:     {X: 0.45, Y: 0.95},
	model.RightAnkle:    {X: 0.55, Y: 0.95},
}

// Upright returns a level, centred, motionless pose at time t: ears and
// shoulders level, hips under shoulders, elbows at 90 degrees, straight knees
// and both hands visible at the wrists.
func Upright(t float64) model.Frame {
	f := model.Frame{Timestamp: t}
	for n, p := range upright {
		f.Landmarks.Set(n, model.Landmark{Point: p, Confidence: confident})
	}
	f.Hands = []model.Hand{
		{Side: model.SideLeft, Point: upright[model.LeftWrist], Confidence: confident},
		{Side: model.SideRight, Point: upright[model.RightWrist], Confidence: confident},
	}
	return f
}

// Empty returns a frame where the estimator found nothing.
func Empty(t float64) model.Frame {
	return model.Frame{Timestamp: t}
}

// HeadTilt rotates the ear line of f by deg degrees.
func HeadTilt(f model.Frame, deg float64) model.Frame {
	l := upright[model.LeftEar]
	span := upright[model.RightEar].X - l.X
	rad := deg * math.Pi / 180
	f.Landmarks.Set(model.RightEar, model.Landmark{
		Point:      geometry.Point{X: l.X + span*math.Cos(rad), Y: l.Y + span*math.Sin(rad)},
		Confidence: confident,
	})
	return f
}

// ShoulderDrop lowers the right shoulder of f by dy.
func ShoulderDrop(f model.Frame, dy float64) model.Frame {
	p := upright[model.RightShoulder]
	p.Y += dy
	f.Landmarks.Set(model.RightShoulder, model.Landmark{Point: p, Confidence: confident})
	return f
}

// MoveHands shifts both hands and wrists of f by dx.
func MoveHands(f model.Frame, dx float64) model.Frame {
	for _, n := range []model.LandmarkName{model.LeftWrist, model.RightWrist} {
		lm, _ := f.Landmarks.Get(n)
		lm.X += dx
		f.Landmarks.Set(n, lm)
	}
	hands := make([]model.Hand, len(f.Hands))
	for i, h := range f.Hands {
		h.X += dx
		hands[i] = h
	}
	f.Hands = hands
	return f
}

// WithoutHands drops the hand detections of f.
func WithoutHands(f model.Frame) model.Frame {
	f.Hands = nil
	return f
}

// Only keeps just the named landmarks of f and drops hands.
func Only(f model.Frame, names ...model.LandmarkName) model.Frame {
	out := model.Frame{Timestamp: f.Timestamp}
	for _, n := range names {
		if lm, ok := f.Landmarks.Get(n); ok {
			out.Landmarks.Set(n, lm)
		}
	}
	return out
}

// Series returns n frames spaced step seconds apart, built by gen.
func Series(n int, step float64, gen func(t float64) model.Frame) []model.Frame {
	frames := make([]model.Frame, n)
	for i := range frames {
		frames[i] = gen(float64(i) * step)
	}
	return frames
}
