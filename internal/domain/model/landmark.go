// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strings"

	"github.com/okian/posecoach/internal/domain/geometry"
)

// LandmarkName identifies one body keypoint. The set is closed.
type LandmarkName uint8

const (
	Nose LandmarkName = iota
	LeftEye
	RightEye
	LeftEyeOuter
	RightEyeOuter
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	landmarkCount
)

// NumLandmarks is the size of the landmark enumeration.
const NumLandmarks = int(landmarkCount)

var landmarkNames = [NumLandmarks]string{
	"nose",
	"leftEye", "rightEye",
	"leftEyeOuter", "rightEyeOuter",
	"leftEar", "rightEar",
	"leftShoulder", "rightShoulder",
	"leftElbow", "rightElbow",
	"leftWrist", "rightWrist",
	"leftHip", "rightHip",
	"leftKnee", "rightKnee",
	"leftAnkle", "rightAnkle",
}

var landmarkByKey = func() map[string]LandmarkName {
	m := make(map[string]LandmarkName, NumLandmarks)
	for i, n := range landmarkNames {
		m[strings.ToLower(n)] = LandmarkName(i)
	}
	return m
}()

var labelNormalizer = strings.NewReplacer("_", "", "-", "", " ", "")

func (n LandmarkName) String() string {
	if !n.Valid() {
		return "unknown"
	}
	return landmarkNames[n]
}

// Valid reports whether n belongs to the enumeration.
func (n LandmarkName) Valid() bool { return n < landmarkCount }

// ParseLandmarkName resolves estimator part labels. "leftShoulder",
// "left_shoulder" and "LEFT-SHOULDER" all map to LeftShoulder.
func ParseLandmarkName(label string) (LandmarkName, bool) {
	n, ok := landmarkByKey[strings.ToLower(labelNormalizer.Replace(strings.TrimSpace(label)))]
	return n, ok
}

// Landmark is one detected keypoint.
type Landmark struct {
	geometry.Point
	Confidence float64 `json:"confidence"`
}

// LandmarkSet maps every LandmarkName to an optional Landmark.
type LandmarkSet struct {
	points  [NumLandmarks]Landmark
	present [NumLandmarks]bool
}

// Set stores lm under n. Invalid names are ignored.
func (s *LandmarkSet) Set(n LandmarkName, lm Landmark) {
	if !n.Valid() {
		return
	}
	s.points[n] = lm
	s.present[n] = true
}

// Clear marks n as not detected.
func (s *LandmarkSet) Clear(n LandmarkName) {
	if !n.Valid() {
		return
	}
	s.points[n] = Landmark{}
	s.present[n] = false
}

// Get returns the landmark for n and whether it was detected.
func (s LandmarkSet) Get(n LandmarkName) (Landmark, bool) {
	if !n.Valid() || !s.present[n] {
		return Landmark{}, false
	}
	return s.points[n], true
}

// Len counts detected landmarks.
func (s LandmarkSet) Len() int {
	c := 0
	for _, ok := range s.present {
		if ok {
			c++
		}
	}
	return c
}

// Each calls fn for every detected landmark in enumeration order.
func (s LandmarkSet) Each(fn func(LandmarkName, Landmark)) {
	for i, ok := range s.present {
		if ok {
			fn(LandmarkName(i), s.points[i])
		}
	}
}

// MarshalJSON encodes the set as an object keyed by landmark name.
func (s LandmarkSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]Landmark, s.Len())
	s.Each(func(n LandmarkName, lm Landmark) { m[n.String()] = lm })
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by landmark name. Unknown names are
// dropped.
func (s *LandmarkSet) UnmarshalJSON(data []byte) error {
	var m map[string]Landmark
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = LandmarkSet{}
	for label, lm := range m {
		if n, ok := ParseLandmarkName(label); ok {
			s.Set(n, lm)
		}
	}
	return nil
}
