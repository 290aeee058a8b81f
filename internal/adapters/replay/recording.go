// Package replay plays back pre-recorded estimator output as a sampler media
// source, so sessions can be analysed without a camera or a pose model.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/sampler"
)

// ErrEmptyRecording is returned for a recording with no samples and no duration.
var ErrEmptyRecording = errors.New("recording has no samples")

// Recording is a captured session: estimator output keyed by time plus the
// speaker's transcript.
type Recording struct {
	DurationSeconds float64                  `json:"durationSeconds"`
	Transcript      string                   `json:"transcript,omitempty"`
	Samples         []sampler.TimedDetection `json:"samples"`
}

// Load reads a recording from a JSON file.
func Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a recording and sorts its samples by time.
func Decode(r io.Reader) (*Recording, error) {
	var rec Recording
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode recording: %w", err)
	}
	if len(rec.Samples) == 0 && rec.DurationSeconds <= 0 {
		return nil, ErrEmptyRecording
	}
	slices.SortStableFunc(rec.Samples, func(a, b sampler.TimedDetection) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	if rec.DurationSeconds <= 0 {
		rec.DurationSeconds = rec.Samples[len(rec.Samples)-1].Time
	}
	return &rec, nil
}

// Frames converts every sample into a normalised frame.
func (r *Recording) Frames() []model.Frame {
	out := make([]model.Frame, 0, len(r.Samples))
	for _, s := range r.Samples {
		out = append(out, s.Detection.Frame(s.Time))
	}
	return out
}

// at returns the latest sample at or before t, within maxGap seconds.
func (r *Recording) at(t, maxGap float64) (sampler.TimedDetection, bool) {
	i, _ := slices.BinarySearchFunc(r.Samples, t, func(s sampler.TimedDetection, t float64) int {
		switch {
		case s.Time < t:
			return -1
		case s.Time > t:
			return 1
		}
		return 0
	})
	// i is the first sample with Time >= t.
	if i < len(r.Samples) && r.Samples[i].Time == t {
		return r.Samples[i], true
	}
	if i == 0 {
		return sampler.TimedDetection{}, false
	}
	s := r.Samples[i-1]
	if t-s.Time > maxGap {
		return sampler.TimedDetection{}, false
	}
	return s, true
}

// FromFrames builds a recording from already normalised frames.
func FromFrames(duration float64, transcript string, frames []model.Frame) *Recording {
	rec := &Recording{DurationSeconds: duration, Transcript: transcript}
	for _, f := range frames {
		var d sampler.Detection
		f.Landmarks.Each(func(n model.LandmarkName, l model.Landmark) {
			d.Keypoints = append(d.Keypoints, sampler.Keypoint{Part: n.String(), X: l.X, Y: l.Y, Score: l.Confidence})
		})
		for _, h := range f.Hands {
			d.Hands = append(d.Hands, sampler.HandDetection{Label: string(h.Side), X: h.X, Y: h.Y, Score: h.Confidence})
		}
		rec.Samples = append(rec.Samples, sampler.TimedDetection{Time: f.Timestamp, Detection: d})
	}
	if rec.DurationSeconds <= 0 && len(rec.Samples) > 0 {
		rec.DurationSeconds = rec.Samples[len(rec.Samples)-1].Time
	}
	return rec
}
