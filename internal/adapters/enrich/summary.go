package enrich

import (
	"math"

	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/scoring"
)

// Limits applied when building a Summary.
const (
	MaxSummaryTips = 24
	MaxNearbyLine  = 140
)

// TipSummary is a tip as sent to the enrichment model.
type TipSummary struct {
	Time       string `json:"time"`
	Category   string `json:"category"`
	Text       string `json:"text"`
	NearbyLine string `json:"nearbyLine,omitempty"`
}

// Summary is the bounded session digest sent for enrichment.
type Summary struct {
	DurationSeconds         float64            `json:"durationSeconds"`
	Scores                  map[string]float64 `json:"scores"`
	MetricAverages          map[string]float64 `json:"metricAverages"`
	HandsBothVisiblePercent float64            `json:"handsBothVisiblePercent"`
	GestureRatePerSecond    float64            `json:"gestureRatePerSecond"`
	FidgetVariance          float64            `json:"fidgetVariance"`
	Tips                    []TipSummary       `json:"tips"`
}

// BuildSummary digests an analysis.
func BuildSummary(duration float64, a model.Analysis) Summary {
	r := a.ScoreReport
	s := Summary{
		DurationSeconds: math.Round(duration*10) / 10,
		Scores: map[string]float64{
			"overall":  r.Overall,
			"posture":  r.Posture,
			"gesture":  r.Gesture,
			"movement": r.Movement,
		},
		MetricAverages:          r.MetricAverages,
		HandsBothVisiblePercent: math.Round(r.MetricAverages[scoring.KeyHandsBothVisible] * 100),
		GestureRatePerSecond:    r.MetricAverages[scoring.KeyGestureRate],
		FidgetVariance:          r.MetricAverages[scoring.KeyFidgetVariance],
		Tips:                    make([]TipSummary, 0, min(len(a.Tips), MaxSummaryTips)),
	}
	for i, t := range a.Tips {
		if i == MaxSummaryTips {
			break
		}
		s.Tips = append(s.Tips, TipSummary{
			Time:       t.Timecode,
			Category:   t.Category.String(),
			Text:       t.Text,
			NearbyLine: Truncate(t.NearestTranscriptLine, MaxNearbyLine),
		})
	}
	return s
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
