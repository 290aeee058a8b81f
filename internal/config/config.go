// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat snake_case so env vars map onto them one to one.
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's sentinel errors.
package config

import (
	"runtime"
	"time"

	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Sampling.
	SampleRate     float64 `koanf:"sample_rate"`
	MinSeconds     float64 `koanf:"min_seconds"`
	MinSamples     int     `koanf:"min_samples"`
	SeekMargin     float64 `koanf:"seek_margin"`
	FrameTimeoutMS int     `koanf:"frame_timeout_ms"`
	SamplingMode   string  `koanf:"sampling_mode"`

	// Detection.
	HandConfidence     float64 `koanf:"hand_confidence"`
	LandmarkConfidence float64 `koanf:"landmark_confidence"`
	DebounceSeconds    float64 `koanf:"debounce_seconds"`
	TopK               int     `koanf:"top_k"`

	// Warning thresholds.
	HeadTiltWarn          float64 `koanf:"head_tilt_warn"`
	TorsoLeanWarn         float64 `koanf:"torso_lean_warn"`
	ShoulderOffsetWarn    float64 `koanf:"shoulder_offset_warn"`
	ElbowDeviationWarn    float64 `koanf:"elbow_deviation_warn"`
	KneeDeviationWarn     float64 `koanf:"knee_deviation_warn"`
	HandsLostWarn         float64 `koanf:"hands_lost_warn"`
	GestureLowWarn        float64 `koanf:"gesture_low_warn"`
	GestureHighWarn       float64 `koanf:"gesture_high_warn"`
	FidgetWarn            float64 `koanf:"fidget_warn"`
	MotionThreshold       float64 `koanf:"motion_threshold"`
	WristDisplacementWarn float64 `koanf:"wrist_displacement_warn"`
	BodyDisplacementWarn  float64 `koanf:"body_displacement_warn"`

	// Score slopes.
	SlopeHeadTilt          float64 `koanf:"slope_head_tilt"`
	SlopeTorsoLean         float64 `koanf:"slope_torso_lean"`
	SlopeShoulderOffset    float64 `koanf:"slope_shoulder_offset"`
	SlopeElbowDeviation    float64 `koanf:"slope_elbow_deviation"`
	SlopeKneeDeviation     float64 `koanf:"slope_knee_deviation"`
	SlopeWristDisplacement float64 `koanf:"slope_wrist_displacement"`
	SlopeBodyDisplacement  float64 `koanf:"slope_body_displacement"`

	// Async jobs.
	QueueSize    int `koanf:"queue_size"`
	WorkerCount  int `koanf:"worker_count"`
	JobRetention int `koanf:"job_retention"`

	// LiveMaxSessions caps concurrent websocket sessions.
	LiveMaxSessions int `koanf:"live_max_sessions"`

	// Enrichment through an OpenAI-compatible chat API. Disabled without a key.
	EnrichAPIKey           string `koanf:"enrich_api_key"`
	EnrichBaseURL          string `koanf:"enrich_base_url"`
	EnrichModel            string `koanf:"enrich_model"`
	EnrichMaxTokens        int    `koanf:"enrich_max_tokens"`
	EnrichTimeoutMS        int    `koanf:"enrich_timeout_ms"`
	EnrichTranscriptBudget int    `koanf:"enrich_transcript_budget"`
}

// New creates a Config with defaults.
func New() *Config {
	th := model.DefaultThresholds()
	sl := scoring.DefaultSlopes()
	return &Config{
		LogLevel:     "info",
		Addr:         ":9080",
		SampleRate:   2,
		MinSeconds:   3,
		MinSamples:   6,
		SeekMargin:   0.05,
		SamplingMode: "auto",

		HandConfidence:  0.3,
		DebounceSeconds: 1,
		TopK:            4,

		HeadTiltWarn:          th.HeadTilt,
		TorsoLeanWarn:         th.TorsoLean,
		ShoulderOffsetWarn:    th.ShoulderOffset,
		ElbowDeviationWarn:    th.ElbowDeviation,
		KneeDeviationWarn:     th.KneeDeviation,
		HandsLostWarn:         th.HandsLostFraction,
		GestureLowWarn:        th.GestureLow,
		GestureHighWarn:       th.GestureHigh,
		FidgetWarn:            th.Fidget,
		MotionThreshold:       th.Motion,
		WristDisplacementWarn: th.WristDisplacement,
		BodyDisplacementWarn:  th.BodyDisplacement,

		SlopeHeadTilt:          sl.HeadTilt,
		SlopeTorsoLean:         sl.TorsoLean,
		SlopeShoulderOffset:    sl.ShoulderOffset,
		SlopeElbowDeviation:    sl.ElbowDeviation,
		SlopeKneeDeviation:     sl.KneeDeviation,
		SlopeWristDisplacement: sl.WristDisplacement,
		SlopeBodyDisplacement:  sl.BodyDisplacement,

		QueueSize:    1_000,
		WorkerCount:  runtime.NumCPU(),
		JobRetention: 10_000,

		LiveMaxSessions: 64,

		EnrichBaseURL:          "https://api.openai.com/v1",
		EnrichModel:            "gpt-4o-mini",
		EnrichMaxTokens:        900,
		EnrichTimeoutMS:        20_000,
		EnrichTranscriptBudget: 12_000,
	}
}

// Thresholds returns the configured warning levels.
func (c *Config) Thresholds() model.Thresholds {
	return model.Thresholds{
		HeadTilt:          c.HeadTiltWarn,
		TorsoLean:         c.TorsoLeanWarn,
		ShoulderOffset:    c.ShoulderOffsetWarn,
		ElbowDeviation:    c.ElbowDeviationWarn,
		KneeDeviation:     c.KneeDeviationWarn,
		HandsLostFraction: c.HandsLostWarn,
		GestureLow:        c.GestureLowWarn,
		GestureHigh:       c.GestureHighWarn,
		Fidget:            c.FidgetWarn,
		Motion:            c.MotionThreshold,
		WristDisplacement: c.WristDisplacementWarn,
		BodyDisplacement:  c.BodyDisplacementWarn,
	}
}

// Slopes returns the configured score slopes.
func (c *Config) Slopes() scoring.Slopes {
	return scoring.Slopes{
		HeadTilt:          c.SlopeHeadTilt,
		TorsoLean:         c.SlopeTorsoLean,
		ShoulderOffset:    c.SlopeShoulderOffset,
		ElbowDeviation:    c.SlopeElbowDeviation,
		KneeDeviation:     c.SlopeKneeDeviation,
		WristDisplacement: c.SlopeWristDisplacement,
		BodyDisplacement:  c.SlopeBodyDisplacement,
	}
}

// FrameTimeout is the per-frame collaborator bound; zero means none.
func (c *Config) FrameTimeout() time.Duration {
	return time.Duration(c.FrameTimeoutMS) * time.Millisecond
}

// EnrichTimeout bounds one enrichment call.
func (c *Config) EnrichTimeout() time.Duration {
	return time.Duration(c.EnrichTimeoutMS) * time.Millisecond
}

// EnrichEnabled reports whether an enrichment key is configured.
func (c *Config) EnrichEnabled() bool { return c.EnrichAPIKey != "" }
