package replay

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/okian/posecoach/internal/sampler"
)

// ErrClosed is returned by a media or estimator used after Close.
var ErrClosed = errors.New("replay source closed")

const defaultMaxGap = 1.0

// MediaOption configures a Media.
type MediaOption func(*Media)

// Live makes the media non-seekable: its position follows the wall clock
// once Play is called, scaled by speed.
func Live(speed float64) MediaOption {
	return func(m *Media) {
		m.live = true
		if speed > 0 {
			m.speed = speed
		}
	}
}

// WithUnknownDuration hides the duration, as a live camera would.
func WithUnknownDuration() MediaOption {
	return func(m *Media) { m.hideDuration = true }
}

// Media plays a Recording. It implements sampler.Media.
type Media struct {
	rec          *Recording
	live         bool
	speed        float64
	hideDuration bool
	now          func() time.Time

	mu      sync.Mutex
	pos     float64
	started time.Time
	base    float64
	playing bool
	closed  bool
}

// NewMedia wraps rec.
func NewMedia(rec *Recording, opts ...MediaOption) *Media {
	m := &Media{rec: rec, speed: 1, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Media) Duration() float64 {
	if m.hideDuration {
		return 0
	}
	return m.rec.DurationSeconds
}

func (m *Media) Seekable() bool { return !m.live }

func (m *Media) Seek(ctx context.Context, t float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.live {
		return sampler.ErrNotSeekable
	}
	m.pos = t
	return nil
}

func (m *Media) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position()
}

func (m *Media) position() float64 {
	if m.playing {
		return m.base + m.now().Sub(m.started).Seconds()*m.speed
	}
	return m.pos
}

func (m *Media) Play(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if !m.playing {
		m.base = m.pos
		m.started = m.now()
		m.playing = true
	}
	return nil
}

func (m *Media) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		m.pos = m.position()
		m.playing = false
	}
	return nil
}

// Capture returns a snapshot stamped with the current position. There is no
// picture; the paired Estimator answers from the recording.
func (m *Media) Capture(ctx context.Context) (sampler.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return sampler.Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return sampler.Snapshot{}, ErrClosed
	}
	t := m.position()
	if t > m.rec.DurationSeconds {
		return sampler.Snapshot{}, io.EOF
	}
	return sampler.Snapshot{Time: t}, nil
}

func (m *Media) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.playing = false
	return nil
}

// Estimator answers with the recorded detection nearest to the snapshot time.
// It implements sampler.Estimator.
type Estimator struct {
	rec    *Recording
	maxGap float64

	mu     sync.Mutex
	closed bool
}

// NewEstimator wraps rec. Snapshots further than maxGap seconds past the
// last recorded sample yield an empty detection; maxGap <= 0 uses one second.
func NewEstimator(rec *Recording, maxGap float64) *Estimator {
	if maxGap <= 0 {
		maxGap = defaultMaxGap
	}
	return &Estimator{rec: rec, maxGap: maxGap}
}

func (e *Estimator) Estimate(ctx context.Context, snap sampler.Snapshot) (sampler.Detection, error) {
	if err := ctx.Err(); err != nil {
		return sampler.Detection{}, err
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return sampler.Detection{}, ErrClosed
	}
	s, ok := e.rec.at(snap.Time, e.maxGap)
	if !ok {
		return sampler.Detection{}, nil
	}
	return s.Detection, nil
}

func (e *Estimator) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}
