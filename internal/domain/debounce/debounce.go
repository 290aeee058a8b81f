// Package debounce suppresses repeated issue events of one category inside a
// cooldown window.
package debounce

import "github.com/okian/posecoach/internal/domain/model"

const defaultWindow = 1.0 // seconds

// Debouncer decides whether an issue event may fire.
type Debouncer interface {
	// Fire reports whether an event of category c at time t may be emitted and
	// records it when it may. Two emitted events of one category are always at
	// least Window seconds apart.
	Fire(c model.Category, t float64) bool

	// Last returns the time the last event of c fired.
	Last(c model.Category) (float64, bool)

	Window() float64
	Reset()
}

// windowDebouncer keeps one last-fired slot per category. It belongs to a
// single session and is not safe for concurrent use.
type windowDebouncer struct {
	window float64
	last   [model.NumCategories]float64
	fired  [model.NumCategories]bool
}

// New creates a Debouncer with the default one second window.
func New(opts ...Option) Debouncer {
	d := &windowDebouncer{window: defaultWindow}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *windowDebouncer) Fire(c model.Category, t float64) bool {
	if int(c) >= model.NumCategories {
		return false
	}
	if d.fired[c] && t-d.last[c] < d.window {
		return false
	}
	d.last[c] = t
	d.fired[c] = true
	return true
}

func (d *windowDebouncer) Last(c model.Category) (float64, bool) {
	if int(c) >= model.NumCategories || !d.fired[c] {
		return 0, false
	}
	return d.last[c], true
}

func (d *windowDebouncer) Window() float64 { return d.window }

func (d *windowDebouncer) Reset() {
	d.last = [model.NumCategories]float64{}
	d.fired = [model.NumCategories]bool{}
}
