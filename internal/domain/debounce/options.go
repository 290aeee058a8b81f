package debounce

// Option configures a Debouncer.
type Option func(*windowDebouncer)

// WithWindow sets the cooldown in seconds. Negative values are ignored; zero
// disables suppression.
func WithWindow(seconds float64) Option {
	return func(d *windowDebouncer) {
		if seconds >= 0 {
			d.window = seconds
		}
	}
}
