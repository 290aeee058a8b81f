package features

// Option configures an Extractor.
type Option func(*Extractor)

// WithHandConfidence sets the score a hand detection must exceed to count as
// visible.
func WithHandConfidence(v float64) Option {
	return func(e *Extractor) {
		if v >= 0 {
			e.handConfidence = v
		}
	}
}

// WithLandmarkConfidence sets the score below which a landmark is ignored.
func WithLandmarkConfidence(v float64) Option {
	return func(e *Extractor) {
		if v >= 0 {
			e.landmarkConfidence = v
		}
	}
}

// WithElbowReference sets the elbow angle treated as neutral.
func WithElbowReference(deg float64) Option {
	return func(e *Extractor) { e.elbowReference = deg }
}

// WithKneeReference sets the knee angle treated as neutral.
func WithKneeReference(deg float64) Option {
	return func(e *Extractor) { e.kneeReference = deg }
}
