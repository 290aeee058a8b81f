package enrich

import "errors"

var (
	// ErrMissingAPIKey is returned when the enricher is built without a key.
	ErrMissingAPIKey = errors.New("enrichment api key is required")
	// ErrEmptyResponse is returned when the model answered with no text.
	ErrEmptyResponse = errors.New("enrichment returned no text")
)
