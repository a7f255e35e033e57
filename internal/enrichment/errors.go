package enrichment

import (
	"errors"
	"net/http"
)

// Sentinel errors returned by Service.Enrich.
var (
	ErrInvalidURL  = errors.New("url is required")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrNoContent   = errors.New("could not fetch any content from this website")
)

// ExtractionError wraps a model or parse failure. Its message is the
// underlying error's message so callers can surface it directly.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return "extraction failed"
	}
	return e.Err.Error()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StatusFor maps an Enrich error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNoContent):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
