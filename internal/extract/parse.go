package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

var (
	leadingJSONFence = regexp.MustCompile("(?i)^```json\\s*")
	leadingFence     = regexp.MustCompile("^```\\s*")
	trailingFence    = regexp.MustCompile("\\s*```$")
)

// errNotObject is wrapped by ParseError when the response is valid JSON but
// not an object.
var errNotObject = errors.New("response is not a JSON object")

// Partial is the model's answer before defaults are applied. A nil field
// means the model omitted it (or sent null).
type Partial struct {
	Summary  *string         `json:"summary"`
	Bullets  []string        `json:"bullets"`
	Keywords []string        `json:"keywords"`
	Signals  []domain.Signal `json:"signals"`
	// Sources is accepted so the schema round-trips but never used; sources
	// always come from the pages that were actually fetched.
	Sources json.RawMessage `json:"sources"`
}

// ParseError reports a model response that could not be decoded.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StripFences removes a surrounding markdown code fence (```json or ```)
// from a model response.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingJSONFence.ReplaceAllString(s, "")
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Parse strips fences from raw and decodes the JSON object it contains.
func Parse(raw string) (Partial, error) {
	cleaned := []byte(StripFences(raw))
	if json.Valid(cleaned) && !strings.HasPrefix(string(cleaned), "{") {
		return Partial{}, &ParseError{Raw: raw, Err: errNotObject}
	}

	var p Partial
	if err := json.Unmarshal(cleaned, &p); err != nil {
		return Partial{}, &ParseError{Raw: raw, Err: err}
	}
	p.Sources = nil
	return p, nil
}
