// Package domain holds the enrichment artifact and the ephemeral types that
// flow between pipeline stages.
package domain

import "time"

// SignalType is the directional tag of a Signal.
type SignalType string

// Signal types the model is instructed to use.
const (
	SignalPositive SignalType = "positive"
	SignalNeutral  SignalType = "neutral"
	SignalWarning  SignalType = "warning"
)

// DefaultSummary is used when the model omits a summary.
const DefaultSummary = "No summary available"

// Signal is a labeled observation extracted from a company's site.
type Signal struct {
	Label string     `json:"label"`
	Value string     `json:"value"`
	Type  SignalType `json:"type"`
}

// Source records one page that was actually fetched.
type Source struct {
	URL       string    `json:"url"`
	ScrapedAt Timestamp `json:"scrapedAt"`
}

// EnrichedData is the artifact returned to the dashboard and cached per domain.
type EnrichedData struct {
	Summary  string    `json:"summary"`
	Bullets  []string  `json:"bullets"`
	Keywords []string  `json:"keywords"`
	Signals  []Signal  `json:"signals"`
	Sources  []Source  `json:"sources"`
	CachedAt Timestamp `json:"cachedAt"`
}

// Timestamp marshals as an RFC 3339 UTC string with millisecond precision,
// the format the dashboard parses.
type Timestamp time.Time

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Time returns the underlying time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// MarshalText implements encoding.TextMarshaler.
func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(time.Time(t).UTC().Format(timestampLayout)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Timestamp) UnmarshalText(b []byte) error {
	parsed, err := time.Parse(time.RFC3339Nano, string(b))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}
