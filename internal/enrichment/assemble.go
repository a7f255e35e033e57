package enrichment

import (
	"time"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/extract"
)

// assemble applies defaults to p and attaches one source per fetched page.
// Sources the model may have returned are never used.
func assemble(p extract.Partial, pages []domain.ScrapedPage, now time.Time) domain.EnrichedData {
	stamp := domain.Timestamp(now)

	sources := make([]domain.Source, len(pages))
	for i, page := range pages {
		sources[i] = domain.Source{URL: page.URL, ScrapedAt: stamp}
	}

	summary := domain.DefaultSummary
	if p.Summary != nil {
		summary = *p.Summary
	}

	return domain.EnrichedData{
		Summary:  summary,
		Bullets:  orEmpty(p.Bullets),
		Keywords: orEmpty(p.Keywords),
		Signals:  orEmpty(p.Signals),
		Sources:  sources,
		CachedAt: stamp,
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
