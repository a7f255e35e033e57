// Package content merges fetched pages into the single text corpus handed
// to the extraction prompt.
package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// DefaultBudget is the maximum corpus length in characters.
const DefaultBudget = 12000

// ErrNoPages is returned when every fetch came back unavailable.
var ErrNoPages = errors.New("no pages fetched")

const pageSeparator = "\n\n"

// Corpus is the aggregated text plus the pages that contributed to it, in
// fetch-attempt order.
type Corpus struct {
	Text  string
	Pages []domain.ScrapedPage
}

// Aggregate drops unavailable results, joins the rest into labelled blocks
// and truncates the joined text to budget runes. A budget <= 0 disables
// truncation.
func Aggregate(results []domain.PageResult, budget int) (Corpus, error) {
	pages := make([]domain.ScrapedPage, 0, len(results))
	for _, r := range results {
		if p, ok := r.Page(); ok {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return Corpus{}, ErrNoPages
	}

	blocks := make([]string, len(pages))
	for i, p := range pages {
		blocks[i] = fmt.Sprintf("=== PAGE: %s ===\n%s", p.URL, p.Text)
	}

	return Corpus{
		Text:  Truncate(strings.Join(blocks, pageSeparator), budget),
		Pages: pages,
	}, nil
}

// Truncate returns at most limit runes of s.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
