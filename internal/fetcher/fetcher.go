// Package fetcher retrieves plain-text renderings of company pages. Every
// failure is reported as an unavailable domain.PageResult; no error ever
// leaves this package.
package fetcher

import (
	"context"
	"sync"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// maxResponseBodyBytes caps the size of a fetched page body.
const maxResponseBodyBytes = 10 * 1024 * 1024

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) domain.PageResult
}

// FetchAll fetches every URL concurrently and returns the results in the
// order of urls. It waits for all fetches to settle; a slow page delays the
// return but does not block the other fetches.
func FetchAll(ctx context.Context, f Fetcher, urls []string) []domain.PageResult {
	results := make([]domain.PageResult, len(urls))

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = f.Fetch(ctx, u)
		}(i, u)
	}
	wg.Wait()

	return results
}
