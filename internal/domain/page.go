package domain

// ScrapedPage is the plain-text rendering of one fetched page. It lives only
// for the duration of one enrichment.
type ScrapedPage struct {
	URL  string
	Text string
}

// PageResult is the outcome of fetching one candidate URL: either a page or
// the unavailable variant. Fetchers never return errors; callers branch on OK.
type PageResult struct {
	page *ScrapedPage
	// Reason is a short diagnostic for an unavailable page. Empty on success.
	Reason string
}

// Fetched wraps a successfully retrieved page.
func Fetched(url, text string) PageResult {
	return PageResult{page: &ScrapedPage{URL: url, Text: text}}
}

// Unavailable marks a page that could not be retrieved.
func Unavailable(reason string) PageResult {
	return PageResult{Reason: reason}
}

// OK reports whether the page text was retrieved.
func (r PageResult) OK() bool { return r.page != nil }

// Page returns the fetched page and true, or a zero page and false.
func (r PageResult) Page() (ScrapedPage, bool) {
	if r.page == nil {
		return ScrapedPage{}, false
	}
	return *r.page, true
}
