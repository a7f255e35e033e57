// Package normalize turns user-supplied company URLs into the canonical form
// used for fetching and the domain key used for caching.
package normalize

import (
	"net/url"
	"strings"
)

const defaultScheme = "https://"

// Candidate page paths fetched for every company, in fetch order.
var candidatePaths = []string{"about", "careers"}

// URL returns raw with an https:// scheme prepended when it does not already
// start with "http". Surrounding whitespace is trimmed.
func URL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(raw), "http") {
		return raw
	}
	return defaultScheme + raw
}

// DomainKey returns the hostname of normalized, lower-cased. When the URL
// cannot be parsed or has no host, the whole normalized string is the key.
func DomainKey(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil || u.Hostname() == "" {
		return normalized
	}
	return strings.ToLower(u.Hostname())
}

// CandidateURLs returns the home page, /about and /careers for base, joined
// without doubling a trailing slash.
func CandidateURLs(base string) []string {
	prefix := base
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	urls := make([]string, 0, len(candidatePaths)+1)
	urls = append(urls, base)
	for _, p := range candidatePaths {
		urls = append(urls, prefix+p)
	}
	return urls
}
