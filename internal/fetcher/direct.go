package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

const defaultUserAgent = "north-cloud-enrichment/1.0"

// DirectFetcher downloads pages itself and extracts the readable text with
// go-readability. It is the fallback for deployments without a reader proxy.
type DirectFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	log       logger.Logger
}

// NewDirectFetcher creates a DirectFetcher.
func NewDirectFetcher(client *http.Client, timeout time.Duration, userAgent string, log logger.Logger) *DirectFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &DirectFetcher{client: client, timeout: timeout, userAgent: userAgent, log: log}
}

// Fetch implements Fetcher.
func (f *DirectFetcher) Fetch(ctx context.Context, pageURL string) domain.PageResult {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return f.unavailable(pageURL, "parse url", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return f.unavailable(pageURL, "build request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return f.unavailable(pageURL, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return f.unavailable(pageURL, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxResponseBodyBytes), parsed)
	if err != nil {
		return f.unavailable(pageURL, "readability", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return f.unavailable(pageURL, "no readable content", nil)
	}

	return domain.Fetched(pageURL, text)
}

func (f *DirectFetcher) unavailable(pageURL, reason string, err error) domain.PageResult {
	fields := []logger.Field{logger.String("url", pageURL), logger.String("reason", reason)}
	if err != nil {
		fields = append(fields, logger.Error(err))
		reason = reason + ": " + err.Error()
	}
	f.log.Debug("Page unavailable", fields...)
	return domain.Unavailable(reason)
}
