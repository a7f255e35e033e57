package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

// Reader proxy defaults.
const (
	DefaultReaderBaseURL   = "https://r.jina.ai/"
	DefaultTimeout         = 20 * time.Second
	defaultServerHintSecs  = 15
	headerReturnFormat     = "X-Return-Format"
	headerServerTimeout    = "X-Timeout"
	returnFormatPlainText  = "text"
	acceptPlainText        = "text/plain"
	reasonThrottleExceeded = "throttle wait aborted"
)

// ReaderConfig configures a ReaderFetcher.
type ReaderConfig struct {
	// BaseURL is prefixed to the target URL, e.g. https://r.jina.ai/.
	BaseURL string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Timeout bounds each fetch end to end.
	Timeout time.Duration
	// ServerTimeoutHint is forwarded as X-Timeout, in seconds.
	ServerTimeoutHint int
	// RequestsPerSecond throttles outbound calls; 0 disables throttling.
	RequestsPerSecond float64
}

// ReaderFetcher fetches pages through a text-extraction reader proxy.
type ReaderFetcher struct {
	client  *http.Client
	cfg     ReaderConfig
	limiter *rate.Limiter
	log     logger.Logger
}

// NewReaderFetcher creates a ReaderFetcher. A nil client uses a fresh
// http.Client; the per-fetch deadline comes from cfg.Timeout.
func NewReaderFetcher(client *http.Client, cfg ReaderConfig, log logger.Logger) *ReaderFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultReaderBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ServerTimeoutHint <= 0 {
		cfg.ServerTimeoutHint = defaultServerHintSecs
	}

	f := &ReaderFetcher{client: client, cfg: cfg, log: log}
	if cfg.RequestsPerSecond > 0 {
		burst := max(1, int(cfg.RequestsPerSecond))
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return f
}

// Fetch implements Fetcher.
func (f *ReaderFetcher) Fetch(ctx context.Context, url string) domain.PageResult {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return f.unavailable(url, reasonThrottleExceeded, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.BaseURL+url, http.NoBody)
	if err != nil {
		return f.unavailable(url, "build request", err)
	}
	req.Header.Set("Accept", acceptPlainText)
	req.Header.Set(headerReturnFormat, returnFormatPlainText)
	req.Header.Set(headerServerTimeout, strconv.Itoa(f.cfg.ServerTimeoutHint))
	if f.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return f.unavailable(url, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return f.unavailable(url, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return f.unavailable(url, "read body", err)
	}

	return domain.Fetched(url, string(body))
}

func (f *ReaderFetcher) unavailable(url, reason string, err error) domain.PageResult {
	fields := []logger.Field{logger.String("url", url), logger.String("reason", reason)}
	if err != nil {
		fields = append(fields, logger.Error(err))
		reason = reason + ": " + err.Error()
	}
	f.log.Debug("Page unavailable", fields...)
	return domain.Unavailable(reason)
}
