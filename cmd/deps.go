package cmd

import (
	"fmt"
	"net/http"

	"github.com/jonesrussell/north-cloud/enrichment/internal/cache"
	"github.com/jonesrussell/north-cloud/enrichment/internal/config"
	"github.com/jonesrussell/north-cloud/enrichment/internal/enrichment"
	"github.com/jonesrussell/north-cloud/enrichment/internal/extract"
	"github.com/jonesrussell/north-cloud/enrichment/internal/fetcher"
	"github.com/jonesrussell/north-cloud/enrichment/internal/llm"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/metrics"
	"github.com/jonesrussell/north-cloud/enrichment/internal/ratelimit"
)

// deps holds the wired pipeline.
type deps struct {
	service *enrichment.Service
	limiter *ratelimit.SlidingWindow
	metrics *metrics.Metrics
}

// createLogger creates a logger from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// newFetcher selects the page fetcher for the configured reader mode.
func newFetcher(cfg config.ReaderConfig, log logger.Logger) fetcher.Fetcher {
	client := &http.Client{}
	if cfg.Mode == config.ReaderModeDirect {
		return fetcher.NewDirectFetcher(client, cfg.Timeout, cfg.UserAgent, log)
	}
	return fetcher.NewReaderFetcher(client, fetcher.ReaderConfig{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.Timeout,
		ServerTimeoutHint: cfg.ServerTimeoutHint,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, log)
}

// buildDeps wires the enrichment pipeline from configuration.
func buildDeps(cfg *config.Config, log logger.Logger) (*deps, error) {
	model, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}

	m := metrics.New(nil)
	limiter := ratelimit.NewSlidingWindow(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, nil)

	svc := enrichment.NewService(enrichment.Config{
		Limiter:        limiter,
		Cache:          cache.NewMemoryStore(cfg.Enrichment.CacheTTL, nil),
		Fetcher:        newFetcher(cfg.Reader, log),
		Extractor:      extract.NewExtractor(model, log),
		Metrics:        m,
		Logger:         log,
		ContentBudget:  cfg.Enrichment.ContentBudget,
		ExtractTimeout: cfg.LLM.Timeout,
	})

	log.Info("Enrichment pipeline ready",
		logger.String("model", model.Name()),
		logger.String("reader_mode", cfg.Reader.Mode),
		logger.Duration("cache_ttl", cfg.Enrichment.CacheTTL),
		logger.Int("rate_limit", cfg.RateLimit.MaxRequests),
	)

	return &deps{service: svc, limiter: limiter, metrics: m}, nil
}
