// Package enrichment orchestrates one company lookup: admission, cache,
// concurrent page fetches, aggregation, model extraction and assembly.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonesrussell/north-cloud/enrichment/internal/cache"
	"github.com/jonesrussell/north-cloud/enrichment/internal/content"
	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/extract"
	"github.com/jonesrussell/north-cloud/enrichment/internal/fetcher"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/metrics"
	"github.com/jonesrussell/north-cloud/enrichment/internal/normalize"
)

// UnknownClient is the limiter key for requests without a client address.
// All such requests share one bucket.
const UnknownClient = "unknown"

// Admitter decides whether a client may make another request.
type Admitter interface {
	Allow(key string) bool
}

// Extractor turns a corpus into a partial artifact.
type Extractor interface {
	Extract(ctx context.Context, companyURL, corpus string) (extract.Partial, error)
}

// Request is one enrichment call.
type Request struct {
	URL       string
	ClientKey string
}

// Config wires a Service.
type Config struct {
	Limiter   Admitter
	Cache     cache.Store
	Fetcher   fetcher.Fetcher
	Extractor Extractor
	Metrics   *metrics.Metrics
	Logger    logger.Logger
	// Now stamps sources and cachedAt. Defaults to time.Now.
	Now func() time.Time
	// ContentBudget caps the corpus in characters.
	ContentBudget int
	// ExtractTimeout bounds the model call; 0 leaves it unbounded.
	ExtractTimeout time.Duration
}

// Service runs the enrichment pipeline.
type Service struct {
	limiter        Admitter
	cache          cache.Store
	fetcher        fetcher.Fetcher
	extractor      Extractor
	metrics        *metrics.Metrics
	log            logger.Logger
	now            func() time.Time
	budget         int
	extractTimeout time.Duration

	flights singleflight.Group
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ContentBudget == 0 {
		cfg.ContentBudget = content.DefaultBudget
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &Service{
		limiter:        cfg.Limiter,
		cache:          cfg.Cache,
		fetcher:        cfg.Fetcher,
		extractor:      cfg.Extractor,
		metrics:        cfg.Metrics,
		log:            cfg.Logger,
		now:            cfg.Now,
		budget:         cfg.ContentBudget,
		extractTimeout: cfg.ExtractTimeout,
	}
}

// Enrich returns the artifact for req.URL, from cache when fresh.
//
// Validation happens before admission so a missing URL never consumes
// quota; any other string is admitted and normalized. Concurrent misses for
// the same domain share one pipeline run, and each caller is still admitted
// individually. The pipeline does not observe cancellation of ctx.
func (s *Service) Enrich(ctx context.Context, req Request) (*domain.EnrichedData, error) {
	log := s.requestLogger(ctx)

	if req.URL == "" {
		s.metrics.RecordOutcome(metrics.OutcomeInvalid)
		return nil, ErrInvalidURL
	}

	clientKey := req.ClientKey
	if clientKey == "" {
		clientKey = UnknownClient
	}
	if clientKey == UnknownClient {
		log.Debug("Request without client address uses the shared bucket")
	}
	if !s.limiter.Allow(clientKey) {
		log.Info("Rate limit exceeded", logger.String("client", clientKey))
		s.metrics.RecordOutcome(metrics.OutcomeRateLimited)
		return nil, ErrRateLimited
	}

	companyURL := normalize.URL(req.URL)
	key := normalize.DomainKey(companyURL)
	log = log.With(logger.String("domain", key))

	if entry, ok := s.cache.Fresh(key); ok {
		log.Info("Cache hit")
		s.metrics.RecordOutcome(metrics.OutcomeCacheHit)
		data := entry.Data
		return &data, nil
	}

	log.Debug("Cache miss")

	// The run is shared by every caller that joins the flight, so it logs
	// with the service logger rather than this request's.
	flightLog := s.log.With(logger.String("domain", key))
	v, err, shared := s.flights.Do(key, func() (any, error) {
		return s.run(context.WithoutCancel(ctx), flightLog, companyURL, key)
	})
	if err != nil {
		s.metrics.RecordOutcome(outcomeFor(err))
		return nil, err
	}
	if shared {
		log.Debug("Joined in-flight enrichment")
	}

	s.metrics.RecordOutcome(metrics.OutcomeSuccess)
	data := v.(domain.EnrichedData)
	return &data, nil
}

func (s *Service) run(ctx context.Context, log logger.Logger, companyURL, key string) (domain.EnrichedData, error) {
	// A flight that finished between our cache check and Do already did
	// the work.
	if entry, ok := s.cache.Fresh(key); ok {
		return entry.Data, nil
	}

	log.Info("Enriching", logger.String("url", companyURL))

	results := fetcher.FetchAll(ctx, s.fetcher, normalize.CandidateURLs(companyURL))
	for _, r := range results {
		s.metrics.RecordPage(r.OK())
	}

	corpus, err := content.Aggregate(results, s.budget)
	if errors.Is(err, content.ErrNoPages) {
		log.Warn("No content fetched", logger.String("url", companyURL))
		return domain.EnrichedData{}, ErrNoContent
	}
	if err != nil {
		return domain.EnrichedData{}, fmt.Errorf("aggregate: %w", err)
	}
	log.Info("Scraped pages", logger.Int("pages", len(corpus.Pages)))

	partial, err := s.extract(ctx, companyURL, corpus.Text)
	if err != nil {
		log.Error("Extraction failed", logger.Error(err))
		return domain.EnrichedData{}, &ExtractionError{Err: err}
	}

	data := assemble(partial, corpus.Pages, s.now())
	s.cache.Set(key, data)

	log.Info("Enrichment complete",
		logger.Int("bullets", len(data.Bullets)),
		logger.Int("signals", len(data.Signals)),
	)
	return data, nil
}

func (s *Service) extract(ctx context.Context, companyURL, corpus string) (extract.Partial, error) {
	if s.extractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.extractTimeout)
		defer cancel()
	}

	start := time.Now()
	partial, err := s.extractor.Extract(ctx, companyURL, corpus)
	s.metrics.ObserveModel(time.Since(start))
	return partial, err
}

func (s *Service) requestLogger(ctx context.Context) logger.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return s.log
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrNoContent):
		return metrics.OutcomeNoContent
	default:
		return metrics.OutcomeError
	}
}
