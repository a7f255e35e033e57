package enrichment_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/enrichment/internal/cache"
	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/enrichment"
	"github.com/jonesrussell/north-cloud/enrichment/internal/extract"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/metrics"
	"github.com/jonesrussell/north-cloud/enrichment/internal/ratelimit"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockFetcher serves canned pages; URLs not in pages are unavailable.
type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *mockFetcher) Fetch(_ context.Context, url string) domain.PageResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if text, ok := f.pages[url]; ok {
		return domain.Fetched(url, text)
	}
	return domain.Unavailable("not found")
}

func (f *mockFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// mockExtractor parses a fixed model response.
type mockExtractor struct {
	response string
	err      error
	delay    time.Duration
	calls    atomic.Int32
	corpus   atomic.Value
}

func (e *mockExtractor) Extract(_ context.Context, _, corpus string) (extract.Partial, error) {
	e.calls.Add(1)
	e.corpus.Store(corpus)
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.err != nil {
		return extract.Partial{}, e.err
	}
	return extract.Parse(e.response)
}

const fullResponse = `{"summary":"Acme builds rockets.","bullets":["Reusable boosters"],` +
	`"keywords":["space","launch"],"signals":[{"label":"Hiring","value":"Open roles","type":"positive"}],` +
	`"sources":[{"url":"https://made-up.example","scrapedAt":"2020-01-01T00:00:00Z"}]}`

type fixture struct {
	svc       *enrichment.Service
	clock     *fakeClock
	fetcher   *mockFetcher
	extractor *mockExtractor
	store     *cache.MemoryStore
}

func newFixture(t *testing.T, pages map[string]string, ex *mockExtractor) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	f := &mockFetcher{pages: pages}
	store := cache.NewMemoryStore(30*time.Minute, clock.Now)

	svc := enrichment.NewService(enrichment.Config{
		Limiter:   ratelimit.NewSlidingWindow(10, time.Minute, clock.Now),
		Cache:     store,
		Fetcher:   f,
		Extractor: ex,
		Metrics:   metrics.New(prometheus.NewRegistry()),
		Logger:    logger.NewNop(),
		Now:       clock.Now,
	})
	return &fixture{svc: svc, clock: clock, fetcher: f, extractor: ex, store: store}
}

func allPages() map[string]string {
	return map[string]string{
		"https://acme.io":         "home",
		"https://acme.io/about":   "about",
		"https://acme.io/careers": "careers",
	}
}

func TestEnrich_Success(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse})

	data, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "1.2.3.4"})
	require.NoError(t, err)

	assert.Equal(t, "Acme builds rockets.", data.Summary)
	assert.Equal(t, []string{"Reusable boosters"}, data.Bullets)
	require.Len(t, data.Sources, 3)
	assert.Equal(t, "https://acme.io", data.Sources[0].URL)
	assert.Equal(t, "https://acme.io/about", data.Sources[1].URL)
	assert.Equal(t, "https://acme.io/careers", data.Sources[2].URL)
	assert.Equal(t, fx.clock.Now(), data.CachedAt.Time())
	assert.Equal(t, 1, fx.store.Len())
}

func TestEnrich_ModelSourcesDiscarded(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse})

	data, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "https://acme.io", ClientKey: "k"})
	require.NoError(t, err)
	for _, src := range data.Sources {
		assert.NotEqual(t, "https://made-up.example", src.URL)
	}
}

func TestEnrich_EmptyURLHasNoSideEffects(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse})

	for range 3 {
		_, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "", ClientKey: "k"})
		require.ErrorIs(t, err, enrichment.ErrInvalidURL)
		assert.Equal(t, http.StatusBadRequest, enrichment.StatusFor(err))
	}

	assert.Equal(t, 0, fx.fetcher.callCount())
	assert.Equal(t, 0, fx.store.Len())

	// Invalid requests do not consume quota.
	for range 10 {
		_, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "k"})
		require.NoError(t, err)
	}
}

func TestEnrich_WhitespaceURLIsAdmitted(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse})

	_, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "   ", ClientKey: "k"})
	require.ErrorIs(t, err, enrichment.ErrNoContent)
	assert.Equal(t, 3, fx.fetcher.callCount())

	// The blank request used one unit of quota.
	for range 9 {
		_, err = fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "k"})
		require.NoError(t, err)
	}
	_, err = fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "k"})
	assert.ErrorIs(t, err, enrichment.ErrRateLimited)
}

func TestEnrich_CacheHitIsIdentical(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse})
	req := enrichment.Request{URL: "acme.io", ClientKey: "k"}

	first, err := fx.svc.Enrich(context.Background(), req)
	require.NoError(t, err)

	fx.clock.Advance(29 * time.Minute)
	second, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "https://acme.io/", ClientKey: "k"})
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, string(firstJSON), string(secondJSON))
	assert.Equal(t, int32(1), fx.extractor.calls.Load())
	assert.Equal(t, 3, fx.fetcher.callCount())
}

func TestEnrich_TTLExpiryRefetches(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse})
	req := enrichment.Request{URL: "acme.io", ClientKey: "k"}

	first, err := fx.svc.Enrich(context.Background(), req)
	require.NoError(t, err)

	fx.clock.Advance(30 * time.Minute)
	second, err := fx.svc.Enrich(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(2), fx.extractor.calls.Load())
	assert.True(t, second.CachedAt.Time().After(first.CachedAt.Time()))
}

func TestEnrich_RateLimit(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse})

	for i := range 10 {
		_, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "1.2.3.4"})
		require.NoError(t, err, "request %d", i+1)
	}

	_, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "1.2.3.4"})
	require.ErrorIs(t, err, enrichment.ErrRateLimited)
	assert.Equal(t, http.StatusTooManyRequests, enrichment.StatusFor(err))

	_, err = fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "5.6.7.8"})
	require.NoError(t, err)
}

func TestEnrich_EmptyClientKeyUsesUnknownBucket(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse})

	for range 10 {
		_, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io"})
		require.NoError(t, err)
	}
	_, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: enrichment.UnknownClient})
	assert.ErrorIs(t, err, enrichment.ErrRateLimited)
}

func TestEnrich_NoContent(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{}, &mockExtractor{response: fullResponse})

	_, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "k"})
	require.ErrorIs(t, err, enrichment.ErrNoContent)
	assert.Equal(t, http.StatusUnprocessableEntity, enrichment.StatusFor(err))
	assert.Equal(t, 0, fx.store.Len())
	assert.Equal(t, int32(0), fx.extractor.calls.Load())
	assert.Equal(t, 3, fx.fetcher.callCount())
}

func TestEnrich_PartialFetch(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://acme.io":         "home",
		"https://acme.io/careers": "careers",
	}
	fx := newFixture(t, pages, &mockExtractor{response: fullResponse})

	data, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "k"})
	require.NoError(t, err)

	require.Len(t, data.Sources, 2)
	assert.Equal(t, "https://acme.io", data.Sources[0].URL)
	assert.Equal(t, "https://acme.io/careers", data.Sources[1].URL)

	corpus, ok := fx.extractor.corpus.Load().(string)
	require.True(t, ok)
	assert.Equal(t, "=== PAGE: https://acme.io ===\nhome\n\n=== PAGE: https://acme.io/careers ===\ncareers", corpus)
}

func TestEnrich_DefaultsApplied(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: `{"keywords":["ai"]}`})

	data, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSummary, data.Summary)
	assert.NotNil(t, data.Bullets)
	assert.Empty(t, data.Bullets)
	assert.NotNil(t, data.Signals)
	assert.Equal(t, []string{"ai"}, data.Keywords)

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"bullets":[]`)
	assert.Contains(t, string(raw), `"signals":[]`)
}

func TestEnrich_ExtractionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ex       *mockExtractor
		wantText string
	}{
		{name: "model failure", ex: &mockExtractor{err: errors.New("upstream 503")}, wantText: "upstream 503"},
		{name: "invalid json", ex: &mockExtractor{response: "I am not JSON"}, wantText: "parse model response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fx := newFixture(t, allPages(), tt.ex)

			_, err := fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "k"})
			require.Error(t, err)

			var extErr *enrichment.ExtractionError
			require.ErrorAs(t, err, &extErr)
			assert.Contains(t, err.Error(), tt.wantText)
			assert.Equal(t, http.StatusInternalServerError, enrichment.StatusFor(err))
			assert.Equal(t, 0, fx.store.Len())
		})
	}
}

func TestEnrich_ConcurrentMissesShareOneModelCall(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse, delay: 50 * time.Millisecond})

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "k"})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fx.extractor.calls.Load())
}

func TestEnrich_CancelledRequestStillCompletes(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, allPages(), &mockExtractor{response: fullResponse})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data, err := fx.svc.Enrich(ctx, enrichment.Request{URL: "acme.io", ClientKey: "k"})
	require.NoError(t, err)
	assert.Len(t, data.Sources, 3)
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusOK, enrichment.StatusFor(nil))
	assert.Equal(t, http.StatusInternalServerError, enrichment.StatusFor(errors.New("boom")))
	assert.Equal(t, http.StatusUnprocessableEntity, enrichment.StatusFor(
		errors.Join(errors.New("context"), enrichment.ErrNoContent)))
}

// blockingExtractor waits for ctx to end.
type blockingExtractor struct{}

func (blockingExtractor) Extract(ctx context.Context, _, _ string) (extract.Partial, error) {
	<-ctx.Done()
	return extract.Partial{}, ctx.Err()
}

func TestEnrich_ExtractTimeout(t *testing.T) {
	t.Parallel()

	svc := enrichment.NewService(enrichment.Config{
		Limiter:        ratelimit.NewSlidingWindow(10, time.Minute, nil),
		Cache:          cache.NewMemoryStore(time.Minute, nil),
		Fetcher:        &mockFetcher{pages: allPages()},
		Extractor:      blockingExtractor{},
		Logger:         logger.NewNop(),
		ExtractTimeout: 20 * time.Millisecond,
	})

	_, err := svc.Enrich(context.Background(), enrichment.Request{URL: "acme.io", ClientKey: "k"})
	require.Error(t, err)

	var extractionErr *enrichment.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, enrichment.StatusFor(err))
}

// recordingLogger collects messages from itself and every child.
type recordingLogger struct {
	mu   *sync.Mutex
	msgs *[]string
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{mu: &sync.Mutex{}, msgs: &[]string{}}
}

func (l recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.msgs = append(*l.msgs, msg)
}

func (l recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), *l.msgs...)
}

func (l recordingLogger) Debug(msg string, _ ...logger.Field) { l.record(msg) }
func (l recordingLogger) Info(msg string, _ ...logger.Field)  { l.record(msg) }
func (l recordingLogger) Warn(msg string, _ ...logger.Field)  { l.record(msg) }
func (l recordingLogger) Error(msg string, _ ...logger.Field) { l.record(msg) }
func (l recordingLogger) With(...logger.Field) logger.Logger  { return l }
func (l recordingLogger) Sync() error                         { return nil }

func TestEnrich_PipelineLogsWithServiceLogger(t *testing.T) {
	t.Parallel()

	serviceLog := newRecordingLogger()
	requestLog := newRecordingLogger()

	svc := enrichment.NewService(enrichment.Config{
		Limiter:   ratelimit.NewSlidingWindow(10, time.Minute, nil),
		Cache:     cache.NewMemoryStore(time.Minute, nil),
		Fetcher:   &mockFetcher{pages: allPages()},
		Extractor: &mockExtractor{response: fullResponse},
		Logger:    serviceLog,
	})

	ctx := logger.WithContext(context.Background(), requestLog)
	_, err := svc.Enrich(ctx, enrichment.Request{URL: "acme.io", ClientKey: "k"})
	require.NoError(t, err)

	assert.Contains(t, requestLog.messages(), "Cache miss")
	assert.NotContains(t, requestLog.messages(), "Enriching")
	assert.NotContains(t, requestLog.messages(), "Enrichment complete")
	assert.Contains(t, serviceLog.messages(), "Enriching")
	assert.Contains(t, serviceLog.messages(), "Enrichment complete")
}
