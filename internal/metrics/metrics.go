// Package metrics exposes Prometheus instrumentation for the enrichment
// service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeCacheHit    = "cache_hit"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeNoContent   = "no_content"
	OutcomeError       = "error"
)

// Page fetch results.
const (
	PageFetched     = "fetched"
	PageUnavailable = "unavailable"
)

// Metrics holds the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	CacheHits     prometheus.Counter
	PagesFetched  *prometheus.CounterVec
	ModelDuration prometheus.Histogram

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	HTTPActiveRequests prometheus.Gauge
}

// New registers all collectors on reg. A nil reg creates a fresh registry
// with the Go and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}
	initPipelineMetrics(m, factory)
	initHTTPMetrics(m, factory)
	return m
}

func initPipelineMetrics(m *Metrics, f promauto.Factory) {
	m.Requests = f.NewCounterVec(prometheus.CounterOpts{
		Name: "enrichment_requests_total",
		Help: "Enrichment requests by outcome",
	}, []string{"outcome"})

	m.CacheHits = f.NewCounter(prometheus.CounterOpts{
		Name: "enrichment_cache_hits_total",
		Help: "Enrichment requests served from the domain cache",
	})

	m.PagesFetched = f.NewCounterVec(prometheus.CounterOpts{
		Name: "enrichment_pages_fetched_total",
		Help: "Candidate page fetches by result",
	}, []string{"result"})

	m.ModelDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "enrichment_model_duration_seconds",
		Help:    "Time spent waiting on the generative model",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	})
}

func initHTTPMetrics(m *Metrics, f promauto.Factory) {
	m.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Name: "enrichment_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.HTTPDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "enrichment_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.HTTPActiveRequests = f.NewGauge(prometheus.GaugeOpts{
		Name: "enrichment_http_active_requests",
		Help: "HTTP requests currently in flight",
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordOutcome counts one finished enrichment request.
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeCacheHit {
		m.CacheHits.Inc()
	}
}

// RecordPage counts one candidate fetch.
func (m *Metrics) RecordPage(ok bool) {
	if m == nil {
		return
	}
	result := PageUnavailable
	if ok {
		result = PageFetched
	}
	m.PagesFetched.WithLabelValues(result).Inc()
}

// ObserveModel records one model call duration.
func (m *Metrics) ObserveModel(d time.Duration) {
	if m == nil {
		return
	}
	m.ModelDuration.Observe(d.Seconds())
}

// Middleware records request count, latency and in-flight requests per
// matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPActiveRequests.Inc()
		defer m.HTTPActiveRequests.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
