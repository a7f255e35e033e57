package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/enrichment/internal/config"
	"github.com/jonesrussell/north-cloud/enrichment/internal/handler"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
	"github.com/jonesrussell/north-cloud/enrichment/internal/metrics"
	"github.com/jonesrussell/north-cloud/enrichment/internal/server"
)

const (
	defaultReadTimeout = 15 * time.Second
	defaultIdleTimeout = 60 * time.Second
	// writeTimeoutSlack is added to the reader and model timeouts so an
	// uncached request can finish writing its response.
	writeTimeoutSlack = 15 * time.Second
)

// NewServer creates the HTTP server.
func NewServer(
	enrichHandler *handler.EnrichHandler,
	m *metrics.Metrics,
	cfg *config.Config,
	log logger.Logger,
) *server.Server {
	writeTimeout := cfg.Reader.Timeout + cfg.LLM.Timeout + writeTimeoutSlack

	return server.NewBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithTimeouts(defaultReadTimeout, writeTimeout, defaultIdleTimeout).
		WithMiddleware(m.Middleware()).
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, enrichHandler, m)
		}).
		Build()
}
