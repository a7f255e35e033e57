// Package api wires the enrichment handlers into the HTTP server.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/enrichment/internal/handler"
	"github.com/jonesrussell/north-cloud/enrichment/internal/metrics"
)

// SetupRoutes configures all API routes. Health routes are registered by
// the server builder.
func SetupRoutes(router *gin.Engine, enrichHandler *handler.EnrichHandler, m *metrics.Metrics) {
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.POST("/enrich", enrichHandler.HandleEnrich)
	router.POST("/api/enrich", enrichHandler.HandleEnrich)
}
