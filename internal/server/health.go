package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// RegisterHealthRoutes adds GET and HEAD /health.
func RegisterHealthRoutes(router *gin.Engine, serviceName, version string, started time.Time) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: serviceName,
			Version: version,
			Uptime:  time.Since(started).Truncate(time.Second).String(),
		})
	})
	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
}
