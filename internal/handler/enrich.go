// Package handler implements the enrichment HTTP handlers.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/enrichment"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

// Response messages. The dashboard matches on these strings.
const (
	msgURLRequired   = "url is required"
	msgRateLimited   = "Rate limit exceeded. Try again in a minute."
	msgNoContent     = "Could not fetch any content from this website"
	msgInternalError = "Internal server error"
)

// maxBodyBytes caps the request body.
const maxBodyBytes = 64 * 1024

// Enricher runs one enrichment.
type Enricher interface {
	Enrich(ctx context.Context, req enrichment.Request) (*domain.EnrichedData, error)
}

// EnrichHandler serves POST /enrich.
type EnrichHandler struct {
	enricher     Enricher
	clientHeader string
	logger       logger.Logger
}

// NewEnrichHandler creates an EnrichHandler. clientHeader names the
// forwarded-address header used as the rate-limit key.
func NewEnrichHandler(enricher Enricher, clientHeader string, log logger.Logger) *EnrichHandler {
	if clientHeader == "" {
		clientHeader = "X-Forwarded-For"
	}
	return &EnrichHandler{enricher: enricher, clientHeader: clientHeader, logger: log}
}

type enrichRequest struct {
	// URL is untyped so a non-string value can be rejected explicitly.
	URL any `json:"url"`
}

// HandleEnrich validates the body and returns the enriched artifact.
func (h *EnrichHandler) HandleEnrich(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var body enrichRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Debug("Invalid enrich request body", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgURLRequired})
		return
	}
	url, ok := body.URL.(string)
	if !ok || url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgURLRequired})
		return
	}

	data, err := h.enricher.Enrich(c.Request.Context(), enrichment.Request{
		URL:       url,
		ClientKey: h.clientKey(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// clientKey returns the first address in the forwarded header, or
// enrichment.UnknownClient.
func (h *EnrichHandler) clientKey(c *gin.Context) string {
	raw := c.GetHeader(h.clientHeader)
	first, _, _ := strings.Cut(raw, ",")
	if key := strings.TrimSpace(first); key != "" {
		return key
	}
	return enrichment.UnknownClient
}

func (h *EnrichHandler) respondError(c *gin.Context, err error) {
	status := enrichment.StatusFor(err)

	var msg string
	switch {
	case errors.Is(err, enrichment.ErrInvalidURL):
		msg = msgURLRequired
	case errors.Is(err, enrichment.ErrRateLimited):
		msg = msgRateLimited
	case errors.Is(err, enrichment.ErrNoContent):
		msg = msgNoContent
	default:
		msg = err.Error()
		if msg == "" {
			msg = msgInternalError
		}
		_ = c.Error(err)
	}

	c.JSON(status, gin.H{"error": msg})
}
