package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

const (
	// HeaderRequestID carries the request correlation ID.
	HeaderRequestID = "X-Request-ID"
	// ContextKeyRequestID is the gin context key holding the request ID.
	ContextKeyRequestID = "request_id"

	maxRequestIDLen = 128
)

// RecoveryMiddleware turns panics into a logged 500 JSON response.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("Panic recovered",
					logger.Any("error", rec),
					logger.String("path", c.Request.URL.Path),
					logger.String("method", c.Request.Method),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// RequestIDLoggerMiddleware assigns a request ID (reusing a sane inbound
// X-Request-ID) and stores a logger carrying it in the request context.
func RequestIDLoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)

		reqLog := log.With(logger.String(ContextKeyRequestID, requestID))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		c.Next()
	}
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int("status", status),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if id, ok := c.Get(ContextKeyRequestID); ok {
			if s, isString := id.(string); isString {
				fields = append(fields, logger.String(ContextKeyRequestID, s))
			}
		}

		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
			log.Error("HTTP request with errors", fields...)
			return
		}
		if strings.HasPrefix(path, "/health") || path == "/metrics" {
			log.Debug("HTTP request", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

// CORSMiddleware handles cross-origin requests from the dashboard.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	cfg.setDefaults()
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := allowedOrigin(c.GetHeader("Origin"), cfg.AllowedOrigins)
		if origin == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		h.Set("Access-Control-Max-Age", maxAge)
		if origin != "*" {
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func allowedOrigin(origin string, allowed []string) string {
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if origin != "" && a == origin {
			return origin
		}
	}
	return ""
}
