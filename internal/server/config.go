// Package server provides the gin HTTP server used by the enrichment
// service: standard middleware, health endpoints and graceful shutdown.
package server

import "time"

// Default timeouts. WriteTimeout covers a full uncached enrichment: three
// reader fetches plus one model call.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 3 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultCORSMaxAge      = 12 * time.Hour
)

// Config holds the HTTP server configuration.
type Config struct {
	Port            int
	Debug           bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORS            CORSConfig
	ServiceName     string
	ServiceVersion  string
}

// CORSConfig holds the CORS middleware configuration.
type CORSConfig struct {
	// AllowedOrigins may contain "*" to allow any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.0.0"
	}
	c.CORS.setDefaults()
}

func (c *CORSConfig) setDefaults() {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "HEAD", "POST", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Requested-With"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = DefaultCORSMaxAge
	}
}
