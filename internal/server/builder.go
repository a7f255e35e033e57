package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

// Builder assembles a Server fluently.
type Builder struct {
	config      *Config
	logger      logger.Logger
	middleware  []gin.HandlerFunc
	setupRoutes func(*gin.Engine)
}

// NewBuilder starts a builder for serviceName listening on port.
func NewBuilder(serviceName string, port int) *Builder {
	return &Builder{config: &Config{ServiceName: serviceName, Port: port}}
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(log logger.Logger) *Builder {
	b.logger = log
	return b
}

// WithDebug toggles gin debug mode.
func (b *Builder) WithDebug(debug bool) *Builder {
	b.config.Debug = debug
	return b
}

// WithVersion sets the version reported by /health.
func (b *Builder) WithVersion(version string) *Builder {
	b.config.ServiceVersion = version
	return b
}

// WithCORSOrigins sets the allowed CORS origins.
func (b *Builder) WithCORSOrigins(origins []string) *Builder {
	b.config.CORS.AllowedOrigins = origins
	return b
}

// WithTimeouts sets the read, write and idle timeouts.
func (b *Builder) WithTimeouts(read, write, idle time.Duration) *Builder {
	b.config.ReadTimeout = read
	b.config.WriteTimeout = write
	b.config.IdleTimeout = idle
	return b
}

// WithMiddleware appends middleware after the standard chain.
func (b *Builder) WithMiddleware(mw ...gin.HandlerFunc) *Builder {
	b.middleware = append(b.middleware, mw...)
	return b
}

// WithRoutes sets the route setup function.
func (b *Builder) WithRoutes(setup func(*gin.Engine)) *Builder {
	b.setupRoutes = setup
	return b
}

// Build creates the Server.
func (b *Builder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.NewNop()
	}
	return New(b.config, b.logger, b.setupRoutes, b.middleware...)
}
