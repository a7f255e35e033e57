package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

// Server is an HTTP server with lifecycle management.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger logger.Logger
	config *Config
}

// New creates a server. Middleware runs in this order: recovery, request
// ID, access log, CORS, extra middleware; then health routes and the
// routes added by setupRoutes.
func New(cfg *Config, log logger.Logger, setupRoutes func(*gin.Engine), extra ...gin.HandlerFunc) *Server {
	cfg.SetDefaults()

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDLoggerMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(extra...)

	RegisterHealthRoutes(router, cfg.ServiceName, cfg.ServiceVersion, time.Now())
	if setupRoutes != nil {
		setupRoutes(router)
	}

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: log,
		config: cfg,
	}
}

// Router returns the gin engine.
func (s *Server) Router() *gin.Engine { return s.router }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.server.Addr }

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		logger.String("address", s.server.Addr),
		logger.String("service", s.config.ServiceName),
		logger.String("version", s.config.ServiceVersion),
	)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains connections within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", logger.Duration("timeout", s.config.ShutdownTimeout))

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

// RunWithGracefulShutdown serves until SIGINT, SIGTERM or ctx is done, then
// shuts down.
func (s *Server) RunWithGracefulShutdown(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.logger.Info("Shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
		s.logger.Info("Context cancelled, shutting down")
	}

	return s.Shutdown(context.WithoutCancel(ctx))
}
