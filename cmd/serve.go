package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/enrichment/internal/api"
	"github.com/jonesrussell/north-cloud/enrichment/internal/handler"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the enrichment HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, err := createLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	d, err := buildDeps(cfg, log)
	if err != nil {
		log.Error("Failed to build pipeline", logger.Error(err))
		return err
	}

	done := make(chan struct{})
	defer close(done)
	d.limiter.StartSweeper(done)

	enrichHandler := handler.NewEnrichHandler(d.service, cfg.RateLimit.ClientHeader, log)
	srv := api.NewServer(enrichHandler, d.metrics, cfg, log)

	if runErr := srv.RunWithGracefulShutdown(ctx); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return runErr
	}
	return nil
}
