// Package cmd implements the enrichment command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/enrichment/internal/config"
)

const defaultConfigPath = "config.yml"

// Version is set at build time with -ldflags.
var Version = "dev"

// options holds the persistent flags.
type options struct {
	cfgFile string
	debug   bool
}

// NewRootCommand builds the command tree. Running the root command without
// a subcommand starts the HTTP server.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "enrichment",
		Short:         "Company enrichment service",
		Long:          "Scrapes a company's home, about and careers pages and extracts structured intelligence with a generative model.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newEnrichCommand(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "enrichment version %s\n", Version)
		},
	})

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// loadConfig loads and validates configuration, applying the --debug flag.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.cfgFile
	if path == "" {
		path = config.GetConfigPath(defaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}
