package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/enrichment/internal/enrichment"
)

func newEnrichCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <url>",
		Short: "Enrich one company URL and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
				return err
			}

			data, err := d.service.Enrich(cmd.Context(), enrichment.Request{
				URL:       args[0],
				ClientKey: "cli",
			})
			if err != nil {
				return fmt.Errorf("enrich %s: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
}
