package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/suasor/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand(ctx))
	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			storage := cfg.Storage.Dir
			if storage == "" {
				storage = "(memory only)"
			}
			maxEntries := "unbounded"
			if cfg.Cache.MaxEntries > 0 {
				maxEntries = fmt.Sprint(cfg.Cache.MaxEntries)
			}
			rows := [][]string{
				{"api.base_url", cfg.API.BaseURL},
				{"api.timeout", cfg.API.Timeout.String()},
				{"cache.ttl", cfg.Cache.TTL.String()},
				{"cache.max_entries", maxEntries},
				{"storage.dir", storage},
				{"search.sources", fmt.Sprint(cfg.Search.Sources)},
				{"search.limit", fmt.Sprint(cfg.Search.Limit)},
				{"ui.success_dismiss", cfg.UI.SuccessDismiss.String()},
				{"logging.file", cfg.Logging.File},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil))
			return nil
		},
	}
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Write the default configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ctx.configDir()
			if dir == "" {
				dir = config.DefaultDir()
			}
			if err := config.Save(config.DefaultConfig(), dir); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", dir)
			return nil
		},
	}
}
