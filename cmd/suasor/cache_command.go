package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Local storage utilities",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete stored preferences, recent searches and the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			keys := len(a.kv.Keys(""))
			if err := a.kv.Clear(); err != nil {
				return fmt.Errorf("failed to clear storage: %w", err)
			}
			a.logger.Info("cleared local storage", "keys", keys)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d stored entries\n", keys)
			return nil
		},
	})
	return cacheCmd
}
