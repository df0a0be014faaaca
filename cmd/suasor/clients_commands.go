package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmcdole/suasor/internal/clients"
)

func newClientsCommand(ctx *commandContext) *cobra.Command {
	clientsCmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage media clients",
	}

	clientsCmd.AddCommand(newClientsListCommand(ctx))
	clientsCmd.AddCommand(newClientsDeleteCommand(ctx))
	return clientsCmd
}

func (c *commandContext) clientStore() (*clients.Store, error) {
	a, err := c.ensureApp()
	if err != nil {
		return nil, err
	}
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	return clients.New(a.client, a.storeOptions()), nil
}

func newClientsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured media clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.clientStore()
			if err != nil {
				return err
			}
			defer store.State().Close()

			list := store.LoadClients(cmd.Context())
			if err := storeError(store.State()); err != nil {
				return fmt.Errorf("failed to load clients: %w", err)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clients configured")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, cl := range list {
				rows = append(rows, []string{
					strconv.FormatInt(cl.ID, 10),
					cl.Name,
					string(cl.ClientType),
					string(cl.Category),
					yesNo(cl.IsEnabled),
				})
			}
			headers := []string{"ID", "Name", "Type", "Category", "Enabled"}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func newClientsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a media client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid client id %q", args[0])
			}
			store, err := ctx.clientStore()
			if err != nil {
				return err
			}
			defer store.State().Close()

			store.LoadClients(cmd.Context())
			cl := store.Client(id)
			if cl == nil {
				if err := storeError(store.State()); err != nil {
					return fmt.Errorf("failed to load clients: %w", err)
				}
				return fmt.Errorf("client %d not found", id)
			}
			if !store.DeleteClient(cmd.Context(), id, cl.ClientType) {
				return fmt.Errorf("failed to delete client %d: %w", id, storeError(store.State()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted client %s\n", cl.Name)
			return nil
		},
	}
}
