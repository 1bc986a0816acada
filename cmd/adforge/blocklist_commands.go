package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"adforge/internal/ledger"
)

func newBlocklistCommand(ctx *commandContext) *cobra.Command {
	blocklistCmd := &cobra.Command{
		Use:   "blocklist",
		Short: "Manage the excluded-accounts list",
	}

	blocklistCmd.AddCommand(newBlocklistListCommand(ctx))
	blocklistCmd.AddCommand(newBlocklistAddCommand(ctx))

	return blocklistCmd
}

func newBlocklistListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show blocked accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			blocked, err := store.Blocked(cmd.Context())
			if err != nil {
				return fmt.Errorf("query blocklist: %w", err)
			}
			if len(blocked) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No blocked accounts")
				return nil
			}

			rows := make([][]string, 0, len(blocked))
			for _, b := range blocked {
				rows = append(rows, []string{
					b.AccountID,
					b.Reason,
					b.BlockedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Account", "Reason", "Blocked"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newBlocklistAddCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "add <account-id>",
		Short: "Block an account from future runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			if err := store.Block(cmd.Context(), args[0], reason); err != nil {
				return fmt.Errorf("block account: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Blocked account %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "blocked manually", "Reason recorded with the block")
	return cmd
}
