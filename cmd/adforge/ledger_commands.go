package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"adforge/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show recent creative uploads",
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

			uploads, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("query uploads: %w", err)
			}
			if len(uploads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No uploads recorded")
				return nil
			}

			rows := make([][]string, 0, len(uploads))
			for _, u := range uploads {
				rows = append(rows, []string{
					u.UploadedAt.Local().Format("2006-01-02 15:04"),
					u.Site,
					u.AccountID,
					u.AdGroupID,
					u.CreativeName,
					u.Kind,
					u.FinalURL,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Uploaded", "Site", "Account", "Ad Group", "Creative", "Kind", "Final URL"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum rows to show")
	return cmd
}
