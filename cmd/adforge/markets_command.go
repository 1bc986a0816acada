package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"adforge/internal/locale"
)

func newMarketsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "markets",
		Short:       "List the supported markets and their locales",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0)
			for _, market := range locale.Markets() {
				tag, err := locale.Resolve(market)
				if err != nil {
					return err
				}
				rows = append(rows, []string{market, tag})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Market", "Locale"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}
