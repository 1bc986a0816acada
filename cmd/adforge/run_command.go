package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"adforge/internal/ads"
	"adforge/internal/compositor"
	"adforge/internal/config"
	"adforge/internal/creative"
	"adforge/internal/dispatch"
	"adforge/internal/drive"
	"adforge/internal/ledger"
	"adforge/internal/logging"
	"adforge/internal/notifications"
	"adforge/internal/pipeline"
	"adforge/internal/rows"
	"adforge/internal/selection"
	"adforge/internal/templates"
	"adforge/internal/uploader"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		markets       []string
		campaigns     []string
		quantity      int
		allTemplates  bool
		templateNames []string
		accountID     string
		adGroupID     string
		site          string
		finalURL      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate and upload creatives for the selected campaign rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			interactive := stdinIsTerminal()
			if len(markets) == 0 && interactive {
				markets = promptList(cmd, "Markets to process (comma separated, or 'all')")
			}
			if len(campaigns) == 0 && interactive {
				campaigns = promptList(cmd, "Campaigns to process (names, 'all <TAG>', or 'all')")
			}

			opts := buildRunOptions(cmd, cfg, runFlags{
				markets:       markets,
				campaigns:     campaigns,
				quantity:      quantity,
				allTemplates:  allTemplates,
				templateNames: templateNames,
				finalURL:      finalURL,
				interactive:   interactive,
			})

			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			source, err := rows.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			if accountID != "" || adGroupID != "" || site != "" {
				source = &filteredSource{inner: source, accountID: accountID, adGroupID: adGroupID, site: site}
			}
			source = &cachedSource{inner: source}

			if interactive {
				proceed, err := confirmSelection(cmd, source, opts.Criteria)
				if err != nil {
					return err
				}
				if !proceed {
					fmt.Fprintln(cmd.OutOrStdout(), "Run aborted")
					return nil
				}
			}

			p := buildPipeline(cfg, source, store, logger)
			summary, err := p.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Rows", "Processed", "Uploaded", "Skipped", "Duration"},
				[][]string{{
					summary.RunID,
					fmt.Sprintf("%d", summary.Rows),
					fmt.Sprintf("%d", summary.Processed),
					fmt.Sprintf("%d", summary.Uploaded),
					fmt.Sprintf("%d", summary.Skipped),
					summary.Duration.Round(time.Second).String(),
				}},
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&markets, "market", nil, "Market code filters (repeatable, 'all' for every market)")
	cmd.Flags().StringSliceVar(&campaigns, "campaign", nil, "Campaign filters: exact names or 'all <TAG>'")
	cmd.Flags().IntVarP(&quantity, "quantity", "n", 0, "Creatives per ad group (default from config)")
	cmd.Flags().BoolVar(&allTemplates, "all-templates", false, "Use every eligible template instead of sampling")
	cmd.Flags().StringSliceVar(&templateNames, "template", nil, "Restrict to specific template names")
	cmd.Flags().StringVar(&accountID, "account", "", "Process only rows for this account id")
	cmd.Flags().StringVar(&adGroupID, "ad-group", "", "Process only rows for this ad group id")
	cmd.Flags().StringVar(&site, "site", "", "Process only rows for this site")
	cmd.Flags().StringVar(&finalURL, "final-url", "", "Destination URL for ad groups without enabled ads")
	return cmd
}

type runFlags struct {
	markets       []string
	campaigns     []string
	quantity      int
	allTemplates  bool
	templateNames []string
	finalURL      string
	interactive   bool
}

func buildRunOptions(cmd *cobra.Command, cfg *config.Config, flags runFlags) pipeline.RunOptions {
	quantity := flags.quantity
	if quantity <= 0 {
		quantity = cfg.Creatives.DefaultQuantity
	}
	if flags.allTemplates {
		quantity = templates.All
	}

	urlFunc := func(site string) string { return flags.finalURL }
	if flags.finalURL == "" && flags.interactive {
		urlFunc = func(site string) string {
			return promptString(cmd, fmt.Sprintf("Final URL for site %s (empty to skip)", site))
		}
	}

	return pipeline.RunOptions{
		Criteria: selection.Criteria{
			Markets:   flags.markets,
			Campaigns: flags.campaigns,
		},
		Quantity:      quantity,
		TemplateNames: flags.templateNames,
		FinalURLFunc:  urlFunc,
	}
}

// buildPipeline wires the production collaborators over the configuration.
func buildPipeline(cfg *config.Config, source rows.Source, store *ledger.Store, logger *slog.Logger) *pipeline.Pipeline {
	driveClient := drive.NewClient(cfg)
	logos := drive.NewLogoCache(cfg.Paths.LogosDir, driveClient, logger)
	selector := templates.NewSelector(driveClient, logger)
	builder := creative.NewBuilder(driveClient, selector, compositor.New(), cfg.Paths.OutputDir, logger)

	budget := dispatch.NewBudget(logger,
		dispatch.WithCeiling(cfg.Limits.RequestCeiling),
		dispatch.WithCooldown(time.Duration(cfg.Limits.CooldownMinutes)*time.Minute),
	)
	coordinator := uploader.NewCoordinator(ads.NewClient(cfg), budget, logger)

	return pipeline.New(pipeline.Deps{
		Source:   source,
		Logos:    logos,
		Builder:  builder,
		Uploader: coordinator,
		Ledger:   store,
		Notifier: notifications.NewService(cfg),
		LockPath: cfg.LockPath(),
		Logger:   logger,
	})
}

// confirmSelection previews the rows the criteria would select and asks
// the operator to proceed.
func confirmSelection(cmd *cobra.Command, source rows.Source, criteria selection.Criteria) (bool, error) {
	records, err := source.Records(cmd.Context())
	if err != nil {
		return false, fmt.Errorf("load rows: %w", err)
	}
	result := selection.Select(records, criteria)
	selected := selection.Dedup(result.Rows, nil)

	out := cmd.OutOrStdout()
	if len(selected) == 0 {
		fmt.Fprintln(out, "No rows match the selection")
		return false, nil
	}

	tableRows := make([][]string, 0, len(selected))
	for _, rec := range selected {
		tableRows = append(tableRows, []string{
			rec.Site, rec.AccountID, rec.AdGroupID, rec.CampaignName, rec.Market,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Site", "Account", "Ad Group", "Campaign", "Market"},
		tableRows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))

	answer := promptString(cmd, fmt.Sprintf("Process %d ad groups? (y/N)", len(selected)))
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes"), nil
}

// filteredSource narrows a row source to one account, ad group, or site.
type filteredSource struct {
	inner     rows.Source
	accountID string
	adGroupID string
	site      string
}

func (f *filteredSource) Records(ctx context.Context) ([]selection.Record, error) {
	records, err := f.inner.Records(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]selection.Record, 0, len(records))
	for _, rec := range records {
		if f.accountID != "" && rec.AccountID != f.accountID {
			continue
		}
		if f.adGroupID != "" && rec.AdGroupID != f.adGroupID {
			continue
		}
		if f.site != "" && !strings.EqualFold(rec.Site, f.site) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// cachedSource memoizes the first fetch so the preview and the run read
// the same snapshot without a second remote call.
type cachedSource struct {
	inner   rows.Source
	records []selection.Record
	fetched bool
	err     error
}

func (c *cachedSource) Records(ctx context.Context) ([]selection.Record, error) {
	if !c.fetched {
		c.records, c.err = c.inner.Records(ctx)
		c.fetched = true
	}
	return c.records, c.err
}
