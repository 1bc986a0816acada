package rows

import (
	"context"
	"fmt"
	"strings"

	"adforge/internal/config"
	"adforge/internal/selection"
	"adforge/internal/services"
)

// Source yields the campaign rows that drive a run.
type Source interface {
	Records(ctx context.Context) ([]selection.Record, error)
}

// NewFromConfig builds the configured row source.
func NewFromConfig(cfg *config.Config) (Source, error) {
	switch cfg.Rows.Source {
	case config.RowSourceSheet:
		return NewSheetSource(cfg), nil
	case config.RowSourceCSV:
		return NewCSVSource(cfg.Rows.CSVPath), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "rows", "select source",
			fmt.Sprintf("unknown row source %q", cfg.Rows.Source), nil)
	}
}

// Column headers recognized in the header row, matched case-insensitively.
const (
	headerSite        = "site"
	headerAccountID   = "account id"
	headerAccountName = "account name"
	headerAdGroupID   = "ad group id"
	headerCampaign    = "campaign"
	headerMarket      = "market"
)

type columnIndex map[string]int

func indexHeader(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, label := range header {
		idx[strings.ToLower(strings.TrimSpace(label))] = i
	}
	for _, required := range []string{headerSite, headerAccountID, headerAdGroupID, headerCampaign, headerMarket} {
		if _, ok := idx[required]; !ok {
			return nil, services.Wrap(services.ErrValidation, "rows", "read header",
				fmt.Sprintf("missing column %q", required), nil)
		}
	}
	return idx, nil
}

func (idx columnIndex) cell(row []string, label string) string {
	i, ok := idx[label]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (idx columnIndex) record(row []string) selection.Record {
	return selection.Record{
		Site:         idx.cell(row, headerSite),
		AccountID:    idx.cell(row, headerAccountID),
		AccountName:  idx.cell(row, headerAccountName),
		AdGroupID:    idx.cell(row, headerAdGroupID),
		CampaignName: idx.cell(row, headerCampaign),
		Market:       idx.cell(row, headerMarket),
	}
}

func recordsFromTable(table [][]string) ([]selection.Record, error) {
	if len(table) == 0 {
		return nil, services.Wrap(services.ErrValidation, "rows", "read rows", "source is empty", nil)
	}
	idx, err := indexHeader(table[0])
	if err != nil {
		return nil, err
	}
	records := make([]selection.Record, 0, len(table)-1)
	for _, row := range table[1:] {
		rec := idx.record(row)
		if rec.Site == "" && rec.AccountID == "" && rec.AdGroupID == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
