package selection

import (
	"fmt"
	"strings"

	"adforge/internal/services"
)

// Record is one candidate campaign row from the row source. Immutable once
// read.
type Record struct {
	Site         string
	AccountID    string
	AccountName  string
	AdGroupID    string
	CampaignName string
	Market       string
}

// Key identifies the at-most-once processing unit: one ad group in one
// account.
type Key struct {
	AccountID string
	AdGroupID string
}

// ProcessedKey returns the dedup key for the record.
func (r Record) ProcessedKey() Key {
	return Key{AccountID: r.AccountID, AdGroupID: r.AdGroupID}
}

// Validate checks that the identifiers required for platform calls are
// present and numeric.
func (r Record) Validate() error {
	for _, field := range []struct{ name, value string }{
		{"account id", r.AccountID},
		{"ad group id", r.AdGroupID},
	} {
		v := strings.TrimSpace(field.value)
		if v == "" {
			return services.Wrap(services.ErrValidation, "selection", "validate", field.name+" missing", nil)
		}
		for _, ch := range v {
			if ch < '0' || ch > '9' {
				return services.Wrap(services.ErrValidation, "selection", "validate",
					fmt.Sprintf("%s %q is not numeric", field.name, v), nil)
			}
		}
	}
	return nil
}

// Criteria holds the operator-supplied filters. Empty slices mean "all".
// Campaign entries are either exact names or "all <TAG>" selecting every
// campaign whose name carries the bracketed tag marker.
type Criteria struct {
	Markets   []string
	Campaigns []string
}

// Result carries the filtered rows plus the tag extracted from an
// "all <TAG>" campaign filter, if any. When several tag filters are given
// the last one wins, matching the historical behavior.
type Result struct {
	Rows []Record
	Tag  string
}

// Select filters the candidate row-set by the criteria. Market matching is
// a case-insensitive substring test; campaign matching is exact for plain
// names and marker-based for "all <TAG>" entries. Matches across filter
// items are unioned with duplicates removed, preserving first-seen order.
func Select(rows []Record, criteria Criteria) Result {
	filtered := filterMarkets(rows, criteria.Markets)
	return filterCampaigns(filtered, criteria.Campaigns)
}

// Dedup reduces rows so each (account, ad group) key appears at most once,
// first occurrence winning. Keys already present in processed are dropped
// too, and every kept key is added to the set. The set is owned by the
// caller for the duration of one run.
func Dedup(rows []Record, processed map[Key]struct{}) []Record {
	if processed == nil {
		processed = make(map[Key]struct{}, len(rows))
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		key := row.ProcessedKey()
		if _, seen := processed[key]; seen {
			continue
		}
		processed[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

// TagMarker returns the literal marker embedded in campaign names for the
// given tag, e.g. "[ - T1 - ]".
func TagMarker(tag string) string {
	return fmt.Sprintf("[ - %s - ]", strings.ToUpper(strings.TrimSpace(tag)))
}

func filterMarkets(rows []Record, markets []string) []Record {
	cleaned := cleanFilters(markets)
	if len(cleaned) == 0 {
		return rows
	}
	var out []Record
	seen := map[Record]struct{}{}
	for _, want := range cleaned {
		for _, row := range rows {
			if !strings.Contains(strings.ToLower(row.Market), strings.ToLower(want)) {
				continue
			}
			if _, dup := seen[row]; dup {
				continue
			}
			seen[row] = struct{}{}
			out = append(out, row)
		}
	}
	return out
}

func filterCampaigns(rows []Record, campaigns []string) Result {
	cleaned := cleanFilters(campaigns)
	if len(cleaned) == 0 {
		return Result{Rows: rows}
	}
	var out []Record
	var tag string
	seen := map[Record]struct{}{}
	for _, item := range cleaned {
		if rest, ok := tagFilter(item); ok {
			tag = rest
			marker := strings.ToLower(TagMarker(rest))
			for _, row := range rows {
				if !strings.Contains(strings.ToLower(row.CampaignName), marker) {
					continue
				}
				if _, dup := seen[row]; dup {
					continue
				}
				seen[row] = struct{}{}
				out = append(out, row)
			}
			continue
		}
		for _, row := range rows {
			if row.CampaignName != item {
				continue
			}
			if _, dup := seen[row]; dup {
				continue
			}
			seen[row] = struct{}{}
			out = append(out, row)
		}
	}
	return Result{Rows: out, Tag: tag}
}

func tagFilter(item string) (string, bool) {
	lower := strings.ToLower(item)
	if !strings.HasPrefix(lower, "all ") {
		return "", false
	}
	rest := strings.ToUpper(strings.TrimSpace(item[4:]))
	if rest == "" {
		return "", false
	}
	return rest, true
}

func cleanFilters(items []string) []string {
	var out []string
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, "all") {
			return nil
		}
		out = append(out, trimmed)
	}
	return out
}
