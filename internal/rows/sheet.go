package rows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adforge/internal/config"
	"adforge/internal/selection"
	"adforge/internal/services"
)

// HTTPDoer describes the HTTP client used by the sheet source.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SheetSource reads campaign rows from one spreadsheet range over the
// values REST API. The first row of the range is the header.
type SheetSource struct {
	baseURL       string
	token         string
	spreadsheetID string
	readRange     string
	client        HTTPDoer
}

// NewSheetSource builds a sheet source from configuration.
func NewSheetSource(cfg *config.Config) *SheetSource {
	return NewSheetSourceWith(cfg.Rows.BaseURL, cfg.Rows.AccessToken,
		cfg.Rows.SpreadsheetID, cfg.Rows.Range,
		&http.Client{Timeout: 60 * time.Second})
}

// NewSheetSourceWith constructs a sheet source with an explicit HTTP
// doer, used by tests.
func NewSheetSourceWith(baseURL, token, spreadsheetID, readRange string, doer HTTPDoer) *SheetSource {
	return &SheetSource{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:         strings.TrimSpace(token),
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		client:        doer,
	}
}

type valueRange struct {
	Values [][]string `json:"values"`
}

// Records fetches the configured range and maps its rows by the header.
func (s *SheetSource) Records(ctx context.Context) ([]selection.Record, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s",
		s.baseURL, url.PathEscape(s.spreadsheetID), url.PathEscape(s.readRange))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build values request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrPlatform, "rows", "fetch sheet", s.spreadsheetID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrPlatform, "rows", "fetch sheet",
			fmt.Sprintf("%s returned %d", s.spreadsheetID, resp.StatusCode), nil)
	}

	var vr valueRange
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, services.Wrap(services.ErrPlatform, "rows", "fetch sheet", "decode response", err)
	}
	return recordsFromTable(vr.Values)
}

var _ Source = (*SheetSource)(nil)
