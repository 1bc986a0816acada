package rows

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"adforge/internal/selection"
)

// CSVSource reads campaign rows from a local CSV file with the same
// header layout as the spreadsheet. Used for offline runs and tests.
type CSVSource struct {
	path string
}

// NewCSVSource builds a CSV source for the given file.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Records reads and maps every row of the file.
func (s *CSVSource) Records(ctx context.Context) ([]selection.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open row file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read row file %s: %w", s.path, err)
	}
	return recordsFromTable(table)
}

var _ Source = (*CSVSource)(nil)
