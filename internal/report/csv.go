package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSV serializes the report as comma-separated text: header, one row per
// expense, a blank line, then the totals block. Fields containing commas or
// quotes are quoted by encoding/csv, so the output re-parses with any
// standard CSV reader. An empty report produces the header and a zero-valued
// totals block.
func (r Report) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, row := range r.Rows {
		record := []string{row.DueDate, row.Description, row.Category, row.TotalValue, row.Status}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush rows: %w", err)
	}

	// Blank separator line before the totals block, as the SPA export did.
	buf.WriteByte('\n')

	w = csv.NewWriter(&buf)
	for _, record := range r.totalsRows() {
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write totals: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush totals: %w", err)
	}

	return buf.Bytes(), nil
}
