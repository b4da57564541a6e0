package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"stockscan/internal/model"
)

// TableCSV serializes a scan table for the file attachment, columns ordered
// as: descriptive fields, then each lookback's own return followed by its
// benchmark returns.
func TableCSV(table *model.ScanTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Ticker", "CompanyName", "Sector", "Industry"}
	for _, lb := range table.Lookbacks {
		header = append(header, lb.Column())
		for _, bench := range table.Benchmarks {
			header = append(header, lb.BenchmarkColumn(bench))
		}
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range table.Rows {
		record := []string{row.Ticker, row.CompanyName, row.Sector, row.Industry}
		for _, lb := range table.Lookbacks {
			record = append(record, strconv.FormatFloat(row.Return(lb.Column()), 'f', 4, 64))
			for _, bench := range table.Benchmarks {
				record = append(record, strconv.FormatFloat(row.Return(lb.BenchmarkColumn(bench)), 'f', 4, 64))
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row for %s: %w", row.Ticker, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
