package report

import (
	"bytes"
	"fmt"

	"stockscan/internal/model"

	"github.com/wcharczuk/go-chart/v2"
)

// ReturnChart renders a PNG bar chart of the first lookback's returns for
// the top rows of the table, attached to the emailed report.
func ReturnChart(table *model.ScanTable, topN int) ([]byte, error) {
	column := table.SortColumn()
	if column == "" || len(table.Rows) == 0 {
		return nil, fmt.Errorf("no rows to chart")
	}
	if topN > len(table.Rows) {
		topN = len(table.Rows)
	}

	bars := make([]chart.Value, 0, topN)
	for _, row := range table.Rows[:topN] {
		bars = append(bars, chart.Value{
			Label: row.Ticker,
			Value: row.Return(column) * 100,
		})
	}

	bc := chart.BarChart{
		Title:    fmt.Sprintf("Top %d by %s (%%)", topN, column),
		Width:    1024,
		Height:   512,
		BarWidth: 40,
		Bars:     bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render return chart: %w", err)
	}
	return buf.Bytes(), nil
}
