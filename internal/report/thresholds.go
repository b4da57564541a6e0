package report

import (
	"fmt"
	"sort"

	"stockscan/internal/model"
)

// DefaultThresholds are the fractional move boundaries used to band scanner
// rows, applied symmetrically to gains and losses.
var DefaultThresholds = []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1, 2}

// Band is one threshold bucket of scan rows for a single lookback period.
type Band struct {
	Label string
	Rows  []model.ScanRow
}

// BucketRows splits rows into gain and loss bands for one period column.
// Rows moving less than the smallest threshold in either direction are left
// out. Bands with no rows are omitted; rows inside a band stay sorted
// descending by the period return.
func BucketRows(rows []model.ScanRow, column string, increase, decrease []float64) []Band {
	var bands []Band

	for i := len(increase) - 1; i >= 0; i-- {
		lo := increase[i]
		hi := 0.0
		label := fmt.Sprintf("Up %s or more", pct(lo))
		if i+1 < len(increase) {
			hi = increase[i+1]
			label = fmt.Sprintf("Up %s to %s", pct(lo), pct(hi))
		}
		band := Band{Label: label}
		for _, row := range rows {
			v := row.Return(column)
			if v >= lo && (hi == 0 || v < hi) {
				band.Rows = append(band.Rows, row)
			}
		}
		if len(band.Rows) > 0 {
			sortBand(&band, column, true)
			bands = append(bands, band)
		}
	}

	for i := 0; i < len(decrease); i++ {
		lo := decrease[i]
		hi := 0.0
		label := fmt.Sprintf("Down %s or more", pct(lo))
		if i+1 < len(decrease) {
			hi = decrease[i+1]
			label = fmt.Sprintf("Down %s to %s", pct(lo), pct(hi))
		}
		band := Band{Label: label}
		for _, row := range rows {
			v := -row.Return(column)
			if v >= lo && (hi == 0 || v < hi) {
				band.Rows = append(band.Rows, row)
			}
		}
		if len(band.Rows) > 0 {
			sortBand(&band, column, false)
			bands = append(bands, band)
		}
	}

	return bands
}

func sortBand(band *Band, column string, descending bool) {
	sort.SliceStable(band.Rows, func(i, j int) bool {
		if descending {
			return band.Rows[i].Return(column) > band.Rows[j].Return(column)
		}
		return band.Rows[i].Return(column) < band.Rows[j].Return(column)
	})
}

func pct(v float64) string {
	return fmt.Sprintf("%g%%", v*100)
}
