package model

import "time"

// ReturnResult holds one ticker's per-lookback returns for a single report
// date. Values are fractions rounded to four decimal places; an unresolvable
// lookback is recorded as an explicit 0.
type ReturnResult struct {
	Ticker  string
	Returns map[string]float64 // keyed by LookbackSpec.Column()
}

// NewReturnResult creates an empty result for a ticker.
func NewReturnResult(ticker string) *ReturnResult {
	return &ReturnResult{Ticker: ticker, Returns: make(map[string]float64)}
}

// ScanRow is one ticker's row in a scan table: its own period returns, the
// benchmark returns for the same periods, and the joined profile columns.
type ScanRow struct {
	Ticker      string
	CompanyName string
	Sector      string
	Industry    string
	Returns     map[string]float64 // own and benchmark columns
}

// Return reads a column value, defaulting to 0 for absent columns.
func (r ScanRow) Return(column string) float64 { return r.Returns[column] }

// ScanTable is the merged output of one scan cycle: one row per successfully
// processed ticker, sorted descending by the first lookback's return.
type ScanTable struct {
	AsOf       time.Time
	Lookbacks  []LookbackSpec
	Benchmarks []string
	Rows       []ScanRow
}

// SortColumn is the column the table is ordered by.
func (t *ScanTable) SortColumn() string {
	if len(t.Lookbacks) == 0 {
		return ""
	}
	return t.Lookbacks[0].Column()
}
