package model

import (
	"fmt"
	"time"
)

// LookbackUnit selects how a lookback count is walked back from the report date.
type LookbackUnit int

const (
	// CalendarDays subtracts the count as plain calendar days.
	CalendarDays LookbackUnit = iota
	// TradingDays walks back one calendar day at a time counting only
	// weekdays (Mon-Fri); no holiday calendar is applied.
	TradingDays
)

// LookbackSpec names a historical offset used for a period return column.
type LookbackSpec struct {
	Label string
	Unit  LookbackUnit
	Count int
}

// Target resolves the lookback date for the given report date.
func (l LookbackSpec) Target(asOf time.Time) time.Time {
	asOf = DateOnly(asOf)
	if l.Unit == CalendarDays {
		return asOf.AddDate(0, 0, -l.Count)
	}
	steps := 0
	d := asOf
	for steps < l.Count {
		d = d.AddDate(0, 0, -1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			steps++
		}
	}
	return d
}

// Column returns the result column name for this lookback, e.g. "1d_return".
func (l LookbackSpec) Column() string { return l.Label + "_return" }

// BenchmarkColumn returns the benchmark result column name for this lookback,
// e.g. "1d_SP500_return".
func (l LookbackSpec) BenchmarkColumn(benchmark string) string {
	return fmt.Sprintf("%s_%s_return", l.Label, benchmark)
}

// DefaultLookbacks is the standard twelve-period set used by every report.
// Short periods count trading days, the rest count calendar days.
var DefaultLookbacks = []LookbackSpec{
	{Label: "1d", Unit: TradingDays, Count: 1},
	{Label: "3d", Unit: TradingDays, Count: 3},
	{Label: "5d", Unit: TradingDays, Count: 5},
	{Label: "14d", Unit: CalendarDays, Count: 14},
	{Label: "21d", Unit: CalendarDays, Count: 21},
	{Label: "1mo", Unit: CalendarDays, Count: 30},
	{Label: "2mo", Unit: CalendarDays, Count: 60},
	{Label: "3mo", Unit: CalendarDays, Count: 90},
	{Label: "4mo", Unit: CalendarDays, Count: 120},
	{Label: "5mo", Unit: CalendarDays, Count: 150},
	{Label: "6mo", Unit: CalendarDays, Count: 180},
	{Label: "1y", Unit: CalendarDays, Count: 365},
}

// LookbacksByLabel selects specs from DefaultLookbacks by label, preserving
// the requested order.
func LookbacksByLabel(labels []string) ([]LookbackSpec, error) {
	byLabel := make(map[string]LookbackSpec, len(DefaultLookbacks))
	for _, l := range DefaultLookbacks {
		byLabel[l.Label] = l
	}
	specs := make([]LookbackSpec, 0, len(labels))
	for _, label := range labels {
		spec, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("unknown lookback period %q", label)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
