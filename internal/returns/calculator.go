package returns

import (
	"errors"
	"fmt"
	"math"
	"time"

	"stockscan/internal/model"

	"github.com/phuslu/log"
)

// ErrDataUnavailable means the series has no close for the report date
// itself. The caller drops the ticker from the batch; it is never fatal to
// the run.
var ErrDataUnavailable = errors.New("no price data for report date")

// neighborOffsets is the fixed fallback search order, in calendar days
// around the target lookback date.
var neighborOffsets = [...]int{-1, 1, -2, 2, -3, 3}

// Calculator computes multi-period returns over a price series.
type Calculator struct {
	logger log.Logger
}

// NewCalculator creates a Calculator writing degradation events to logger.
func NewCalculator(logger log.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// Compute calculates the return for every lookback against the close at
// asOf. A missing report-date close fails the whole ticker with
// ErrDataUnavailable. A lookback whose target date and all six neighbor
// dates are absent, or whose stored close cannot be divided by, degrades to
// an explicit 0 for that label only.
func (c *Calculator) Compute(series *model.PriceSeries, asOf time.Time, lookbacks []model.LookbackSpec) (*model.ReturnResult, error) {
	asOf = model.DateOnly(asOf)
	reportClose, ok := series.CloseOn(asOf)
	if !ok {
		return nil, fmt.Errorf("%w: ticker %s, date %s", ErrDataUnavailable, series.Ticker, asOf.Format("2006-01-02"))
	}

	result := model.NewReturnResult(series.Ticker)
	for _, lb := range lookbacks {
		result.Returns[lb.Column()] = c.periodReturn(series, reportClose, asOf, lb)
	}
	return result, nil
}

// periodReturn resolves one lookback: exact target date first, then the
// neighbor window, then the explicit-zero fallback.
func (c *Calculator) periodReturn(series *model.PriceSeries, reportClose float64, asOf time.Time, lb model.LookbackSpec) float64 {
	target := lb.Target(asOf)

	if lookbackClose, ok := series.CloseOn(target); ok {
		return c.ratio(series.Ticker, lb.Label, reportClose, lookbackClose)
	}

	for _, off := range neighborOffsets {
		neighbor := target.AddDate(0, 0, off)
		if lookbackClose, ok := series.CloseOn(neighbor); ok {
			return c.ratio(series.Ticker, lb.Label, reportClose, lookbackClose)
		}
	}

	c.logger.Warn().
		Str("ticker", series.Ticker).
		Str("period", lb.Label).
		Str("target", target.Format("2006-01-02")).
		Msg("no price at target date or neighbors, recording zero return")
	return 0
}

func (c *Calculator) ratio(ticker, label string, reportClose, lookbackClose float64) float64 {
	if lookbackClose == 0 {
		c.logger.Error().
			Str("ticker", ticker).
			Str("period", label).
			Msg("zero lookback close, recording zero return")
		return 0
	}
	return Round4(reportClose/lookbackClose - 1)
}

// Round4 rounds a fractional return to four decimal places.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
