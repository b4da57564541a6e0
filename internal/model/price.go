package model

import (
	"sort"
	"time"
)

// PricePoint is one daily closing record for a ticker.
// (Ticker, Date) is the unique key; Date is a UTC calendar date with a zero clock.
type PricePoint struct {
	Ticker         string
	Date           time.Time
	Close          float64
	Volume         int64
	SplitFactor    float64
	Name           string // index display name or holding index tag, empty for plain stocks
	PERatio        float64
	ForwardPERatio float64
}

// PriceSeries holds the date-ordered close history for one ticker.
// Dates are unique but not contiguous: weekends and market holidays are absent.
type PriceSeries struct {
	Ticker string
	Points []PricePoint
}

// NewPriceSeries builds a series from points, sorting by date and dropping
// duplicate dates (last write wins).
func NewPriceSeries(ticker string, points []PricePoint) *PriceSeries {
	byDate := make(map[time.Time]PricePoint, len(points))
	for _, p := range points {
		byDate[DateOnly(p.Date)] = p
	}
	deduped := make([]PricePoint, 0, len(byDate))
	for d, p := range byDate {
		p.Date = d
		deduped = append(deduped, p)
	}
	sort.Slice(deduped, func(i, j int) bool { return deduped[i].Date.Before(deduped[j].Date) })
	return &PriceSeries{Ticker: ticker, Points: deduped}
}

// CloseOn returns the closing price at the exact date, if present.
func (s *PriceSeries) CloseOn(date time.Time) (float64, bool) {
	d := DateOnly(date)
	i := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Date.Before(d) })
	if i < len(s.Points) && s.Points[i].Date.Equal(d) {
		return s.Points[i].Close, true
	}
	return 0, false
}

// Len returns the number of points in the series.
func (s *PriceSeries) Len() int { return len(s.Points) }

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
