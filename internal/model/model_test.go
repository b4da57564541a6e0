package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyncMode(t *testing.T) {
	for _, want := range []SyncMode{SyncInitial, SyncDaily, SyncRerun, SyncDBRerun} {
		got, err := ParseSyncMode(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseSyncMode("weekly")
	assert.Error(t, err)
}

func TestLookbackTarget_TradingDaysSkipWeekend(t *testing.T) {
	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	oneDay := LookbackSpec{Label: "1d", Unit: TradingDays, Count: 1}
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), oneDay.Target(monday)) // Friday

	threeDays := LookbackSpec{Label: "3d", Unit: TradingDays, Count: 3}
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), threeDays.Target(monday)) // Wednesday
}

func TestLookbackTarget_CalendarDays(t *testing.T) {
	asOf := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	month := LookbackSpec{Label: "1mo", Unit: CalendarDays, Count: 30}
	assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), month.Target(asOf))
}

func TestLookbackColumns(t *testing.T) {
	lb := LookbackSpec{Label: "5d", Unit: TradingDays, Count: 5}
	assert.Equal(t, "5d_return", lb.Column())
	assert.Equal(t, "5d_SP500_return", lb.BenchmarkColumn("SP500"))
}

func TestLookbacksByLabel(t *testing.T) {
	specs, err := LookbacksByLabel([]string{"1y", "1d"})
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "1y", specs[0].Label)
	assert.Equal(t, "1d", specs[1].Label)

	_, err = LookbacksByLabel([]string{"7d"})
	assert.Error(t, err)
}

func TestNewPriceSeries_DedupesAndSorts(t *testing.T) {
	d1 := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	series := NewPriceSeries("AAPL", []PricePoint{
		{Ticker: "AAPL", Date: d2, Close: 101},
		{Ticker: "AAPL", Date: d1, Close: 99},
		{Ticker: "AAPL", Date: d2.Add(15 * time.Hour), Close: 102}, // same day, last wins
	})

	require.Equal(t, 2, series.Len())
	assert.Equal(t, d1, series.Points[0].Date)
	assert.Equal(t, 102.0, series.Points[1].Close)

	close, ok := series.CloseOn(d2)
	require.True(t, ok)
	assert.Equal(t, 102.0, close)

	_, ok = series.CloseOn(d2.AddDate(0, 0, 1))
	assert.False(t, ok)
}
