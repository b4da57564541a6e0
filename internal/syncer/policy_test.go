package syncer

import (
	"errors"
	"testing"
	"time"

	"stockscan/internal/fetcher"
	"stockscan/internal/model"
	"stockscan/internal/store"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noLog = log.Logger{Level: log.PanicLevel}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seededPolicy(t *testing.T) (*Policy, *store.MemoryStore, *fetcher.MockFetcher) {
	t.Helper()
	st := store.NewMemoryStore()
	mock := fetcher.NewMockFetcher()
	return NewPolicy(st, mock, "1y", noLog), st, mock
}

func knownSet(st store.Store, table store.Table, t *testing.T) map[string]struct{} {
	t.Helper()
	known, err := st.Tickers(table)
	require.NoError(t, err)
	return known
}

func TestSyncAndLoad_InitialSeedsFullWindow(t *testing.T) {
	p, st, mock := seededPolicy(t)
	mock.History["AAPL"] = fetcher.GenerateDailyPoints("AAPL", date(2024, 3, 15), 250, 100, 0.1)

	series, err := p.SyncAndLoad(store.TableStockPrices, "AAPL", model.SyncInitial,
		time.Time{}, time.Time{}, map[string]struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 250, series.Len())

	persisted, err := st.ReadSeries(store.TableStockPrices, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 250, persisted.Len())

	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "history", mock.Calls[0].Method)
	assert.Equal(t, "1y", mock.Calls[0].Period)
}

func TestSyncAndLoad_DailyAppendsSingleDay(t *testing.T) {
	p, st, mock := seededPolicy(t)

	existing := fetcher.GenerateDailyPoints("AAPL", date(2024, 3, 14), 10, 100, 1)
	require.NoError(t, st.WritePoints(store.TableStockPrices, existing, false))

	mock.Latest["AAPL"] = []model.PricePoint{
		{Ticker: "AAPL", Date: date(2024, 3, 15), Close: 123.45},
	}

	series, err := p.SyncAndLoad(store.TableStockPrices, "AAPL", model.SyncDaily,
		time.Time{}, time.Time{}, knownSet(st, store.TableStockPrices, t))
	require.NoError(t, err)
	assert.Equal(t, 11, series.Len())

	closePrice, ok := series.CloseOn(date(2024, 3, 15))
	require.True(t, ok)
	assert.Equal(t, 123.45, closePrice)

	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "1d", mock.Calls[0].Period)
}

func TestSyncAndLoad_UnknownTickerForcesInitialUnderDaily(t *testing.T) {
	p, st, mock := seededPolicy(t)
	mock.History["NEWCO"] = fetcher.GenerateDailyPoints("NEWCO", date(2024, 3, 15), 100, 50, 0.2)

	series, err := p.SyncAndLoad(store.TableStockPrices, "NEWCO", model.SyncDaily,
		time.Time{}, time.Time{}, map[string]struct{}{"AAPL": {}})
	require.NoError(t, err)
	assert.Equal(t, 100, series.Len())

	// The fetch must have been the full window, not a single-day append.
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "history", mock.Calls[0].Method)
	assert.Equal(t, "1y", mock.Calls[0].Period)

	persisted, err := st.ReadSeries(store.TableStockPrices, "NEWCO")
	require.NoError(t, err)
	assert.Equal(t, 100, persisted.Len())
}

func TestSyncAndLoad_RerunUpsertsCorrection(t *testing.T) {
	p, st, mock := seededPolicy(t)

	require.NoError(t, st.WritePoints(store.TableStockPrices, []model.PricePoint{
		{Ticker: "AAPL", Date: date(2024, 3, 14), Close: 100, Volume: 5000},
	}, false))

	mock.Ranged["AAPL"] = []model.PricePoint{
		{Ticker: "AAPL", Date: date(2024, 3, 14), Close: 101.5, Volume: 9999},
	}

	series, err := p.SyncAndLoad(store.TableStockPrices, "AAPL", model.SyncRerun,
		date(2024, 3, 14), date(2024, 3, 15), knownSet(st, store.TableStockPrices, t))
	require.NoError(t, err)

	closePrice, ok := series.CloseOn(date(2024, 3, 14))
	require.True(t, ok)
	assert.Equal(t, 101.5, closePrice)

	// Partial update: volume from the original row survives the correction.
	persisted, err := st.ReadSeries(store.TableStockPrices, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), persisted.Points[0].Volume)
}

func TestSyncAndLoad_RerunInsertsWhenNoRowMatches(t *testing.T) {
	p, st, mock := seededPolicy(t)

	require.NoError(t, st.WritePoints(store.TableStockPrices, []model.PricePoint{
		{Ticker: "AAPL", Date: date(2024, 3, 13), Close: 99},
	}, false))

	mock.Ranged["AAPL"] = []model.PricePoint{
		{Ticker: "AAPL", Date: date(2024, 3, 14), Close: 102},
	}

	series, err := p.SyncAndLoad(store.TableStockPrices, "AAPL", model.SyncRerun,
		date(2024, 3, 14), date(2024, 3, 15), knownSet(st, store.TableStockPrices, t))
	require.NoError(t, err)
	assert.Equal(t, 2, series.Len())

	closePrice, ok := series.CloseOn(date(2024, 3, 14))
	require.True(t, ok)
	assert.Equal(t, 102.0, closePrice)
}

func TestSyncAndLoad_UpsertIsIdempotent(t *testing.T) {
	p, st, mock := seededPolicy(t)

	require.NoError(t, st.WritePoints(store.TableStockPrices, []model.PricePoint{
		{Ticker: "AAPL", Date: date(2024, 3, 14), Close: 100, Volume: 5000},
	}, false))
	mock.Ranged["AAPL"] = []model.PricePoint{
		{Ticker: "AAPL", Date: date(2024, 3, 14), Close: 101.5},
	}
	known := knownSet(st, store.TableStockPrices, t)

	_, err := p.SyncAndLoad(store.TableStockPrices, "AAPL", model.SyncRerun,
		date(2024, 3, 14), date(2024, 3, 15), known)
	require.NoError(t, err)
	first, err := st.ReadSeries(store.TableStockPrices, "AAPL")
	require.NoError(t, err)

	_, err = p.SyncAndLoad(store.TableStockPrices, "AAPL", model.SyncRerun,
		date(2024, 3, 14), date(2024, 3, 15), known)
	require.NoError(t, err)
	second, err := st.ReadSeries(store.TableStockPrices, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, first.Points, second.Points)
}

func TestSyncAndLoad_DBRerunNeverFetches(t *testing.T) {
	p, st, mock := seededPolicy(t)

	require.NoError(t, st.WritePoints(store.TableStockPrices,
		fetcher.GenerateDailyPoints("AAPL", date(2024, 3, 15), 20, 100, 1), false))

	series, err := p.SyncAndLoad(store.TableStockPrices, "AAPL", model.SyncDBRerun,
		time.Time{}, time.Time{}, knownSet(st, store.TableStockPrices, t))
	require.NoError(t, err)
	assert.Equal(t, 20, series.Len())
	assert.Empty(t, mock.Calls)
}

func TestSyncAndLoad_FetchFailureSurfaces(t *testing.T) {
	p, _, mock := seededPolicy(t)
	fetchErr := errors.New("network down")
	mock.Errs["AAPL"] = fetchErr

	_, err := p.SyncAndLoad(store.TableStockPrices, "AAPL", model.SyncInitial,
		time.Time{}, time.Time{}, map[string]struct{}{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fetchErr))
}

func TestSyncAndLoad_IndexRowsGetDisplayName(t *testing.T) {
	p, st, mock := seededPolicy(t)
	mock.History["^GSPC"] = fetcher.GenerateDailyPoints("^GSPC", date(2024, 3, 15), 5, 5000, 10)

	_, err := p.SyncAndLoad(store.TableIndexPrices, "^GSPC", model.SyncInitial,
		time.Time{}, time.Time{}, map[string]struct{}{})
	require.NoError(t, err)

	persisted, err := st.ReadSeries(store.TableIndexPrices, "^GSPC")
	require.NoError(t, err)
	require.NotEmpty(t, persisted.Points)
	for _, pt := range persisted.Points {
		assert.Equal(t, "S&P 500", pt.Name)
	}
}
