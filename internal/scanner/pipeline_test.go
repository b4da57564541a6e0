package scanner

import (
	"errors"
	"testing"
	"time"

	"stockscan/internal/fetcher"
	"stockscan/internal/model"
	"stockscan/internal/returns"
	"stockscan/internal/store"
	"stockscan/internal/syncer"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noLog = log.Logger{Level: log.PanicLevel}

var asOf = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) // a Friday

var testLookbacks = []model.LookbackSpec{
	{Label: "1d", Unit: model.TradingDays, Count: 1},
	{Label: "5d", Unit: model.TradingDays, Count: 5},
}

func pipelineFixture(t *testing.T) (*Pipeline, *store.MemoryStore, *fetcher.MockFetcher) {
	t.Helper()
	st := store.NewMemoryStore()
	mock := fetcher.NewMockFetcher()
	policy := syncer.NewPolicy(st, mock, "1y", noLog)
	calc := returns.NewCalculator(noLog)
	return NewPipeline(policy, calc, st, noLog), st, mock
}

// seedTicker gives a ticker 30 weekday closes ending at asOf with a constant
// per-day delta, so its 1d return is predictable.
func seedTicker(mock *fetcher.MockFetcher, ticker string, startClose, delta float64) {
	mock.History[ticker] = fetcher.GenerateDailyPoints(ticker, asOf, 30, startClose, delta)
}

func TestScan_RowsSortedByFirstLookbackDescending(t *testing.T) {
	p, _, mock := pipelineFixture(t)
	seedTicker(mock, "^GSPC", 5000, 1)
	seedTicker(mock, "^IXIC", 16000, 2)
	seedTicker(mock, "SLOW", 100, 0.1) // small daily gain
	seedTicker(mock, "FAST", 100, 5)   // large daily gain
	seedTicker(mock, "FLAT", 100, 0)

	table, err := p.Scan([]string{"SLOW", "FAST", "FLAT"}, testLookbacks,
		model.SyncInitial, DefaultBenchmarks, asOf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)

	assert.Equal(t, "FAST", table.Rows[0].Ticker)
	assert.Equal(t, "SLOW", table.Rows[1].Ticker)
	assert.Equal(t, "FLAT", table.Rows[2].Ticker)
}

func TestScan_BenchmarkColumnsAttachedToEveryRow(t *testing.T) {
	p, _, mock := pipelineFixture(t)
	seedTicker(mock, "^GSPC", 5000, 1)
	seedTicker(mock, "^IXIC", 16000, 2)
	seedTicker(mock, "AAPL", 100, 1)

	table, err := p.Scan([]string{"AAPL"}, testLookbacks, model.SyncInitial, DefaultBenchmarks, asOf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	for _, column := range []string{
		"1d_return", "5d_return",
		"1d_SP500_return", "5d_SP500_return",
		"1d_nasdaq_return", "5d_nasdaq_return",
	} {
		_, present := row.Returns[column]
		assert.True(t, present, "missing column %s", column)
	}
	// Every row shares the same benchmark values.
	assert.NotZero(t, row.Returns["1d_SP500_return"])
}

func TestScan_FailedTickerDroppedBatchContinues(t *testing.T) {
	p, _, mock := pipelineFixture(t)
	seedTicker(mock, "^GSPC", 5000, 1)
	seedTicker(mock, "^IXIC", 16000, 2)
	seedTicker(mock, "GOOD", 100, 2)
	seedTicker(mock, "ALSO", 100, 1)
	mock.Errs["BROKEN"] = errors.New("unknown ticker")

	table, err := p.Scan([]string{"GOOD", "BROKEN", "ALSO"}, testLookbacks,
		model.SyncInitial, DefaultBenchmarks, asOf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "GOOD", table.Rows[0].Ticker)
	assert.Equal(t, "ALSO", table.Rows[1].Ticker)
}

func TestScan_MissingReportDateDropsTicker(t *testing.T) {
	p, _, mock := pipelineFixture(t)
	seedTicker(mock, "^GSPC", 5000, 1)
	seedTicker(mock, "^IXIC", 16000, 2)
	seedTicker(mock, "GOOD", 100, 1)
	// STALE's history ends a week before the report date.
	mock.History["STALE"] = fetcher.GenerateDailyPoints("STALE", asOf.AddDate(0, 0, -7), 30, 100, 1)

	table, err := p.Scan([]string{"GOOD", "STALE"}, testLookbacks,
		model.SyncInitial, DefaultBenchmarks, asOf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "GOOD", table.Rows[0].Ticker)
}

func TestScan_EmptyResultFatalInRerunModes(t *testing.T) {
	p, _, mock := pipelineFixture(t)
	// Benchmarks have data, the universe does not.
	seedTicker(mock, "^GSPC", 5000, 1)
	seedTicker(mock, "^IXIC", 16000, 2)

	_, err := p.Scan([]string{}, testLookbacks, model.SyncInitial, DefaultBenchmarks, asOf)
	require.NoError(t, err, "empty result is tolerated outside rerun modes")

	_, err = p.Scan([]string{}, testLookbacks, model.SyncDBRerun, nil, asOf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyScan))
}

func TestScan_MetadataLeftJoinWithNADefaults(t *testing.T) {
	p, st, mock := pipelineFixture(t)
	seedTicker(mock, "^GSPC", 5000, 1)
	seedTicker(mock, "^IXIC", 16000, 2)
	seedTicker(mock, "AAPL", 100, 1)
	seedTicker(mock, "MYST", 50, 1)

	require.NoError(t, st.WriteHoldings(store.TableSP500Holdings, []model.SecurityInfo{
		{Ticker: "AAPL", Sector: "Technology", Industry: "Consumer Electronics", CompanyName: "Apple Inc."},
	}, false))

	table, err := p.Scan([]string{"AAPL", "MYST"}, testLookbacks,
		model.SyncInitial, DefaultBenchmarks, asOf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	byTicker := map[string]model.ScanRow{}
	for _, row := range table.Rows {
		byTicker[row.Ticker] = row
	}
	assert.Equal(t, "Technology", byTicker["AAPL"].Sector)
	assert.Equal(t, "Apple Inc.", byTicker["AAPL"].CompanyName)
	// Unknown ticker keeps its row, sector fields degrade to N/A.
	assert.Equal(t, model.NotAvailable, byTicker["MYST"].Sector)
	assert.Equal(t, model.NotAvailable, byTicker["MYST"].CompanyName)
}

func TestScan_BenchmarkFailureAbortsScan(t *testing.T) {
	p, _, mock := pipelineFixture(t)
	seedTicker(mock, "AAPL", 100, 1)
	mock.Errs["^GSPC"] = errors.New("index feed down")

	_, err := p.Scan([]string{"AAPL"}, testLookbacks, model.SyncInitial, DefaultBenchmarks, asOf)
	require.Error(t, err)
}
