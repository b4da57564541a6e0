package universe

import (
	"strings"
	"testing"

	"stockscan/internal/model"
	"stockscan/internal/store"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noLog = log.Logger{Level: log.PanicLevel}

func TestParsePositions_FiltersToDistinctStocks(t *testing.T) {
	input := strings.Join([]string{
		"acctId,contractDesc,position,currency,avgCost,assetClass",
		"U1,AAPL,10,USD,150.0,STK",
		"U1,USD.CAD,5000,USD,1.35,CASH",
		"U1,MSFT,5,USD,300.0,STK",
		"U2,AAPL,3,USD,140.0,STK",
		"U2,SPY 240621C00500000,1,USD,2.5,OPT",
	}, "\n")

	tickers, err := ParsePositions(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "AAPL"}, tickers)
}

func TestParsePositions_MissingColumnFails(t *testing.T) {
	_, err := ParsePositions(strings.NewReader("acctId,symbol\nU1,AAPL"))
	require.Error(t, err)
}

func TestNasdaqOnly_ExcludesSP500Overlap(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.WriteHoldings(store.TableSP500Holdings, []model.SecurityInfo{
		{Ticker: "AAPL"}, {Ticker: "MSFT"},
	}, false))
	require.NoError(t, st.WriteHoldings(store.TableNASDAQHoldings, []model.SecurityInfo{
		{Ticker: "AAPL"}, {Ticker: "PDD"}, {Ticker: "MELI"},
	}, false))

	only, err := NewLoader(st, noLog).NasdaqOnly()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"PDD", "MELI"}, only)
}

func TestParseHoldings_ReportsIncompleteRows(t *testing.T) {
	input := strings.Join([]string{
		"Ticker,Name,Sector,Industry",
		"AAPL,Apple Inc.,Technology,Consumer Electronics",
		"NVDA,,,",
	}, "\n")

	holdings, incomplete, err := parseHoldings(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	assert.Equal(t, "Apple Inc.", holdings[0].CompanyName)
	assert.Equal(t, "Technology", holdings[0].Sector)
	assert.Equal(t, model.NotAvailable, holdings[1].CompanyName)
	assert.Equal(t, []int{1}, incomplete)
}

func TestParseETFs_RequiresAssetClass(t *testing.T) {
	etfs, err := parseETFs(strings.NewReader(strings.Join([]string{
		"Ticker,Name,AssetClass",
		"SPY,S&P 500 ETF,Equities",
		"GLD,SPDR Gold Shares,Commodities",
	}, "\n")))
	require.NoError(t, err)
	require.Len(t, etfs, 2)
	assert.Equal(t, "Commodities", etfs[1].AssetClass)

	_, err = parseETFs(strings.NewReader("Ticker,Name\nSPY,S&P 500 ETF"))
	require.Error(t, err)
}

func TestWatchlist_SeedDeltaAddedOnce(t *testing.T) {
	st := store.NewMemoryStore()
	_, err := st.AddWatchlistTickers("kobe", []string{"AAPL"})
	require.NoError(t, err)

	loader := NewLoader(st, noLog)
	tickers, err := loader.Watchlist("kobe", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL"}, tickers)

	added, err := st.AddWatchlistTickers("kobe", []string{"AAPL", "NVDA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, added)
}
