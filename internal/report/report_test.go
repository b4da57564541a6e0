package report

import (
	"strings"
	"testing"
	"time"

	"stockscan/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanRow(ticker string, oneDay float64) model.ScanRow {
	return model.ScanRow{
		Ticker:      ticker,
		CompanyName: ticker + " Inc.",
		Sector:      "Technology",
		Industry:    "Software",
		Returns: map[string]float64{
			"1d_return":       oneDay,
			"1d_SP500_return": 0.01,
		},
	}
}

func sampleTable(rows ...model.ScanRow) *model.ScanTable {
	return &model.ScanTable{
		AsOf:       time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Lookbacks:  []model.LookbackSpec{{Label: "1d", Unit: model.TradingDays, Count: 1}},
		Benchmarks: []string{"SP500"},
		Rows:       rows,
	}
}

func TestBucketRows_BandsAndExclusions(t *testing.T) {
	rows := []model.ScanRow{
		scanRow("BIG", 0.25),
		scanRow("MID", 0.07),
		scanRow("TINY", 0.01),  // below the smallest threshold, excluded
		scanRow("DOWN", -0.12),
	}

	bands := BucketRows(rows, "1d_return", DefaultThresholds, DefaultThresholds)
	require.Len(t, bands, 3)

	byLabel := map[string][]model.ScanRow{}
	for _, b := range bands {
		byLabel[b.Label] = b.Rows
	}

	require.Len(t, byLabel["Up 20% to 30%"], 1)
	assert.Equal(t, "BIG", byLabel["Up 20% to 30%"][0].Ticker)
	require.Len(t, byLabel["Up 5% to 10%"], 1)
	assert.Equal(t, "MID", byLabel["Up 5% to 10%"][0].Ticker)
	require.Len(t, byLabel["Down 10% to 20%"], 1)
	assert.Equal(t, "DOWN", byLabel["Down 10% to 20%"][0].Ticker)
}

func TestBucketRows_TopBandUnbounded(t *testing.T) {
	rows := []model.ScanRow{scanRow("MOON", 3.5)}
	bands := BucketRows(rows, "1d_return", DefaultThresholds, DefaultThresholds)
	require.Len(t, bands, 1)
	assert.Equal(t, "Up 200% or more", bands[0].Label)
}

func TestScannerHTML_ContainsRowsAndBenchmarks(t *testing.T) {
	table := sampleTable(scanRow("AAPL", 0.08), scanRow("MSFT", -0.06))

	html, err := ScannerHTML("SP500 Market Scanner", table, DefaultThresholds, DefaultThresholds)
	require.NoError(t, err)

	assert.Contains(t, html, "SP500 Market Scanner")
	assert.Contains(t, html, "2024-03-15")
	assert.Contains(t, html, "AAPL")
	assert.Contains(t, html, "MSFT")
	assert.Contains(t, html, "+8.00%")
	assert.Contains(t, html, "-6.00%")
	assert.Contains(t, html, "+1.00%") // benchmark column
}

func TestBroadMarketHTML_GroupsByAssetClass(t *testing.T) {
	table := sampleTable(scanRow("SPY", 0.02), scanRow("GLD", 0.01))
	etfs := map[string]model.ETFInfo{
		"SPY": {Ticker: "SPY", Name: "S&P 500 ETF", AssetClass: "Equities"},
		"GLD": {Ticker: "GLD", Name: "SPDR Gold Shares", AssetClass: "Commodities"},
	}

	html, err := BroadMarketHTML(table, etfs)
	require.NoError(t, err)
	assert.Contains(t, html, "Equities")
	assert.Contains(t, html, "Commodities")
	// Asset classes render alphabetically.
	assert.Less(t, strings.Index(html, "Commodities"), strings.Index(html, "Equities"))
}

func TestTableCSV_HeaderAndValues(t *testing.T) {
	table := sampleTable(scanRow("AAPL", 0.0294))

	data, err := TableCSV(table)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Ticker,CompanyName,Sector,Industry,1d_return,1d_SP500_return", lines[0])
	assert.Equal(t, "AAPL,AAPL Inc.,Technology,Software,0.0294,0.0100", lines[1])
}

func TestReturnChart_RendersPNG(t *testing.T) {
	table := sampleTable(scanRow("AAPL", 0.05), scanRow("MSFT", 0.03))

	png, err := ReturnChart(table, 10)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
