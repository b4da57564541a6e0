package store

import (
	"stockscan/internal/model"
)

// Table identifies one of the two persisted price histories.
type Table string

const (
	// TableStockPrices holds per-ticker constituent price history.
	TableStockPrices Table = "stock_prices"
	// TableIndexPrices holds benchmark index price history.
	TableIndexPrices Table = "index_prices"
)

// HoldingsTable identifies a per-index constituent metadata table.
type HoldingsTable string

const (
	// TableSP500Holdings lists S&P 500 constituents with sector metadata.
	TableSP500Holdings HoldingsTable = "sp500_holdings"
	// TableNASDAQHoldings lists NASDAQ constituents with sector metadata.
	TableNASDAQHoldings HoldingsTable = "nasdaq_holdings"
)

// Store is the persistence contract for price history, constituent
// metadata, the broad-market ETF list and user watchlists. Implementations
// must make UpsertPoint idempotent: applying the same record twice leaves
// the stored state unchanged.
type Store interface {
	// ReadSeries returns the full persisted history for one ticker,
	// date-ordered. A ticker with no rows yields an empty series, not an
	// error.
	ReadSeries(table Table, ticker string) (*model.PriceSeries, error)

	// WritePoints inserts price rows. With clearExisting set, each written
	// ticker's previous rows are removed first (full reseed).
	WritePoints(table Table, points []model.PricePoint, clearExisting bool) error

	// UpsertPoint updates the row keyed by (ticker, date) with the fields
	// present on the point (close, and name when set), or inserts a new row
	// when no match exists.
	UpsertPoint(table Table, point model.PricePoint) error

	// Tickers returns the set of tickers that have at least one persisted
	// row in the table.
	Tickers(table Table) (map[string]struct{}, error)

	// Truncate removes every row from the table.
	Truncate(table Table) error

	// ReadHoldings returns the constituent profiles of an index.
	ReadHoldings(table HoldingsTable) ([]model.SecurityInfo, error)

	// WriteHoldings replaces or extends an index constituent list.
	WriteHoldings(table HoldingsTable, holdings []model.SecurityInfo, clearExisting bool) error

	// ETFs returns the broad-market ETF monitoring list.
	ETFs() ([]model.ETFInfo, error)

	// WriteETFs replaces the broad-market ETF monitoring list.
	WriteETFs(etfs []model.ETFInfo) error

	// WatchlistTickers returns one user's watchlist.
	WatchlistTickers(user string) ([]string, error)

	// AddWatchlistTickers appends tickers a user does not already watch and
	// reports which ones were new.
	AddWatchlistTickers(user string, tickers []string) ([]string, error)

	Close() error
}
