package fetcher

import (
	"time"

	"stockscan/internal/model"
)

// Fetcher defines the external price source contract. Fetches are blocking,
// one-shot attempts: no retries, no internal caching. Implementations may
// fail on unknown tickers or network errors.
type Fetcher interface {
	// FetchHistory returns daily price rows for a period string such as
	// "1d", "6mo" or "1y".
	FetchHistory(ticker, period string) ([]model.PricePoint, error)
	// FetchRange returns daily price rows for the half-open [start, end)
	// day range.
	FetchRange(ticker string, start, end time.Time) ([]model.PricePoint, error)
	// FetchProfile returns sector/industry/company metadata, with missing
	// fields defaulted rather than failing.
	FetchProfile(ticker string) (model.SecurityInfo, error)
	Name() string
}
