package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"stockscan/internal/model"
	"stockscan/internal/store"

	"github.com/phuslu/log"
)

// Loader resolves the named ticker universes a scan can cover. Membership is
// external: holdings tables, a seeded watchlist and broker position exports.
type Loader struct {
	store  store.Store
	logger log.Logger
}

// NewLoader creates a universe loader.
func NewLoader(st store.Store, logger log.Logger) *Loader {
	return &Loader{store: st, logger: logger}
}

// SP500 returns the S&P 500 constituent tickers.
func (l *Loader) SP500() ([]string, error) {
	return l.holdingTickers(store.TableSP500Holdings)
}

// NasdaqOnly returns the NASDAQ constituents that are not also in the
// S&P 500, so the two scanner reports never overlap.
func (l *Loader) NasdaqOnly() ([]string, error) {
	sp500, err := l.SP500()
	if err != nil {
		return nil, err
	}
	inSP500 := make(map[string]struct{}, len(sp500))
	for _, t := range sp500 {
		inSP500[t] = struct{}{}
	}

	nasdaq, err := l.holdingTickers(store.TableNASDAQHoldings)
	if err != nil {
		return nil, err
	}
	var only []string
	for _, t := range nasdaq {
		if _, dup := inSP500[t]; !dup {
			only = append(only, t)
		}
	}
	return only, nil
}

func (l *Loader) holdingTickers(table store.HoldingsTable) ([]string, error) {
	holdings, err := l.store.ReadHoldings(table)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	tickers := make([]string, 0, len(holdings))
	for _, h := range holdings {
		tickers = append(tickers, h.Ticker)
	}
	return tickers, nil
}

// Watchlist returns a user's watchlist, first folding in any new tickers
// from the seed CSV so manual additions flow into the persisted list.
func (l *Loader) Watchlist(user, seedCSV string) ([]string, error) {
	if seedCSV != "" {
		seeded, err := ReadTickerColumn(seedCSV)
		if err != nil {
			return nil, fmt.Errorf("read watchlist seed: %w", err)
		}
		added, err := l.store.AddWatchlistTickers(user, seeded)
		if err != nil {
			return nil, err
		}
		if len(added) > 0 {
			l.logger.Info().Str("user", user).Strs("tickers", added).Msg("new watchlist tickers added")
		}
	}
	return l.store.WatchlistTickers(user)
}

// ETFs returns the broad-market ETF monitoring list tickers.
func (l *Loader) ETFs() ([]string, error) {
	etfs, err := l.store.ETFs()
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(etfs))
	for _, e := range etfs {
		tickers = append(tickers, e.Ticker)
	}
	return tickers, nil
}

// ETFInfoIndex returns the ETF list keyed by ticker for report enrichment.
func (l *Loader) ETFInfoIndex() (map[string]model.ETFInfo, error) {
	etfs, err := l.store.ETFs()
	if err != nil {
		return nil, err
	}
	index := make(map[string]model.ETFInfo, len(etfs))
	for _, e := range etfs {
		index[e.Ticker] = e
	}
	return index, nil
}

// BrokerPositions reads one or more broker position CSV exports and returns
// the distinct stock tickers held across the accounts. Non-stock asset
// classes (cash, options, FX) are skipped.
func (l *Loader) BrokerPositions(files []string) ([]string, error) {
	seen := map[string]struct{}{}
	var tickers []string
	for _, file := range files {
		fileTickers, err := readPositionsFile(file)
		if err != nil {
			return nil, fmt.Errorf("read positions %s: %w", file, err)
		}
		for _, t := range fileTickers {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tickers = append(tickers, t)
		}
	}
	l.logger.Info().Int("count", len(tickers)).Msg("broker positions loaded")
	return tickers, nil
}

func readPositionsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePositions(f)
}

// ParsePositions extracts stock tickers from a broker position export. The
// header row names the columns; contractDesc and assetClass are required.
func ParsePositions(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	descIdx, ok := col["contractDesc"]
	if !ok {
		return nil, fmt.Errorf("missing contractDesc column")
	}
	classIdx, ok := col["assetClass"]
	if !ok {
		return nil, fmt.Errorf("missing assetClass column")
	}

	var tickers []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if len(record) <= descIdx || len(record) <= classIdx {
			continue
		}
		if record[classIdx] != "STK" {
			continue
		}
		if t := record[descIdx]; t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers, nil
}

// ReadTickerColumn reads the Ticker column of a CSV file, used for
// watchlist and holdings seeds.
func ReadTickerColumn(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := -1
	for i, name := range header {
		if name == "Ticker" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("missing Ticker column in %s", path)
	}

	var tickers []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if len(record) > idx && record[idx] != "" {
			tickers = append(tickers, record[idx])
		}
	}
	return tickers, nil
}
