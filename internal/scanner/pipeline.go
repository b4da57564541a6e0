package scanner

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"stockscan/internal/model"
	"stockscan/internal/returns"
	"stockscan/internal/store"
	"stockscan/internal/syncer"

	"github.com/phuslu/log"
)

// ErrEmptyScan means a rerun produced zero rows where persisted history was
// expected. It aborts the run so an empty report is never silently emailed.
var ErrEmptyScan = errors.New("scan produced no rows")

// Benchmark pairs an index symbol with the label used for its result
// columns, e.g. {"^GSPC", "SP500"} -> "1d_SP500_return".
type Benchmark struct {
	Symbol string
	Label  string
}

// DefaultBenchmarks are the indices every constituent scan is compared
// against.
var DefaultBenchmarks = []Benchmark{
	{Symbol: "^GSPC", Label: "SP500"},
	{Symbol: "^IXIC", Label: "nasdaq"},
}

// Pipeline runs one scan cycle: sync each benchmark and ticker, compute
// per-lookback returns, merge metadata, and sort. Tickers are processed
// sequentially and failures are isolated per ticker.
type Pipeline struct {
	policy *syncer.Policy
	calc   *returns.Calculator
	store  store.Store
	logger log.Logger
}

// NewPipeline creates a scan pipeline.
func NewPipeline(policy *syncer.Policy, calc *returns.Calculator, st store.Store, logger log.Logger) *Pipeline {
	return &Pipeline{policy: policy, calc: calc, store: st, logger: logger}
}

// Scan produces the scan table for one universe on one report date. A
// benchmark failure aborts the scan; a ticker failure only drops that
// ticker. In rerun and db_rerun modes an empty result is fatal.
func (p *Pipeline) Scan(universe []string, lookbacks []model.LookbackSpec, mode model.SyncMode, benchmarks []Benchmark, asOf time.Time) (*model.ScanTable, error) {
	asOf = model.DateOnly(asOf)
	rangeEnd := asOf.AddDate(0, 0, 1)

	benchmarkReturns, err := p.benchmarkReturns(lookbacks, mode, benchmarks, asOf, rangeEnd)
	if err != nil {
		return nil, err
	}

	known, err := p.store.Tickers(store.TableStockPrices)
	if err != nil {
		return nil, fmt.Errorf("list known tickers: %w", err)
	}
	profiles, err := p.profileIndex()
	if err != nil {
		return nil, fmt.Errorf("load sector metadata: %w", err)
	}

	table := &model.ScanTable{AsOf: asOf, Lookbacks: lookbacks}
	for _, b := range benchmarks {
		table.Benchmarks = append(table.Benchmarks, b.Label)
	}

	for _, ticker := range universe {
		row, ok := p.scanTicker(ticker, lookbacks, mode, asOf, rangeEnd, known, benchmarks, benchmarkReturns, profiles)
		if ok {
			table.Rows = append(table.Rows, row)
		}
	}

	sortColumn := table.SortColumn()
	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Return(sortColumn) > table.Rows[j].Return(sortColumn)
	})

	if len(table.Rows) == 0 && (mode == model.SyncRerun || mode == model.SyncDBRerun) {
		return nil, fmt.Errorf("%w: mode %s, date %s", ErrEmptyScan, mode, asOf.Format("2006-01-02"))
	}
	return table, nil
}

// benchmarkReturns syncs and computes each benchmark index once per scan.
func (p *Pipeline) benchmarkReturns(lookbacks []model.LookbackSpec, mode model.SyncMode, benchmarks []Benchmark, asOf, rangeEnd time.Time) (map[string]*model.ReturnResult, error) {
	if len(benchmarks) == 0 {
		return nil, nil
	}
	known, err := p.store.Tickers(store.TableIndexPrices)
	if err != nil {
		return nil, fmt.Errorf("list known indices: %w", err)
	}

	results := make(map[string]*model.ReturnResult, len(benchmarks))
	for _, b := range benchmarks {
		series, err := p.policy.SyncAndLoad(store.TableIndexPrices, b.Symbol, mode, asOf, rangeEnd, known)
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", b.Label, err)
		}
		res, err := p.calc.Compute(series, asOf, lookbacks)
		if err != nil {
			return nil, fmt.Errorf("benchmark %s returns: %w", b.Label, err)
		}
		results[b.Label] = res
	}
	return results, nil
}

// scanTicker runs the isolated fetch/compute cycle for one ticker. Any
// failure drops the ticker from the batch and is logged with enough context
// to reproduce.
func (p *Pipeline) scanTicker(
	ticker string,
	lookbacks []model.LookbackSpec,
	mode model.SyncMode,
	asOf, rangeEnd time.Time,
	known map[string]struct{},
	benchmarks []Benchmark,
	benchmarkReturns map[string]*model.ReturnResult,
	profiles map[string]model.SecurityInfo,
) (model.ScanRow, bool) {
	series, err := p.policy.SyncAndLoad(store.TableStockPrices, ticker, mode, asOf, rangeEnd, known)
	if err != nil {
		p.logger.Error().Err(err).
			Str("ticker", ticker).
			Str("mode", mode.String()).
			Msg("sync failed, dropping ticker from scan")
		return model.ScanRow{}, false
	}

	res, err := p.calc.Compute(series, asOf, lookbacks)
	if err != nil {
		p.logger.Error().Err(err).
			Str("ticker", ticker).
			Str("mode", mode.String()).
			Str("date", asOf.Format("2006-01-02")).
			Msg("return computation failed, dropping ticker from scan")
		return model.ScanRow{}, false
	}

	row := model.ScanRow{Ticker: ticker, Returns: make(map[string]float64, len(res.Returns))}
	for column, v := range res.Returns {
		row.Returns[column] = v
	}
	for _, lb := range lookbacks {
		for _, b := range benchmarks {
			row.Returns[lb.BenchmarkColumn(b.Label)] = benchmarkReturns[b.Label].Returns[lb.Column()]
		}
	}

	profile, ok := profiles[ticker]
	if !ok {
		profile = model.NewSecurityInfo(ticker)
	}
	row.CompanyName = profile.CompanyName
	row.Sector = profile.Sector
	row.Industry = profile.Industry
	return row, true
}

// profileIndex merges the S&P 500 and NASDAQ holdings metadata, S&P rows
// winning on overlap.
func (p *Pipeline) profileIndex() (map[string]model.SecurityInfo, error) {
	sp500, err := p.store.ReadHoldings(store.TableSP500Holdings)
	if err != nil {
		return nil, err
	}
	nasdaq, err := p.store.ReadHoldings(store.TableNASDAQHoldings)
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]model.SecurityInfo, len(sp500)+len(nasdaq))
	for _, h := range nasdaq {
		profiles[h.Ticker] = h
	}
	for _, h := range sp500 {
		profiles[h.Ticker] = h
	}
	return profiles, nil
}
