package syncer

import (
	"fmt"
	"time"

	"stockscan/internal/fetcher"
	"stockscan/internal/model"
	"stockscan/internal/store"

	"github.com/phuslu/log"
)

// indexNames maps benchmark symbols to the display name stamped onto their
// persisted rows.
var indexNames = map[string]string{
	"^GSPC": "S&P 500",
	"^IXIC": "NASDAQ",
}

// Policy decides, per ticker and run mode, whether to perform a full
// historical fetch, a single-day append, a targeted upsert, or a plain read,
// and keeps the persisted series in step. One Policy serves a whole run;
// tickers are processed sequentially.
type Policy struct {
	store   store.Store
	fetcher fetcher.Fetcher
	logger  log.Logger
	window  string // full-history fetch period, e.g. "1y"

	handlers map[model.SyncMode]handler
}

type handler func(req request) (*model.PriceSeries, error)

type request struct {
	table  store.Table
	ticker string
	start  time.Time
	end    time.Time
}

// NewPolicy creates a sync policy fetching full histories over window.
func NewPolicy(st store.Store, f fetcher.Fetcher, window string, logger log.Logger) *Policy {
	p := &Policy{store: st, fetcher: f, logger: logger, window: window}
	p.handlers = map[model.SyncMode]handler{
		model.SyncInitial: p.syncInitial,
		model.SyncDaily:   p.syncDaily,
		model.SyncRerun:   p.syncRerun,
		model.SyncDBRerun: p.readOnly,
	}
	return p
}

// SyncAndLoad refreshes one ticker's history per the run mode and returns
// the series to compute returns on. A ticker not yet present in known is
// seeded with the full history window regardless of the nominal mode, so
// incremental logic never runs against an empty series. start and end bound
// the fetch for rerun mode.
func (p *Policy) SyncAndLoad(table store.Table, ticker string, mode model.SyncMode, start, end time.Time, known map[string]struct{}) (*model.PriceSeries, error) {
	if _, seeded := known[ticker]; !seeded && mode != model.SyncInitial {
		p.logger.Info().
			Str("ticker", ticker).
			Str("mode", mode.String()).
			Msg("ticker not persisted yet, forcing initial sync")
		mode = model.SyncInitial
	}

	h, ok := p.handlers[mode]
	if !ok {
		return nil, fmt.Errorf("no handler for sync mode %s", mode)
	}
	series, err := h(request{table: table, ticker: ticker, start: start, end: end})
	if err != nil {
		return nil, fmt.Errorf("sync %s in %s mode: %w", ticker, mode, err)
	}
	return series, nil
}

// syncInitial fetches the full history window and reseeds the series.
func (p *Policy) syncInitial(req request) (*model.PriceSeries, error) {
	points, err := p.fetcher.FetchHistory(req.ticker, p.window)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	p.stampIndexName(req, points)
	if err := p.store.WritePoints(req.table, points, true); err != nil {
		return nil, fmt.Errorf("seed series: %w", err)
	}
	return model.NewPriceSeries(req.ticker, points), nil
}

// syncDaily appends the most recent day, if the source returned one, then
// reads back the full persisted series.
func (p *Policy) syncDaily(req request) (*model.PriceSeries, error) {
	points, err := p.fetcher.FetchHistory(req.ticker, "1d")
	if err != nil {
		return nil, fmt.Errorf("fetch latest day: %w", err)
	}
	if len(points) > 0 {
		p.stampIndexName(req, points)
		if err := p.store.WritePoints(req.table, points, false); err != nil {
			return nil, fmt.Errorf("append latest day: %w", err)
		}
	}
	return p.store.ReadSeries(req.table, req.ticker)
}

// syncRerun fetches the explicit day range, upserts the first returned row
// keyed on (ticker, date), then reads back the full persisted series.
func (p *Policy) syncRerun(req request) (*model.PriceSeries, error) {
	points, err := p.fetcher.FetchRange(req.ticker, req.start, req.end)
	if err != nil {
		return nil, fmt.Errorf("fetch range: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no rows returned for %s..%s",
			req.start.Format("2006-01-02"), req.end.Format("2006-01-02"))
	}

	fetched := points[0]
	correction := model.PricePoint{
		Ticker: req.ticker,
		Date:   fetched.Date,
		Close:  fetched.Close,
		Name:   p.indexName(req),
	}
	if err := p.store.UpsertPoint(req.table, correction); err != nil {
		return nil, fmt.Errorf("upsert correction: %w", err)
	}
	return p.store.ReadSeries(req.table, req.ticker)
}

// readOnly serves db_rerun: no external fetch at all.
func (p *Policy) readOnly(req request) (*model.PriceSeries, error) {
	return p.store.ReadSeries(req.table, req.ticker)
}

func (p *Policy) indexName(req request) string {
	if req.table != store.TableIndexPrices {
		return ""
	}
	return indexNames[req.ticker]
}

func (p *Policy) stampIndexName(req request, points []model.PricePoint) {
	name := p.indexName(req)
	if name == "" {
		return
	}
	for i := range points {
		points[i].Name = name
	}
}
