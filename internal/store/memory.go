package store

import (
	"sync"
	"time"

	"stockscan/internal/model"
)

// MemoryStore is an in-memory Store used by tests and dry runs when no
// database path is configured.
type MemoryStore struct {
	mu        sync.Mutex
	prices    map[Table]map[string]map[time.Time]model.PricePoint
	holdings  map[HoldingsTable]map[string]model.SecurityInfo
	etfs      []model.ETFInfo
	watchlist map[string]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prices: map[Table]map[string]map[time.Time]model.PricePoint{
			TableStockPrices: {},
			TableIndexPrices: {},
		},
		holdings: map[HoldingsTable]map[string]model.SecurityInfo{
			TableSP500Holdings:  {},
			TableNASDAQHoldings: {},
		},
		watchlist: map[string]map[string]struct{}{},
	}
}

func (s *MemoryStore) ReadSeries(table Table, ticker string) (*model.PriceSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var points []model.PricePoint
	for _, p := range s.prices[table][ticker] {
		points = append(points, p)
	}
	return model.NewPriceSeries(ticker, points), nil
}

func (s *MemoryStore) WritePoints(table Table, points []model.PricePoint, clearExisting bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clearExisting {
		for _, p := range points {
			delete(s.prices[table], p.Ticker)
		}
	}
	for _, p := range points {
		byDate := s.prices[table][p.Ticker]
		if byDate == nil {
			byDate = map[time.Time]model.PricePoint{}
			s.prices[table][p.Ticker] = byDate
		}
		p.Date = model.DateOnly(p.Date)
		byDate[p.Date] = p
	}
	return nil
}

func (s *MemoryStore) UpsertPoint(table Table, point model.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDate := s.prices[table][point.Ticker]
	if byDate == nil {
		byDate = map[time.Time]model.PricePoint{}
		s.prices[table][point.Ticker] = byDate
	}
	date := model.DateOnly(point.Date)
	existing, ok := byDate[date]
	if !ok {
		point.Date = date
		byDate[date] = point
		return nil
	}
	existing.Close = point.Close
	if point.Name != "" {
		existing.Name = point.Name
	}
	byDate[date] = existing
	return nil
}

func (s *MemoryStore) Tickers(table Table) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tickers := make(map[string]struct{}, len(s.prices[table]))
	for t, byDate := range s.prices[table] {
		if len(byDate) > 0 {
			tickers[t] = struct{}{}
		}
	}
	return tickers, nil
}

func (s *MemoryStore) Truncate(table Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[table] = map[string]map[time.Time]model.PricePoint{}
	return nil
}

func (s *MemoryStore) ReadHoldings(table HoldingsTable) ([]model.SecurityInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var holdings []model.SecurityInfo
	for _, h := range s.holdings[table] {
		holdings = append(holdings, h)
	}
	return holdings, nil
}

func (s *MemoryStore) WriteHoldings(table HoldingsTable, holdings []model.SecurityInfo, clearExisting bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clearExisting {
		s.holdings[table] = map[string]model.SecurityInfo{}
	}
	for _, h := range holdings {
		s.holdings[table][h.Ticker] = h
	}
	return nil
}

func (s *MemoryStore) ETFs() ([]model.ETFInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ETFInfo(nil), s.etfs...), nil
}

func (s *MemoryStore) WriteETFs(etfs []model.ETFInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.etfs = append([]model.ETFInfo(nil), etfs...)
	return nil
}

func (s *MemoryStore) WatchlistTickers(user string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tickers []string
	for t := range s.watchlist[user] {
		tickers = append(tickers, t)
	}
	return tickers, nil
}

func (s *MemoryStore) AddWatchlistTickers(user string, tickers []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.watchlist[user]
	if set == nil {
		set = map[string]struct{}{}
		s.watchlist[user] = set
	}
	var added []string
	for _, t := range tickers {
		if _, ok := set[t]; ok {
			continue
		}
		set[t] = struct{}{}
		added = append(added, t)
	}
	return added, nil
}

func (s *MemoryStore) Close() error { return nil }
