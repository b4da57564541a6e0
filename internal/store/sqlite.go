package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"stockscan/internal/model"

	"github.com/phuslu/log"
	_ "modernc.org/sqlite"
)

const dateFormat = "2006-01-02"

// SQLiteStore persists price history and metadata to a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger log.Logger
	mu     sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string, logger log.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so report reads do not block the sync writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stock_prices (
			ticker       TEXT NOT NULL,
			date         TEXT NOT NULL,
			close        REAL NOT NULL,
			volume       INTEGER,
			split_factor REAL,
			name         TEXT,
			PRIMARY KEY (ticker, date)
		)`,
		`CREATE TABLE IF NOT EXISTS index_prices (
			ticker       TEXT NOT NULL,
			date         TEXT NOT NULL,
			close        REAL NOT NULL,
			volume       INTEGER,
			split_factor REAL,
			name         TEXT,
			PRIMARY KEY (ticker, date)
		)`,
		`CREATE TABLE IF NOT EXISTS sp500_holdings (
			ticker       TEXT PRIMARY KEY,
			sector       TEXT,
			industry     TEXT,
			company_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS nasdaq_holdings (
			ticker       TEXT PRIMARY KEY,
			sector       TEXT,
			industry     TEXT,
			company_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS broad_market_etfs (
			ticker      TEXT PRIMARY KEY,
			name        TEXT,
			asset_class TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			user   TEXT NOT NULL,
			ticker TEXT NOT NULL,
			PRIMARY KEY (user, ticker)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_prices_date ON stock_prices(date)`,
		`CREATE INDEX IF NOT EXISTS idx_index_prices_date ON index_prices(date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}

func priceTableName(table Table) (string, error) {
	switch table {
	case TableStockPrices, TableIndexPrices:
		return string(table), nil
	default:
		return "", fmt.Errorf("unknown price table %q", table)
	}
}

func holdingsTableName(table HoldingsTable) (string, error) {
	switch table {
	case TableSP500Holdings, TableNASDAQHoldings:
		return string(table), nil
	default:
		return "", fmt.Errorf("unknown holdings table %q", table)
	}
}

func (s *SQLiteStore) ReadSeries(table Table, ticker string) (*model.PriceSeries, error) {
	name, err := priceTableName(table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		fmt.Sprintf(`SELECT date, close, volume, split_factor, name FROM %s WHERE ticker = ? ORDER BY date`, name),
		ticker,
	)
	if err != nil {
		return nil, fmt.Errorf("read series for %s: %w", ticker, err)
	}
	defer rows.Close()

	var points []model.PricePoint
	for rows.Next() {
		var (
			dateStr     string
			closePrice  float64
			volume      sql.NullInt64
			splitFactor sql.NullFloat64
			rowName     sql.NullString
		)
		if err := rows.Scan(&dateStr, &closePrice, &volume, &splitFactor, &rowName); err != nil {
			return nil, fmt.Errorf("scan series row for %s: %w", ticker, err)
		}
		date, err := time.ParseInLocation(dateFormat, dateStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q for %s: %w", dateStr, ticker, err)
		}
		points = append(points, model.PricePoint{
			Ticker:      ticker,
			Date:        date,
			Close:       closePrice,
			Volume:      volume.Int64,
			SplitFactor: splitFactor.Float64,
			Name:        rowName.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read series for %s: %w", ticker, err)
	}
	return model.NewPriceSeries(ticker, points), nil
}

func (s *SQLiteStore) WritePoints(table Table, points []model.PricePoint, clearExisting bool) error {
	name, err := priceTableName(table)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	if clearExisting {
		seen := make(map[string]struct{})
		for _, p := range points {
			if _, done := seen[p.Ticker]; done {
				continue
			}
			seen[p.Ticker] = struct{}{}
			if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE ticker = ?`, name), p.Ticker); err != nil {
				return fmt.Errorf("clear series for %s: %w", p.Ticker, err)
			}
		}
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (ticker, date, close, volume, split_factor, name) VALUES (?,?,?,?,?,?)`, name))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(
			p.Ticker,
			model.DateOnly(p.Date).Format(dateFormat),
			p.Close,
			sql.NullInt64{Int64: p.Volume, Valid: p.Volume != 0},
			sql.NullFloat64{Float64: p.SplitFactor, Valid: p.SplitFactor != 0},
			sql.NullString{String: p.Name, Valid: p.Name != ""},
		); err != nil {
			return fmt.Errorf("insert %s %s: %w", p.Ticker, p.Date.Format(dateFormat), err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) UpsertPoint(table Table, point model.PricePoint) error {
	name, err := priceTableName(table)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Partial update on conflict: close always, name only when supplied.
	// Volume and split factor from earlier syncs are preserved.
	_, err = s.db.Exec(fmt.Sprintf(
		`INSERT INTO %s (ticker, date, close, name) VALUES (?,?,?,?)
		 ON CONFLICT(ticker, date) DO UPDATE SET
			close = excluded.close,
			name  = COALESCE(NULLIF(excluded.name, ''), name)`, name),
		point.Ticker,
		model.DateOnly(point.Date).Format(dateFormat),
		point.Close,
		sql.NullString{String: point.Name, Valid: point.Name != ""},
	)
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", point.Ticker, point.Date.Format(dateFormat), err)
	}
	return nil
}

func (s *SQLiteStore) Tickers(table Table) (map[string]struct{}, error) {
	name, err := priceTableName(table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(fmt.Sprintf(`SELECT DISTINCT ticker FROM %s`, name))
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	defer rows.Close()

	tickers := make(map[string]struct{})
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers[t] = struct{}{}
	}
	return tickers, rows.Err()
}

func (s *SQLiteStore) Truncate(table Table) error {
	name, err := priceTableName(table)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s`, name)); err != nil {
		return fmt.Errorf("truncate %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) ReadHoldings(table HoldingsTable) ([]model.SecurityInfo, error) {
	name, err := holdingsTableName(table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(fmt.Sprintf(`SELECT ticker, sector, industry, company_name FROM %s`, name))
	if err != nil {
		return nil, fmt.Errorf("read holdings %s: %w", name, err)
	}
	defer rows.Close()

	var holdings []model.SecurityInfo
	for rows.Next() {
		var ticker string
		var sector, industry, companyName sql.NullString
		if err := rows.Scan(&ticker, &sector, &industry, &companyName); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		info := model.NewSecurityInfo(ticker)
		if sector.Valid && sector.String != "" {
			info.Sector = sector.String
		}
		if industry.Valid && industry.String != "" {
			info.Industry = industry.String
		}
		if companyName.Valid && companyName.String != "" {
			info.CompanyName = companyName.String
		}
		holdings = append(holdings, info)
	}
	return holdings, rows.Err()
}

func (s *SQLiteStore) WriteHoldings(table HoldingsTable, holdings []model.SecurityInfo, clearExisting bool) error {
	name, err := holdingsTableName(table)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin holdings write: %w", err)
	}
	defer tx.Rollback()

	if clearExisting {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, name)); err != nil {
			return fmt.Errorf("clear holdings %s: %w", name, err)
		}
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (ticker, sector, industry, company_name) VALUES (?,?,?,?)`, name))
	if err != nil {
		return fmt.Errorf("prepare holdings insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range holdings {
		if _, err := stmt.Exec(h.Ticker, h.Sector, h.Industry, h.CompanyName); err != nil {
			return fmt.Errorf("insert holding %s: %w", h.Ticker, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ETFs() ([]model.ETFInfo, error) {
	rows, err := s.db.Query(`SELECT ticker, name, asset_class FROM broad_market_etfs`)
	if err != nil {
		return nil, fmt.Errorf("read etf list: %w", err)
	}
	defer rows.Close()

	var etfs []model.ETFInfo
	for rows.Next() {
		var e model.ETFInfo
		var name, assetClass sql.NullString
		if err := rows.Scan(&e.Ticker, &name, &assetClass); err != nil {
			return nil, fmt.Errorf("scan etf: %w", err)
		}
		e.Name = name.String
		e.AssetClass = assetClass.String
		etfs = append(etfs, e)
	}
	return etfs, rows.Err()
}

func (s *SQLiteStore) WriteETFs(etfs []model.ETFInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin etf write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM broad_market_etfs`); err != nil {
		return fmt.Errorf("clear etf list: %w", err)
	}
	for _, e := range etfs {
		if _, err := tx.Exec(
			`INSERT INTO broad_market_etfs (ticker, name, asset_class) VALUES (?,?,?)`,
			e.Ticker, e.Name, e.AssetClass,
		); err != nil {
			return fmt.Errorf("insert etf %s: %w", e.Ticker, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) WatchlistTickers(user string) ([]string, error) {
	rows, err := s.db.Query(`SELECT ticker FROM watchlist WHERE user = ? ORDER BY ticker`, user)
	if err != nil {
		return nil, fmt.Errorf("read watchlist for %s: %w", user, err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan watchlist ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

func (s *SQLiteStore) AddWatchlistTickers(user string, tickers []string) ([]string, error) {
	existing, err := s.WatchlistTickers(user)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		have[t] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var added []string
	for _, t := range tickers {
		if _, ok := have[t]; ok {
			continue
		}
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO watchlist (user, ticker) VALUES (?,?)`, user, t); err != nil {
			return nil, fmt.Errorf("add watchlist ticker %s: %w", t, err)
		}
		have[t] = struct{}{}
		added = append(added, t)
	}
	if len(added) > 0 {
		s.logger.Info().Str("user", user).Strs("tickers", added).Msg("watchlist extended")
	}
	return added, nil
}

func (s *SQLiteStore) Close() error {
	s.logger.Info().Msg("closing sqlite store")
	return s.db.Close()
}
