package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"stockscan/internal/fetcher"
	"stockscan/internal/model"
	"stockscan/internal/store"
)

// SeedHoldings replaces an index constituent table from a CSV export. The
// Ticker column is required; Name, Sector and Industry are read when present
// and fetched from the profile source otherwise.
func (l *Loader) SeedHoldings(table store.HoldingsTable, path string, f fetcher.Fetcher) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open holdings csv: %w", err)
	}
	defer file.Close()

	holdings, incomplete, err := parseHoldings(file)
	if err != nil {
		return fmt.Errorf("parse holdings %s: %w", path, err)
	}

	for _, i := range incomplete {
		profile, err := f.FetchProfile(holdings[i].Ticker)
		if err != nil {
			l.logger.Warn().Err(err).
				Str("ticker", holdings[i].Ticker).
				Msg("profile fetch failed, keeping placeholder metadata")
			continue
		}
		profile.LastUpdated = time.Now().UTC()
		holdings[i] = profile
	}

	if err := l.store.WriteHoldings(table, holdings, true); err != nil {
		return fmt.Errorf("write holdings %s: %w", table, err)
	}
	l.logger.Info().
		Str("table", string(table)).
		Int("count", len(holdings)).
		Int("fetched", len(incomplete)).
		Msg("holdings seeded")
	return nil
}

// SeedETFs replaces the broad-market ETF list from a CSV file with Ticker,
// Name and AssetClass columns.
func (l *Loader) SeedETFs(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open etf csv: %w", err)
	}
	defer file.Close()

	etfs, err := parseETFs(file)
	if err != nil {
		return fmt.Errorf("parse etfs %s: %w", path, err)
	}
	if err := l.store.WriteETFs(etfs); err != nil {
		return fmt.Errorf("write etfs: %w", err)
	}
	l.logger.Info().Int("count", len(etfs)).Msg("broad market etf list seeded")
	return nil
}

// parseHoldings reads constituent rows and reports the indices of rows whose
// metadata columns were absent or empty.
func parseHoldings(r io.Reader) ([]model.SecurityInfo, []int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	tickerIdx, ok := col["Ticker"]
	if !ok {
		return nil, nil, fmt.Errorf("missing Ticker column")
	}
	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || len(record) <= idx {
			return ""
		}
		return record[idx]
	}

	var holdings []model.SecurityInfo
	var incomplete []int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read record: %w", err)
		}
		if len(record) <= tickerIdx || record[tickerIdx] == "" {
			continue
		}
		info := model.NewSecurityInfo(record[tickerIdx])
		complete := true
		if v := field(record, "Name"); v != "" {
			info.CompanyName = v
		} else {
			complete = false
		}
		if v := field(record, "Sector"); v != "" {
			info.Sector = v
		} else {
			complete = false
		}
		if v := field(record, "Industry"); v != "" {
			info.Industry = v
		}
		if !complete {
			incomplete = append(incomplete, len(holdings))
		}
		holdings = append(holdings, info)
	}
	return holdings, incomplete, nil
}

func parseETFs(r io.Reader) ([]model.ETFInfo, error) {
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
	for _, required := range []string{"Ticker", "Name", "AssetClass"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing %s column", required)
		}
	}

	var etfs []model.ETFInfo
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if len(record) <= col["AssetClass"] || record[col["Ticker"]] == "" {
			continue
		}
		etfs = append(etfs, model.ETFInfo{
			Ticker:     record[col["Ticker"]],
			Name:       record[col["Name"]],
			AssetClass: record[col["AssetClass"]],
		})
	}
	return etfs, nil
}
