package model

import "time"

// NotAvailable is the placeholder for missing profile fields. Tickers without
// metadata keep their scan rows; only the descriptive columns degrade.
const NotAvailable = "N/A"

// SecurityInfo is the static per-ticker profile merged into scan rows.
// Optional fields default to NotAvailable instead of being absent.
type SecurityInfo struct {
	Ticker         string
	Sector         string
	Industry       string
	CompanyName    string
	PERatio        float64
	ForwardPERatio float64
	MarketCap      float64
	DividendYield  float64
	LastUpdated    time.Time
}

// NewSecurityInfo returns a profile with every descriptive field defaulted.
func NewSecurityInfo(ticker string) SecurityInfo {
	return SecurityInfo{
		Ticker:      ticker,
		Sector:      NotAvailable,
		Industry:    NotAvailable,
		CompanyName: NotAvailable,
	}
}

// ETFInfo describes one broad-market ETF from the monitored list.
type ETFInfo struct {
	Ticker     string
	Name       string
	AssetClass string
}
