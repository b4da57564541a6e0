package fetcher

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"stockscan/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
type YahooFetcher struct {
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy
// support.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SP500":  "^GSPC",
			"NASDAQ": "^IXIC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Splits map[string]struct {
					Date        int64   `json:"date"`
					Numerator   float64 `json:"numerator"`
					Denominator float64 `json:"denominator"`
				} `json:"splits"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (f *YahooFetcher) fetchChart(ticker string, query url.Values) ([]model.PricePoint, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?%s",
		url.PathEscape(f.yahooSymbol(ticker)), query.Encode())

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", ticker)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	splitByDate := make(map[time.Time]float64)
	for _, sp := range result.Events.Splits {
		if sp.Denominator != 0 {
			splitByDate[model.DateOnly(time.Unix(sp.Date, 0))] = sp.Numerator / sp.Denominator
		}
	}

	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice := toFloat(quote.Close[i])
		if closePrice == 0 {
			continue // null bars on holidays
		}
		date := model.DateOnly(time.Unix(ts, 0))
		points = append(points, model.PricePoint{
			Ticker:      ticker,
			Date:        date,
			Close:       closePrice,
			Volume:      int64(toFloat(quote.Volume[i])),
			SplitFactor: splitByDate[date],
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (f *YahooFetcher) FetchHistory(ticker, period string) ([]model.PricePoint, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("range", period)
	query.Set("events", "splits")
	return f.fetchChart(ticker, query)
}

func (f *YahooFetcher) FetchRange(ticker string, start, end time.Time) ([]model.PricePoint, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("period1", strconv.FormatInt(model.DateOnly(start).Unix(), 10))
	query.Set("period2", strconv.FormatInt(model.DateOnly(end).Unix(), 10))
	query.Set("events", "splits")
	return f.fetchChart(ticker, query)
}

// yahooSummary is the quoteSummary response shape. Numeric fields arrive as
// {"raw": n, "fmt": "..."} objects.
type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
			Price struct {
				LongName string `json:"longName"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE    rawValue `json:"trailingPE"`
				ForwardPE     rawValue `json:"forwardPE"`
				MarketCap     rawValue `json:"marketCap"`
				DividendYield rawValue `json:"dividendYield"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type rawValue struct {
	Raw float64 `json:"raw"`
}

// FetchProfile returns sector/industry/company metadata for a ticker.
// Fields Yahoo does not know are left at their "N/A" defaults; only
// transport-level failures are returned as errors.
func (f *YahooFetcher) FetchProfile(ticker string) (model.SecurityInfo, error) {
	info := model.NewSecurityInfo(ticker)

	u := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=assetProfile%%2Cprice%%2CsummaryDetail",
		url.PathEscape(f.yahooSymbol(ticker)))
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return info, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return info, fmt.Errorf("yahoo profile fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return info, fmt.Errorf("yahoo profile read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("yahoo profile: status %d, body: %s", resp.StatusCode, string(body))
	}

	var summary yahooSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return info, fmt.Errorf("yahoo profile decode: %w", err)
	}
	if summary.QuoteSummary.Error != nil || len(summary.QuoteSummary.Result) == 0 {
		return info, nil // unknown ticker profile, keep defaults
	}

	r := summary.QuoteSummary.Result[0]
	if r.AssetProfile.Sector != "" {
		info.Sector = r.AssetProfile.Sector
	}
	if r.AssetProfile.Industry != "" {
		info.Industry = r.AssetProfile.Industry
	}
	if r.Price.LongName != "" {
		info.CompanyName = r.Price.LongName
	}
	info.PERatio = r.SummaryDetail.TrailingPE.Raw
	info.ForwardPERatio = r.SummaryDetail.ForwardPE.Raw
	info.MarketCap = r.SummaryDetail.MarketCap.Raw
	info.DividendYield = r.SummaryDetail.DividendYield.Raw
	info.LastUpdated = time.Now().UTC()
	return info, nil
}
