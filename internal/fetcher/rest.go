package fetcher

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"stockscan/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted price REST API,
// used when a Yahoo-independent source is configured.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON row shape from the history endpoints.
type restBar struct {
	Date        string  `json:"date"`
	Close       float64 `json:"close"`
	Volume      int64   `json:"volume"`
	SplitFactor float64 `json:"split_factor"`
}

func (f *RESTFetcher) FetchHistory(ticker, period string) ([]model.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/api/v1/history?symbol=%s&range=%s",
		f.BaseURL, url.QueryEscape(ticker), url.QueryEscape(period))
	return f.fetchBars(ticker, endpoint)
}

func (f *RESTFetcher) FetchRange(ticker string, start, end time.Time) ([]model.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/api/v1/history?symbol=%s&from=%s&to=%s",
		f.BaseURL, url.QueryEscape(ticker),
		model.DateOnly(start).Format("2006-01-02"),
		model.DateOnly(end).Format("2006-01-02"))
	return f.fetchBars(ticker, endpoint)
}

func (f *RESTFetcher) FetchProfile(ticker string) (model.SecurityInfo, error) {
	info := model.NewSecurityInfo(ticker)
	endpoint := fmt.Sprintf("%s/api/v1/profile?symbol=%s", f.BaseURL, url.QueryEscape(ticker))

	body, err := f.get(endpoint)
	if err != nil {
		return info, err
	}
	var profile struct {
		Sector      string  `json:"sector"`
		Industry    string  `json:"industry"`
		CompanyName string  `json:"company_name"`
		PERatio     float64 `json:"pe_ratio"`
		ForwardPE   float64 `json:"forward_pe_ratio"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return info, fmt.Errorf("decode profile: %w", err)
	}
	if profile.Sector != "" {
		info.Sector = profile.Sector
	}
	if profile.Industry != "" {
		info.Industry = profile.Industry
	}
	if profile.CompanyName != "" {
		info.CompanyName = profile.CompanyName
	}
	info.PERatio = profile.PERatio
	info.ForwardPERatio = profile.ForwardPE
	info.LastUpdated = time.Now().UTC()
	return info, nil
}

func (f *RESTFetcher) fetchBars(ticker, endpoint string) ([]model.PricePoint, error) {
	body, err := f.get(endpoint)
	if err != nil {
		return nil, err
	}
	var bars []restBar
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	points := make([]model.PricePoint, 0, len(bars))
	for _, b := range bars {
		date, err := time.ParseInLocation("2006-01-02", b.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse bar date %q: %w", b.Date, err)
		}
		points = append(points, model.PricePoint{
			Ticker:      ticker,
			Date:        date,
			Close:       b.Close,
			Volume:      b.Volume,
			SplitFactor: b.SplitFactor,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (f *RESTFetcher) get(endpoint string) ([]byte, error) {
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
