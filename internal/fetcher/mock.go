package fetcher

import (
	"fmt"
	"time"

	"stockscan/internal/model"
)

// MockCall records one fetch invocation for assertions.
type MockCall struct {
	Method string // "history" or "range"
	Ticker string
	Period string
	Start  time.Time
	End    time.Time
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	History  map[string][]model.PricePoint // per ticker, full-window fetches
	Latest   map[string][]model.PricePoint // per ticker, "1d" fetches; falls back to History's last point
	Ranged   map[string][]model.PricePoint // per ticker, range fetches
	Profiles map[string]model.SecurityInfo
	Errs     map[string]error // per ticker, any fetch fails with this error

	Calls []MockCall
}

// NewMockFetcher creates an empty mock.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		History:  map[string][]model.PricePoint{},
		Latest:   map[string][]model.PricePoint{},
		Ranged:   map[string][]model.PricePoint{},
		Profiles: map[string]model.SecurityInfo{},
		Errs:     map[string]error{},
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(ticker, period string) ([]model.PricePoint, error) {
	m.Calls = append(m.Calls, MockCall{Method: "history", Ticker: ticker, Period: period})
	if err := m.Errs[ticker]; err != nil {
		return nil, err
	}
	if period == "1d" {
		if pts, ok := m.Latest[ticker]; ok {
			return pts, nil
		}
		if pts := m.History[ticker]; len(pts) > 0 {
			return pts[len(pts)-1:], nil
		}
		return nil, nil
	}
	if pts, ok := m.History[ticker]; ok {
		return pts, nil
	}
	return nil, fmt.Errorf("mock: no history for %s", ticker)
}

func (m *MockFetcher) FetchRange(ticker string, start, end time.Time) ([]model.PricePoint, error) {
	m.Calls = append(m.Calls, MockCall{Method: "range", Ticker: ticker, Start: start, End: end})
	if err := m.Errs[ticker]; err != nil {
		return nil, err
	}
	if pts, ok := m.Ranged[ticker]; ok {
		return pts, nil
	}
	var inRange []model.PricePoint
	for _, p := range m.History[ticker] {
		d := model.DateOnly(p.Date)
		if !d.Before(model.DateOnly(start)) && d.Before(model.DateOnly(end)) {
			inRange = append(inRange, p)
		}
	}
	return inRange, nil
}

func (m *MockFetcher) FetchProfile(ticker string) (model.SecurityInfo, error) {
	if err := m.Errs[ticker]; err != nil {
		return model.NewSecurityInfo(ticker), err
	}
	if info, ok := m.Profiles[ticker]; ok {
		return info, nil
	}
	return model.NewSecurityInfo(ticker), nil
}

// GenerateDailyPoints builds count weekday closes ending at end, stepping the
// price by delta per day. Weekend dates are skipped the way real data is.
func GenerateDailyPoints(ticker string, end time.Time, count int, startClose, delta float64) []model.PricePoint {
	points := make([]model.PricePoint, 0, count)
	price := startClose + float64(count-1)*delta
	d := model.DateOnly(end)
	for len(points) < count {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			points = append(points, model.PricePoint{Ticker: ticker, Date: d, Close: price, Volume: 1000000})
			price -= delta
		}
		d = d.AddDate(0, 0, -1)
	}
	// reverse to chronological order
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}
