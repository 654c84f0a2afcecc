package collector

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"StockPulse/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.PriceBar
	Info  *model.CompanyInfo
	Err   error

	mu    sync.Mutex
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, period Period) ([]model.PriceBar, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.Price, period.TradingDays(), time.Now()), nil
}

func (m *MockFetcher) FetchCompanyInfo(_ context.Context, symbol string) (*model.CompanyInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Info != nil {
		return m.Info, nil
	}
	return &model.CompanyInfo{
		Symbol:       strings.ToUpper(symbol),
		Name:         strings.ToUpper(symbol) + " (mock)",
		Currency:     "USD",
		CurrentPrice: model.Some(m.Price),
	}, nil
}

// generateMockBars produces count weekday bars ending before now, oscillating
// around basePrice so that every signal branch gets exercised.
func generateMockBars(basePrice float64, count int, now time.Time) []model.PriceBar {
	bars := make([]model.PriceBar, count)
	day := model.Day(now)
	for i := count - 1; i >= 0; i-- {
		day = day.AddDate(0, 0, -1)
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, -1)
		}
		x := float64(i)
		p := basePrice * (1 + 0.08*math.Sin(x/15) + 0.03*math.Sin(x/4) + x*0.0004)
		bars[i] = model.PriceBar{
			Date:   day,
			Open:   p * 0.998,
			High:   p * 1.008,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1_000_000 + int64(250_000*math.Abs(math.Sin(x/3))),
		}
	}
	return bars
}
