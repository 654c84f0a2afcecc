package collector

import (
	"context"
	"fmt"

	"StockPulse/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyBars returns raw daily bars covering period, in any order.
	FetchDailyBars(ctx context.Context, symbol string, period Period) ([]model.PriceBar, error)
	FetchCompanyInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error)
	Name() string
}

// NewFetcher builds the fetcher for a configured provider name.
func NewFetcher(provider, baseURL, apiKey, proxyURL string, mockPrice float64) (Fetcher, error) {
	switch provider {
	case "", "yahoo":
		return NewYahooFetcher(proxyURL), nil
	case "rest":
		if baseURL == "" {
			return nil, fmt.Errorf("%w: rest provider needs a base URL", model.ErrInvalidInput)
		}
		return NewRestFetcher(baseURL, apiKey, proxyURL), nil
	case "mock":
		return &MockFetcher{Price: mockPrice}, nil
	}
	return nil, fmt.Errorf("%w: unknown data provider %q", model.ErrInvalidInput, provider)
}
