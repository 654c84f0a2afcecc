package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"StockPulse/internal/model"
)

// RestFetcher implements Fetcher against a generic bars REST API.
type RestFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRestFetcher creates a new fetcher with optional proxy support.
func NewRestFetcher(baseURL, apiKey, proxyURL string) *RestFetcher {
	return &RestFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RestFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type restCompany struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Currency      string   `json:"currency"`
	Exchange      string   `json:"exchange"`
	Price         *float64 `json:"price"`
	PreviousClose *float64 `json:"previous_close"`
	High52w       *float64 `json:"high_52w"`
	Low52w        *float64 `json:"low_52w"`
	MarketCap     *float64 `json:"market_cap"`
	PERatio       *float64 `json:"pe_ratio"`
}

func (f *RestFetcher) FetchDailyBars(ctx context.Context, symbol string, period Period) ([]model.PriceBar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d", f.BaseURL, url.QueryEscape(symbol), period.TradingDays())
	var raw []restBar
	if err := f.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	bars := make([]model.PriceBar, len(raw))
	for i, rb := range raw {
		bars[i] = model.PriceBar{
			Date:   model.Day(time.Unix(rb.Timestamp, 0).UTC()),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: int64(rb.Volume),
		}
	}
	return bars, nil
}

func (f *RestFetcher) FetchCompanyInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	endpoint := fmt.Sprintf("%s/api/v1/company?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	var c restCompany
	if err := f.get(ctx, endpoint, &c); err != nil {
		return nil, fmt.Errorf("fetch company: %w", err)
	}
	if c.Symbol == "" {
		c.Symbol = symbol
	}
	return &model.CompanyInfo{
		Symbol:        c.Symbol,
		Name:          c.Name,
		Currency:      c.Currency,
		Exchange:      c.Exchange,
		CurrentPrice:  optional(c.Price),
		PreviousClose: optional(c.PreviousClose),
		High52w:       optional(c.High52w),
		Low52w:        optional(c.Low52w),
		MarketCap:     optional(c.MarketCap),
		PERatio:       optional(c.PERatio),
	}, nil
}

func (f *RestFetcher) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: unknown symbol", model.ErrInvalidInput)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
