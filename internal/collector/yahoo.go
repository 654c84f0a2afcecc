package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client    *http.Client
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:  newHTTPClient(proxyURL),
		BaseURL: yahooBaseURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooRange maps a period to the chart API range parameter.
func yahooRange(p Period) string {
	if p == Period1W {
		return "5d"
	}
	return p.String()
}

type yahooMeta struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	ExchangeName       string   `json:"exchangeName"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	GMTOffset          int64    `json:"gmtoffset"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	PreviousClose      *float64 `json:"previousClose"`
	FiftyTwoWeekHigh   *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow    *float64 `json:"fiftyTwoWeekLow"`
}

type yahooResult struct {
	Meta       yahooMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func optional(v *float64) model.NullFloat {
	if v == nil {
		return model.NullFloat{}
	}
	return model.Some(*v)
}

func (f *YahooFetcher) get(ctx context.Context, u, symbol string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: yahoo has no symbol %q", model.ErrInvalidInput, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, rng string) (*yahooResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), rng)

	var chart yahooChart
	if err := f.get(ctx, u, symbol, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}
	return &chart.Chart.Result[0], nil
}

// yahooValue is the {"raw": 1.5, "fmt": "1.50"} wrapper quoteSummary uses.
type yahooValue struct {
	Raw *float64 `json:"raw"`
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				MarketCap    yahooValue `json:"marketCap"`
				TrailingPE   yahooValue `json:"trailingPE"`
				ForwardPE    yahooValue `json:"forwardPE"`
				PriceToSales yahooValue `json:"priceToSalesTrailing12Months"`
			} `json:"summaryDetail"`
			KeyStatistics struct {
				PEGRatio    yahooValue `json:"pegRatio"`
				PriceToBook yahooValue `json:"priceToBook"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				DebtToEquity     yahooValue `json:"debtToEquity"`
				ReturnOnEquity   yahooValue `json:"returnOnEquity"`
				ReturnOnAssets   yahooValue `json:"returnOnAssets"`
				ProfitMargins    yahooValue `json:"profitMargins"`
				OperatingMargins yahooValue `json:"operatingMargins"`
				GrossMargins     yahooValue `json:"grossMargins"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// fetchFundamentals fills market cap and ratios from the quoteSummary API.
func (f *YahooFetcher) fetchFundamentals(ctx context.Context, symbol string, info *model.CompanyInfo) error {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=summaryDetail,defaultKeyStatistics,financialData",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)))

	var summary yahooSummary
	if err := f.get(ctx, u, symbol, &summary); err != nil {
		return err
	}
	qs := summary.QuoteSummary
	if qs.Error != nil {
		return fmt.Errorf("yahoo api error: %s", qs.Error.Description)
	}
	if len(qs.Result) == 0 {
		return fmt.Errorf("yahoo: no fundamentals returned")
	}
	r := qs.Result[0]
	info.MarketCap = optional(r.SummaryDetail.MarketCap.Raw)
	info.PERatio = optional(r.SummaryDetail.TrailingPE.Raw)
	info.Ratios = model.FinancialRatios{
		ForwardPE:       optional(r.SummaryDetail.ForwardPE.Raw),
		PEGRatio:        optional(r.KeyStatistics.PEGRatio.Raw),
		PriceToBook:     optional(r.KeyStatistics.PriceToBook.Raw),
		PriceToSales:    optional(r.SummaryDetail.PriceToSales.Raw),
		DebtToEquity:    optional(r.FinancialData.DebtToEquity.Raw),
		ReturnOnEquity:  optional(r.FinancialData.ReturnOnEquity.Raw),
		ReturnOnAssets:  optional(r.FinancialData.ReturnOnAssets.Raw),
		ProfitMargin:    optional(r.FinancialData.ProfitMargins.Raw),
		OperatingMargin: optional(r.FinancialData.OperatingMargins.Raw),
		GrossMargin:     optional(r.FinancialData.GrossMargins.Raw),
	}
	return nil
}

func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, period Period) ([]model.PriceBar, error) {
	result, err := f.fetchChart(ctx, symbol, yahooRange(period))
	if err != nil {
		return nil, err
	}
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	quote := result.Indicators.Quote[0]
	bars := make([]model.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.PriceBar{
			// exchange-local calendar day
			Date:   model.Day(time.Unix(ts+result.Meta.GMTOffset, 0).UTC()),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(at(quote.Volume, i)),
		})
	}
	return bars, nil
}

func (f *YahooFetcher) FetchCompanyInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	result, err := f.fetchChart(ctx, symbol, "5d")
	if err != nil {
		return nil, err
	}
	m := result.Meta
	name := m.LongName
	if name == "" {
		name = m.ShortName
	}
	prev := m.PreviousClose
	if prev == nil {
		prev = m.ChartPreviousClose
	}
	info := &model.CompanyInfo{
		Symbol:        strings.ToUpper(symbol),
		Name:          name,
		Currency:      m.Currency,
		Exchange:      m.ExchangeName,
		CurrentPrice:  optional(m.RegularMarketPrice),
		PreviousClose: optional(prev),
		High52w:       optional(m.FiftyTwoWeekHigh),
		Low52w:        optional(m.FiftyTwoWeekLow),
	}
	// Fundamentals are display-only; the chart metadata is enough to go on.
	if err := f.fetchFundamentals(ctx, symbol, info); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("symbol", info.Symbol).Msg("yahoo fundamentals unavailable")
	}
	return info, nil
}
