package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
)

// Collector fetches raw bars and turns them into a validated PriceSeries.
type Collector struct {
	Fetcher Fetcher
	Metrics *metrics.Metrics
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, m *metrics.Metrics) *Collector {
	return &Collector{Fetcher: fetcher, Metrics: m}
}

// Collect fetches daily bars for symbol and repairs what the provider commonly
// gets wrong: order, duplicate days and empty or inverted bars. Company info
// is best effort; a failure there only logs.
func (c *Collector) Collect(ctx context.Context, symbol string, period Period) (model.PriceSeries, *model.CompanyInfo, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return model.PriceSeries{}, nil, fmt.Errorf("%w: empty symbol", model.ErrInvalidInput)
	}

	start := time.Now()
	raw, err := c.Fetcher.FetchDailyBars(ctx, symbol, period)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), start, err)
	if err != nil {
		return model.PriceSeries{}, nil, fmt.Errorf("fetch daily bars: %w", err)
	}

	series := model.PriceSeries{Symbol: symbol, Bars: Sanitize(symbol, raw)}
	if len(series.Bars) == 0 {
		return model.PriceSeries{}, nil, fmt.Errorf("%w: no usable bars for %s over %s", model.ErrInvalidInput, symbol, period)
	}
	if err := series.Validate(); err != nil {
		return model.PriceSeries{}, nil, err
	}

	info, err := c.Fetcher.FetchCompanyInfo(ctx, symbol)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return model.PriceSeries{}, nil, err
		}
		log.Warn().Err(err).Str("symbol", symbol).Msg("company info unavailable")
		info = &model.CompanyInfo{Symbol: symbol}
	}
	return series, info, nil
}

// Sanitize sorts bars by date, normalises dates to calendar days, drops
// corrupt bars and keeps the last bar reported for a repeated day.
func Sanitize(symbol string, raw []model.PriceBar) []model.PriceBar {
	bars := make([]model.PriceBar, 0, len(raw))
	for _, b := range raw {
		b.Date = model.Day(b.Date)
		if b.Close == 0 && b.Open == 0 && b.High == 0 && b.Low == 0 {
			continue
		}
		if err := b.Check(); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("dropping corrupt bar")
			continue
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			log.Warn().Str("symbol", symbol).Time("date", b.Date).Msg("duplicate bar, keeping latest")
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
