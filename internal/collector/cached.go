package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/cache"
	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
)

// CachedFetcher wraps a Fetcher with a bytes cache keyed by symbol and period.
// Cache failures fall through to the wrapped fetcher.
type CachedFetcher struct {
	Next    Fetcher
	Cache   cache.BytesCache
	TTL     time.Duration
	Metrics *metrics.Metrics
}

func NewCachedFetcher(next Fetcher, c cache.BytesCache, ttl time.Duration, m *metrics.Metrics) *CachedFetcher {
	return &CachedFetcher{Next: next, Cache: c, TTL: ttl, Metrics: m}
}

func (f *CachedFetcher) Name() string { return f.Next.Name() }

func barsKey(symbol string, period Period) string {
	return fmt.Sprintf("bars:%s:%s", strings.ToUpper(symbol), period)
}

func (f *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, period Period) ([]model.PriceBar, error) {
	var bars []model.PriceBar
	key := barsKey(symbol, period)
	if f.lookup(ctx, key, &bars) {
		return bars, nil
	}
	bars, err := f.Next.FetchDailyBars(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	f.store(ctx, key, bars)
	return bars, nil
}

func (f *CachedFetcher) FetchCompanyInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	var info model.CompanyInfo
	key := "company:" + strings.ToUpper(symbol)
	if f.lookup(ctx, key, &info) {
		return &info, nil
	}
	res, err := f.Next.FetchCompanyInfo(ctx, symbol)
	if err != nil {
		return nil, err
	}
	f.store(ctx, key, res)
	return res, nil
}

func (f *CachedFetcher) lookup(ctx context.Context, key string, out any) bool {
	b, ok, err := f.Cache.GetBytes(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}
	if ok {
		if err := json.Unmarshal(b, out); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
			ok = false
		}
	}
	f.Metrics.ObserveCache(ok)
	return ok
}

func (f *CachedFetcher) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := f.Cache.SetBytes(ctx, key, b, f.TTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}
