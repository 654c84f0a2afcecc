// Package testutil builds synthetic price series for tests.
package testutil

import (
	"time"

	"StockPulse/internal/model"
)

// Start is the date of the first synthetic bar.
var Start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// Series wraps bars into a PriceSeries.
func Series(symbol string, bars []model.PriceBar) model.PriceSeries {
	return model.PriceSeries{Symbol: symbol, Bars: bars}
}

// FromCloses builds bars with open = previous close and a 1% range around the body.
func FromCloses(closes []float64, volume int64) []model.PriceBar {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		hi, lo := c, open
		if open > hi {
			hi, lo = open, c
		}
		bars[i] = model.PriceBar{
			Date:   Start.AddDate(0, 0, i),
			Open:   open,
			High:   hi * 1.01,
			Low:    lo * 0.99,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

// Flat returns n bars at a constant price and volume.
func Flat(n int, price float64, volume int64) []model.PriceBar {
	bars := make([]model.PriceBar, n)
	for i := range bars {
		bars[i] = model.PriceBar{
			Date:   Start.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: volume,
		}
	}
	return bars
}

// Rising returns n bars climbing by step per day from base.
func Rising(n int, base, step float64, volume int64) []model.PriceBar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = base + step*float64(i)
	}
	return FromCloses(closes, volume)
}

// Closes returns fixed closes, one per argument.
func Closes(prices ...float64) []model.PriceBar {
	return FromCloses(prices, 1000)
}

// Compounding returns n bars growing by rate per day from base.
func Compounding(n int, base, rate float64, volume int64) []model.PriceBar {
	closes := make([]float64, n)
	price := base
	for i := range closes {
		closes[i] = price
		price *= 1 + rate
	}
	return FromCloses(closes, volume)
}
