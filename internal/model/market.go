package model

import (
	"fmt"
	"math"
	"time"
)

// PriceBar is one trading day of OHLCV data.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Check reports whether the bar is internally consistent.
func (b PriceBar) Check() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: bar %s has invalid price %v", ErrInvalidInput, b.Date.Format("2006-01-02"), v)
		}
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: bar %s has negative volume", ErrInvalidInput, b.Date.Format("2006-01-02"))
	}
	if b.Low > b.High {
		return fmt.Errorf("%w: bar %s has low %.4f above high %.4f", ErrInvalidInput, b.Date.Format("2006-01-02"), b.Low, b.High)
	}
	if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("%w: bar %s open/close outside [low, high]", ErrInvalidInput, b.Date.Format("2006-01-02"))
	}
	return nil
}

// PriceSeries is an ascending, duplicate-free run of daily bars for one symbol.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes extracts the close column.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Validate rejects empty series, unordered or duplicated dates and corrupt bars.
func (s PriceSeries) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("%w: empty price series", ErrInvalidInput)
	}
	for i, b := range s.Bars {
		if err := b.Check(); err != nil {
			return err
		}
		if i > 0 && !Day(b.Date).After(Day(s.Bars[i-1].Date)) {
			return fmt.Errorf("%w: dates not strictly increasing at %s", ErrInvalidInput, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}
