package calculator

import (
	"fmt"

	"StockPulse/internal/model"
)

// Params holds indicator windows. Column names (SMA_20, RSI_14, ...) stay fixed
// regardless of the configured windows.
type Params struct {
	SMAShort     int     `yaml:"sma_short"`
	SMALong      int     `yaml:"sma_long"`
	RSIPeriod    int     `yaml:"rsi_period"`
	MACDFast     int     `yaml:"macd_fast"`
	MACDSlow     int     `yaml:"macd_slow"`
	MACDSignal   int     `yaml:"macd_signal"`
	BBWindow     int     `yaml:"bb_window"`
	BBK          float64 `yaml:"bb_k"`
	VolumeWindow int     `yaml:"volume_window"`
}

// DefaultParams returns the standard daily settings.
func DefaultParams() Params {
	return Params{
		SMAShort:     20,
		SMALong:      50,
		RSIPeriod:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		BBWindow:     20,
		BBK:          2.0,
		VolumeWindow: 20,
	}
}

// Validate checks window sizes.
func (p Params) Validate() error {
	for name, v := range map[string]int{
		"sma_short": p.SMAShort, "sma_long": p.SMALong, "rsi_period": p.RSIPeriod,
		"macd_fast": p.MACDFast, "macd_slow": p.MACDSlow, "macd_signal": p.MACDSignal,
		"volume_window": p.VolumeWindow,
	} {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", model.ErrInvalidInput, name)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("%w: macd_fast must be below macd_slow", model.ErrInvalidInput)
	}
	if p.BBWindow < 2 {
		return fmt.Errorf("%w: bb_window must be at least 2", model.ErrInvalidInput)
	}
	if p.BBK < 0 {
		return fmt.Errorf("%w: bb_k must not be negative", model.ErrInvalidInput)
	}
	return nil
}

// Warmup is the number of bars needed before every signal input is defined.
func (p Params) Warmup() int {
	w := p.SMALong
	for _, n := range []int{p.SMAShort, p.RSIPeriod + 1, p.MACDSlow + p.MACDSignal - 1, p.BBWindow} {
		if n > w {
			w = n
		}
	}
	return w
}

// Compute derives every indicator column for bars. The result has the same
// length and order as bars; row i only depends on bars[0..i].
func Compute(bars []model.PriceBar, p Params) []model.IndicatorRow {
	n := len(bars)
	closes := make([]float64, n)
	volumes := make([]int64, n)
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	smaShort := SMA(closes, p.SMAShort)
	smaLong := SMA(closes, p.SMALong)
	rsi := RSI(closes, p.RSIPeriod)
	macd := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	bands := Bollinger(closes, p.BBWindow, p.BBK)
	volRatio := VolumeRatio(volumes, p.VolumeWindow)

	rows := make([]model.IndicatorRow, n)
	for i, b := range bars {
		rows[i] = model.IndicatorRow{
			PriceBar:      b,
			SMA20:         smaShort[i],
			SMA50:         smaLong[i],
			RSI14:         rsi[i],
			MACD:          macd.Line[i],
			MACDSignal:    macd.Signal[i],
			MACDHistogram: macd.Histogram[i],
			BBUpper:       bands.Upper[i],
			BBLower:       bands.Lower[i],
			BBMid:         bands.Mid[i],
			VolumeRatio:   volRatio[i],
		}
	}
	return rows
}
