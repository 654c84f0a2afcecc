package strategy

import (
	"fmt"

	"StockPulse/internal/model"
)

// vote is one factor's contribution. Score is zero when the factor abstains.
type vote struct {
	Name   string
	Score  int
	Reason string
}

func scoreRSI(cur model.IndicatorRow, p Policy) vote {
	rsi := cur.RSI14.Float64
	switch {
	case rsi < p.RSIOversold:
		return vote{"RSI", p.RSIWeight, fmt.Sprintf("RSI oversold (%.1f < %.0f)", rsi, p.RSIOversold)}
	case rsi > p.RSIOverbought:
		return vote{"RSI", -p.RSIWeight, fmt.Sprintf("RSI overbought (%.1f > %.0f)", rsi, p.RSIOverbought)}
	}
	return vote{Name: "RSI"}
}

// scoreMACD votes on a crossover between the previous and current row.
// Without a defined previous row there is no cross.
func scoreMACD(prev *model.IndicatorRow, cur model.IndicatorRow, p Policy) vote {
	if prev == nil || !prev.MACD.Valid || !prev.MACDSignal.Valid {
		return vote{Name: "MACD"}
	}
	pl, ps := prev.MACD.Float64, prev.MACDSignal.Float64
	cl, cs := cur.MACD.Float64, cur.MACDSignal.Float64
	switch {
	case pl <= ps && cl > cs:
		return vote{"MACD", p.MACDWeight, "MACD bullish crossover"}
	case pl >= ps && cl < cs:
		return vote{"MACD", -p.MACDWeight, "MACD bearish crossover"}
	}
	return vote{Name: "MACD"}
}

func scoreBands(cur model.IndicatorRow, p Policy) vote {
	switch {
	case cur.Close < cur.BBLower.Float64:
		return vote{"Bollinger", p.BandWeight, fmt.Sprintf("Close %.2f below lower band %.2f", cur.Close, cur.BBLower.Float64)}
	case cur.Close > cur.BBUpper.Float64:
		return vote{"Bollinger", -p.BandWeight, fmt.Sprintf("Close %.2f above upper band %.2f", cur.Close, cur.BBUpper.Float64)}
	}
	return vote{Name: "Bollinger"}
}

func scoreTrend(cur model.IndicatorRow, p Policy) vote {
	short, long := cur.SMA20.Float64, cur.SMA50.Float64
	switch {
	case cur.Close > short && short > long:
		return vote{"Trend", p.TrendWeight, "Uptrend: close > SMA_20 > SMA_50"}
	case cur.Close < short && short < long:
		return vote{"Trend", -p.TrendWeight, "Downtrend: close < SMA_20 < SMA_50"}
	}
	return vote{Name: "Trend"}
}

// scoreVolume confirms a positive prevailing score on a high-volume up day.
// It never votes on its own.
func scoreVolume(cur model.IndicatorRow, prevailing int, p Policy) vote {
	if prevailing <= 0 || !cur.VolumeRatio.Valid {
		return vote{Name: "Volume"}
	}
	if cur.VolumeRatio.Float64 > p.VolumeSpike && cur.Close > cur.Open {
		return vote{"Volume", p.VolumeWeight, fmt.Sprintf("Volume spike %.1fx on an up day", cur.VolumeRatio.Float64)}
	}
	return vote{Name: "Volume"}
}
