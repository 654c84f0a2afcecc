package calculator

import "StockPulse/internal/model"

// MACDColumns holds the three MACD outputs aligned with the input closes.
type MACDColumns struct {
	Line      []model.NullFloat
	Signal    []model.NullFloat
	Histogram []model.NullFloat
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and their difference.
func MACD(closes []float64, fast, slow, signal int) MACDColumns {
	in := defined(closes)
	emaFast := EMA(in, fast)
	emaSlow := EMA(in, slow)

	line := make([]model.NullFloat, len(closes))
	for i := range closes {
		if emaFast[i].Valid && emaSlow[i].Valid {
			line[i] = model.Some(emaFast[i].Float64 - emaSlow[i].Float64)
		}
	}

	sig := EMA(line, signal)
	hist := make([]model.NullFloat, len(closes))
	for i := range closes {
		if line[i].Valid && sig[i].Valid {
			hist[i] = model.Some(line[i].Float64 - sig[i].Float64)
		}
	}
	return MACDColumns{Line: line, Signal: sig, Histogram: hist}
}
