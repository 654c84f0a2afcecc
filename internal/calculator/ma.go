package calculator

import "StockPulse/internal/model"

// SMA computes the trailing simple moving average of values over window.
// Rows before the window fills are undefined.
func SMA(values []float64, window int) []model.NullFloat {
	out := make([]model.NullFloat, len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		out[i] = model.Some(mean(values[i-window+1 : i+1]))
	}
	return out
}

// EMA computes an exponential moving average with k = 2/(span+1).
// Leading undefined inputs are skipped; the first value is the SMA of the
// first span defined inputs. An undefined input after the seed breaks the chain.
func EMA(values []model.NullFloat, span int) []model.NullFloat {
	out := make([]model.NullFloat, len(values))
	if span <= 0 {
		return out
	}
	k := 2.0 / float64(span+1)

	start := -1
	for i, v := range values {
		if v.Valid {
			start = i
			break
		}
	}
	if start < 0 || start+span > len(values) {
		return out
	}

	seed := make([]float64, span)
	for i := range seed {
		v := values[start+i]
		if !v.Valid {
			return out
		}
		seed[i] = v.Float64
	}
	ema := mean(seed)
	out[start+span-1] = model.Some(ema)

	for i := start + span; i < len(values); i++ {
		if !values[i].Valid {
			break
		}
		ema += k * (values[i].Float64 - ema)
		out[i] = model.Some(ema)
	}
	return out
}

func defined(values []float64) []model.NullFloat {
	out := make([]model.NullFloat, len(values))
	for i, v := range values {
		out[i] = model.Some(v)
	}
	return out
}

// mean sums deviations from the first value, so a constant window yields
// that value exactly.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	base := values[0]
	var dev float64
	for _, v := range values {
		dev += v - base
	}
	return base + dev/float64(len(values))
}
