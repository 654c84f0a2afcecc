package calculator

import (
	"math"

	"StockPulse/internal/model"
)

// BandColumns holds Bollinger band outputs aligned with the input closes.
type BandColumns struct {
	Upper []model.NullFloat
	Mid   []model.NullFloat
	Lower []model.NullFloat
}

// Bollinger computes mid = SMA(window) and mid ± k·σ, where σ is the sample
// standard deviation (n-1 denominator) of the trailing window.
func Bollinger(closes []float64, window int, k float64) BandColumns {
	n := len(closes)
	bands := BandColumns{
		Upper: make([]model.NullFloat, n),
		Mid:   SMA(closes, window),
		Lower: make([]model.NullFloat, n),
	}
	for i := range closes {
		if !bands.Mid[i].Valid {
			continue
		}
		mid := bands.Mid[i].Float64
		sd := sampleStdDev(closes[i-window+1:i+1], mid)
		bands.Upper[i] = model.Some(mid + k*sd)
		bands.Lower[i] = model.Some(mid - k*sd)
	}
	return bands
}

func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
