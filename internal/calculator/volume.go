package calculator

import "StockPulse/internal/model"

// VolumeRatio divides each volume by its trailing average. A zero average
// leaves the row undefined.
func VolumeRatio(volumes []int64, window int) []model.NullFloat {
	vols := make([]float64, len(volumes))
	for i, v := range volumes {
		vols[i] = float64(v)
	}
	avg := SMA(vols, window)
	out := make([]model.NullFloat, len(volumes))
	for i := range vols {
		if avg[i].Valid && avg[i].Float64 > 0 {
			out[i] = model.Some(vols[i] / avg[i].Float64)
		}
	}
	return out
}
