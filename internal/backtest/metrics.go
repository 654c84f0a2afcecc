package backtest

import (
	"math"

	"StockPulse/internal/model"
)

// TradingDaysPerYear annualises daily statistics.
const TradingDaysPerYear = 252

func summarize(res *model.BacktestResult, realised []float64) {
	values := make([]float64, len(res.EquityCurve))
	for i, p := range res.EquityCurve {
		values[i] = p.Value
	}

	res.TotalReturnPct = (res.FinalCapital/res.InitialCapital - 1) * 100
	res.AnnualizedReturnPct = AnnualizedReturn(res.InitialCapital, res.FinalCapital, len(values))
	res.SharpeRatio = SharpeRatio(values)
	res.MaxDrawdownPct = MaxDrawdown(values)

	res.TotalTrades = len(realised)
	var wins, losses int
	var winSum, lossSum float64
	for _, pnl := range realised {
		switch {
		case pnl > 0:
			wins++
			winSum += pnl
		case pnl < 0:
			losses++
			lossSum += pnl
		}
	}
	if res.TotalTrades > 0 {
		res.WinRatePct = float64(wins) / float64(res.TotalTrades) * 100
	}
	if wins > 0 {
		res.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		res.AvgLoss = lossSum / float64(losses)
	}
}

// AnnualizedReturn compounds the total return over days trading days.
func AnnualizedReturn(initial, final float64, days int) float64 {
	if initial <= 0 || days <= 0 {
		return 0
	}
	growth := final / initial
	if growth <= 0 {
		return -100
	}
	return (math.Pow(growth, float64(TradingDaysPerYear)/float64(days)) - 1) * 100
}

// SharpeRatio annualises the mean over the sample standard deviation of
// day-over-day equity returns. It is 0 when the deviation is 0 or undefined.
func SharpeRatio(equity []float64) float64 {
	returns := make([]float64, 0, len(equity))
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		returns = append(returns, equity[i]/equity[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	sd := math.Sqrt(ss / float64(len(returns)-1))
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown returns the largest peak-to-trough decline in percent.
func MaxDrawdown(equity []float64) float64 {
	var peak, worst float64
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
