package strategy

import (
	"StockPulse/internal/model"
)

// Evaluate classifies the latest row of rows.
func Evaluate(rows []model.IndicatorRow, p Policy) model.TradingSignal {
	return EvaluateAt(rows, len(rows)-1, p)
}

// EvaluateAt classifies rows[i], reading only rows[i-1] and rows[i].
// Out-of-range indexes and rows with missing inputs yield UNKNOWN.
func EvaluateAt(rows []model.IndicatorRow, i int, p Policy) model.TradingSignal {
	if i < 0 || i >= len(rows) {
		return model.TradingSignal{Classification: model.Unknown, Reasons: []string{}}
	}
	cur := rows[i]
	sig := model.TradingSignal{
		Classification: model.Unknown,
		RSI:            cur.RSI14,
		Reasons:        []string{},
		EvaluatedAt:    cur.Date,
	}
	if !ready(cur) {
		return sig
	}

	var prev *model.IndicatorRow
	if i > 0 {
		prev = &rows[i-1]
	}

	votes := []vote{
		scoreRSI(cur, p),
		scoreMACD(prev, cur, p),
		scoreBands(cur, p),
		scoreTrend(cur, p),
	}
	score := 0
	for _, v := range votes {
		score += v.Score
	}
	if v := scoreVolume(cur, score, p); v.Score != 0 {
		votes = append(votes, v)
		score += v.Score
	}

	for _, v := range votes {
		if v.Score != 0 {
			sig.Reasons = append(sig.Reasons, v.Reason)
		}
	}
	sig.Score = score
	sig.Strength = float64(abs(score))
	sig.Classification = p.Classify(score)
	return sig
}

// ready reports whether every input the policy reads is defined.
func ready(r model.IndicatorRow) bool {
	for _, v := range []model.NullFloat{r.RSI14, r.MACD, r.MACDSignal, r.BBUpper, r.BBLower, r.SMA20, r.SMA50} {
		if !v.Valid {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
