package strategy

import (
	"fmt"

	"StockPulse/internal/model"
)

// Policy holds the voting rules. Weights are integer votes; thresholds apply
// to the summed score symmetrically around zero.
type Policy struct {
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	RSIWeight     int     `yaml:"rsi_weight"`
	MACDWeight    int     `yaml:"macd_weight"`
	BandWeight    int     `yaml:"band_weight"`
	TrendWeight   int     `yaml:"trend_weight"`
	VolumeSpike   float64 `yaml:"volume_spike"`
	VolumeWeight  int     `yaml:"volume_weight"`
	BuyScore      int     `yaml:"buy_score"`
	StrongScore   int     `yaml:"strong_score"`
}

// DefaultPolicy returns the standard daily policy.
func DefaultPolicy() Policy {
	return Policy{
		RSIOversold:   30,
		RSIOverbought: 70,
		RSIWeight:     1,
		MACDWeight:    2,
		BandWeight:    1,
		TrendWeight:   2,
		VolumeSpike:   1.5,
		VolumeWeight:  1,
		BuyScore:      1,
		StrongScore:   3,
	}
}

// Validate checks that levels are ordered and thresholds are monotonic.
func (p Policy) Validate() error {
	if p.RSIOversold <= 0 || p.RSIOverbought >= 100 || p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("%w: rsi levels must satisfy 0 < oversold < overbought < 100", model.ErrInvalidInput)
	}
	for name, w := range map[string]int{
		"rsi_weight": p.RSIWeight, "macd_weight": p.MACDWeight, "band_weight": p.BandWeight,
		"trend_weight": p.TrendWeight, "volume_weight": p.VolumeWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%w: %s must not be negative", model.ErrInvalidInput, name)
		}
	}
	if p.VolumeSpike <= 0 {
		return fmt.Errorf("%w: volume_spike must be positive", model.ErrInvalidInput)
	}
	if p.BuyScore <= 0 || p.StrongScore < p.BuyScore {
		return fmt.Errorf("%w: thresholds must satisfy 0 < buy_score <= strong_score", model.ErrInvalidInput)
	}
	return nil
}

// tiers maps a score to a classification, checked top-down.
func (p Policy) tiers() []struct {
	MinScore       int
	Classification model.Classification
} {
	return []struct {
		MinScore       int
		Classification model.Classification
	}{
		{p.StrongScore, model.StrongBuy},
		{p.BuyScore, model.Buy},
		{-p.BuyScore + 1, model.Hold},
		{-p.StrongScore + 1, model.Sell},
	}
}

// Classify maps a total score to a classification.
func (p Policy) Classify(score int) model.Classification {
	for _, t := range p.tiers() {
		if score >= t.MinScore {
			return t.Classification
		}
	}
	return model.StrongSell
}
