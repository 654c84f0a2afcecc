package model

import "time"

// Classification is the discrete outcome of signal evaluation.
type Classification string

const (
	StrongBuy  Classification = "STRONG_BUY"
	Buy        Classification = "BUY"
	Hold       Classification = "HOLD"
	Sell       Classification = "SELL"
	StrongSell Classification = "STRONG_SELL"
	Unknown    Classification = "UNKNOWN"
)

// IsBuy reports whether c opens a long position.
func (c Classification) IsBuy() bool { return c == Buy || c == StrongBuy }

// IsSell reports whether c closes a long position.
func (c Classification) IsSell() bool { return c == Sell || c == StrongSell }

// Color is the display color used by dashboards.
func (c Classification) Color() string {
	switch c {
	case StrongBuy:
		return "green"
	case Buy:
		return "lightgreen"
	case Hold:
		return "yellow"
	case Sell:
		return "orange"
	case StrongSell:
		return "red"
	default:
		return "gray"
	}
}

// TradingSignal is the composite decision for one bar.
type TradingSignal struct {
	Classification Classification `json:"signal"`
	Strength       float64        `json:"strength"`
	Score          int            `json:"score"`
	RSI            NullFloat      `json:"rsi"`
	Reasons        []string       `json:"reasons"`
	EvaluatedAt    time.Time      `json:"evaluation_date"`
}
