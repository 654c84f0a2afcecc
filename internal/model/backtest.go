package model

import "time"

// Side is the direction of a simulated trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is one simulated fill. PnL is set on sells only.
type Trade struct {
	Date   time.Time `json:"date"`
	Side   Side      `json:"side"`
	Price  float64   `json:"price"`
	Shares float64   `json:"shares"`
	PnL    float64   `json:"pnl,omitempty"`
}

// EquityPoint is the marked-to-market account value at a day's close.
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// BacktestResult summarizes one simulation run.
type BacktestResult struct {
	InitialCapital      float64       `json:"initial_capital"`
	FinalCapital        float64       `json:"final_capital"`
	TotalReturnPct      float64       `json:"total_return_pct"`
	AnnualizedReturnPct float64       `json:"annualized_return_pct"`
	SharpeRatio         float64       `json:"sharpe_ratio"`
	MaxDrawdownPct      float64       `json:"max_drawdown_pct"`
	TotalTrades         int           `json:"total_trades"`
	WinRatePct          float64       `json:"win_rate_pct"`
	AvgWin              float64       `json:"avg_win"`
	AvgLoss             float64       `json:"avg_loss"`
	OpenPosition        bool          `json:"open_position"`
	EquityCurve         []EquityPoint `json:"daily_equity_curve"`
	Trades              []Trade       `json:"trade_log"`
}
