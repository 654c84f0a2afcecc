// Package backtest replays the indicator and signal pipeline over history
// with a single long-only position.
package backtest

import (
	"fmt"
	"math"

	"StockPulse/internal/calculator"
	"StockPulse/internal/ledger"
	"StockPulse/internal/model"
	"StockPulse/internal/strategy"
)

// DefaultInitialCapital is the paper account size used when none is given.
const DefaultInitialCapital = 10000.0

// Config controls one simulation run.
type Config struct {
	InitialCapital float64
	// PositionFraction is the share of available cash spent on each entry.
	PositionFraction float64
	Params           calculator.Params
	Policy           strategy.Policy
}

// DefaultConfig spends all cash on every entry using the standard indicators and policy.
func DefaultConfig(capital float64) Config {
	return Config{
		InitialCapital:   capital,
		PositionFraction: 1.0,
		Params:           calculator.DefaultParams(),
		Policy:           strategy.DefaultPolicy(),
	}
}

// Validate rejects configurations that would make the simulation meaningless.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 || math.IsNaN(c.InitialCapital) || math.IsInf(c.InitialCapital, 0) {
		return fmt.Errorf("%w: initial capital must be positive, got %v", model.ErrInvalidInput, c.InitialCapital)
	}
	if c.PositionFraction <= 0 || c.PositionFraction > 1 {
		return fmt.Errorf("%w: position fraction must be in (0, 1], got %v", model.ErrInvalidInput, c.PositionFraction)
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("indicator params: %w", err)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("signal policy: %w", err)
	}
	return nil
}

// Run simulates the signal policy over series. Entries and exits fill at the
// signalling day's close; a position still open at the end is marked to
// market but not closed.
func Run(series model.PriceSeries, cfg Config) (*model.BacktestResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	acct, err := ledger.New(cfg.InitialCapital)
	if err != nil {
		return nil, err
	}

	rows := calculator.Compute(series.Bars, cfg.Params)
	curve := make([]model.EquityPoint, 0, len(rows))
	trades := make([]model.Trade, 0)
	var realised []float64

	for i, row := range rows {
		sig := strategy.EvaluateAt(rows, i, cfg.Policy)

		switch {
		case !acct.IsLong() && sig.Classification.IsBuy() && row.Close > 0:
			next, shares, err := acct.Buy(row.Close, cfg.PositionFraction)
			if err != nil {
				return nil, fmt.Errorf("day %s buy: %w", row.Date.Format("2006-01-02"), err)
			}
			acct = next
			trades = append(trades, model.Trade{Date: row.Date, Side: model.SideBuy, Price: row.Close, Shares: shares})

		case acct.IsLong() && sig.Classification.IsSell():
			shares := acct.Shares
			next, pnl, err := acct.Sell(row.Close)
			if err != nil {
				return nil, fmt.Errorf("day %s sell: %w", row.Date.Format("2006-01-02"), err)
			}
			acct = next
			realised = append(realised, pnl)
			trades = append(trades, model.Trade{Date: row.Date, Side: model.SideSell, Price: row.Close, Shares: shares, PnL: pnl})
		}

		curve = append(curve, model.EquityPoint{Date: row.Date, Value: acct.Equity(row.Close)})
	}

	res := &model.BacktestResult{
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   curve[len(curve)-1].Value,
		OpenPosition:   acct.IsLong(),
		EquityCurve:    curve,
		Trades:         trades,
	}
	summarize(res, realised)
	return res, nil
}
