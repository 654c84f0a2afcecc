// Package ledger tracks cash and a single long position for simulated trading.
package ledger

import (
	"fmt"
	"math"

	"StockPulse/internal/model"
)

// SimulationLedger is an immutable cash/position snapshot. Operations return a
// new ledger and leave the receiver untouched.
type SimulationLedger struct {
	Cash      float64 `json:"cash"`
	Shares    float64 `json:"shares"`
	CostBasis float64 `json:"cost_basis"`
}

// New opens a flat ledger funded with capital.
func New(capital float64) (SimulationLedger, error) {
	if capital <= 0 || math.IsNaN(capital) || math.IsInf(capital, 0) {
		return SimulationLedger{}, fmt.Errorf("%w: initial capital must be positive, got %v", model.ErrInvalidInput, capital)
	}
	return SimulationLedger{Cash: capital}, nil
}

// IsLong reports whether shares are held.
func (l SimulationLedger) IsLong() bool { return l.Shares > 0 }

// Equity marks the position to price.
func (l SimulationLedger) Equity(price float64) float64 {
	return l.Cash + l.Shares*price
}

// Buy spends fraction of the available cash on fractional shares at price.
func (l SimulationLedger) Buy(price, fraction float64) (SimulationLedger, float64, error) {
	if l.IsLong() {
		return l, 0, fmt.Errorf("%w: already holding %.4f shares", model.ErrInvalidInput, l.Shares)
	}
	if price <= 0 {
		return l, 0, fmt.Errorf("%w: buy price must be positive, got %v", model.ErrInvalidInput, price)
	}
	if fraction <= 0 || fraction > 1 {
		return l, 0, fmt.Errorf("%w: position fraction must be in (0, 1], got %v", model.ErrInvalidInput, fraction)
	}
	spend := l.Cash * fraction
	if spend <= 0 {
		return l, 0, fmt.Errorf("%w: no cash available", model.ErrInvalidInput)
	}
	shares := spend / price
	return SimulationLedger{
		Cash:      l.Cash - spend,
		Shares:    shares,
		CostBasis: spend,
	}, shares, nil
}

// Sell liquidates the whole position at price and returns the realised P&L.
func (l SimulationLedger) Sell(price float64) (SimulationLedger, float64, error) {
	if !l.IsLong() {
		return l, 0, fmt.Errorf("%w: no position to sell", model.ErrInvalidInput)
	}
	if price < 0 {
		return l, 0, fmt.Errorf("%w: sell price must not be negative, got %v", model.ErrInvalidInput, price)
	}
	proceeds := l.Shares * price
	return SimulationLedger{Cash: l.Cash + proceeds}, proceeds - l.CostBasis, nil
}
