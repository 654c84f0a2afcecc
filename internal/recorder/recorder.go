package recorder

import (
	"context"
	"time"

	"StockPulse/internal/model"
)

// SignalEvent is one evaluated signal for a symbol.
type SignalEvent struct {
	Symbol string
	Period string
	Close  float64
	Signal model.TradingSignal
}

// BacktestRun holds a finished simulation and the inputs that produced it.
type BacktestRun struct {
	Symbol           string
	Period           string
	PositionFraction float64
	Result           *model.BacktestResult
}

// SignalRecord is a stored SignalEvent as read back from history.
type SignalRecord struct {
	RecordedAt     time.Time            `json:"recorded_at"`
	Symbol         string               `json:"symbol"`
	Period         string               `json:"period"`
	EvaluatedAt    time.Time            `json:"evaluated_at"`
	Close          float64              `json:"close"`
	Classification model.Classification `json:"signal"`
	Score          int                  `json:"score"`
	RSI            model.NullFloat      `json:"rsi"`
	Reasons        []string             `json:"reasons"`
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSignal(ctx context.Context, evt *SignalEvent) error
	// RecordBacktest stores the run with its trade log and returns the run ID.
	RecordBacktest(ctx context.Context, run *BacktestRun) (string, error)
	RecentSignals(ctx context.Context, symbol string, limit int) ([]SignalRecord, error)
	Close() error
}
