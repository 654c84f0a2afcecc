package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"StockPulse/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_Signals(t *testing.T) {
	ctx := context.Background()
	r := openTemp(t)
	clock := time.Unix(1_700_000_000, 0)
	r.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	events := []*SignalEvent{
		{Symbol: "AAPL", Period: "1y", Close: 180, Signal: model.TradingSignal{
			Classification: model.Buy, Score: 2, Strength: 2, RSI: model.Some(28.5),
			Reasons: []string{"RSI oversold (28.5 < 30)"}, EvaluatedAt: day,
		}},
		{Symbol: "AAPL", Period: "1y", Close: 181, Signal: model.TradingSignal{
			Classification: model.Unknown, Reasons: []string{}, EvaluatedAt: day.AddDate(0, 0, 1),
		}},
		{Symbol: "MSFT", Period: "1y", Close: 400, Signal: model.TradingSignal{Classification: model.Hold, Reasons: []string{}}},
	}
	for _, e := range events {
		if err := r.RecordSignal(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := r.RecentSignals(ctx, "aapl", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 AAPL signals, got %d", len(got))
	}
	if got[0].Classification != model.Unknown || got[0].RSI.Valid {
		t.Errorf("expected newest first with undefined RSI, got %+v", got[0])
	}
	if got[1].Classification != model.Buy || got[1].RSI != model.Some(28.5) || len(got[1].Reasons) != 1 {
		t.Errorf("unexpected stored signal %+v", got[1])
	}
	if !got[1].EvaluatedAt.Equal(day) {
		t.Errorf("bar date = %s, want %s", got[1].EvaluatedAt, day)
	}
}

func TestSQLiteRecorder_Backtest(t *testing.T) {
	ctx := context.Background()
	r := openTemp(t)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	res := &model.BacktestResult{
		InitialCapital: 10000,
		FinalCapital:   10123.45,
		TotalTrades:    1,
		Trades: []model.Trade{
			{Date: day, Side: model.SideBuy, Price: 50, Shares: 200},
			{Date: day.AddDate(0, 0, 10), Side: model.SideSell, Price: 50.617250, Shares: 200, PnL: 123.45},
		},
	}
	id, err := r.RecordBacktest(ctx, &BacktestRun{Symbol: "AAPL", Period: "2y", PositionFraction: 1, Result: res})
	if err != nil {
		t.Fatal(err)
	}
	if len(id) != 36 {
		t.Errorf("expected a uuid run id, got %q", id)
	}

	var final string
	if err := r.db.QueryRow(`SELECT final_capital FROM backtest_runs WHERE id = ?`, id).Scan(&final); err != nil {
		t.Fatal(err)
	}
	if final != "10123.45" {
		t.Errorf("final capital stored as %q", final)
	}

	trades, err := r.BacktestTrades(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 2 || trades[0].Side != model.SideBuy || trades[1].PnL != 123.45 {
		t.Errorf("unexpected trades %+v", trades)
	}
	if trades[0].PnL != 0 {
		t.Errorf("buy trades carry no pnl, got %v", trades[0].PnL)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	id, err := r.RecordBacktest(context.Background(), &BacktestRun{Result: &model.BacktestResult{}})
	if err != nil || id == "" {
		t.Errorf("expected an id, got %q %v", id, err)
	}
	if got, _ := r.RecentSignals(context.Background(), "X", 5); got != nil {
		t.Errorf("expected no history, got %v", got)
	}
}
