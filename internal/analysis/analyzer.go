// Package analysis ties data collection to the indicator, signal and
// backtest packages. Every front-end goes through an Analyzer.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/backtest"
	"StockPulse/internal/calculator"
	"StockPulse/internal/collector"
	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
	"StockPulse/internal/strategy"
)

// Report is the "as of the latest bar" view of one symbol.
type Report struct {
	Symbol  string               `json:"symbol"`
	Period  collector.Period     `json:"period"`
	Company *model.CompanyInfo   `json:"company"`
	Rows    []model.IndicatorRow `json:"rows"`
	Latest  model.IndicatorRow   `json:"latest"`
	Signal  model.TradingSignal  `json:"signal"`
	Range   PriceRange           `json:"range"`
}

// PriceRange locates the latest close within recent highs and lows.
type PriceRange struct {
	High52w     float64 `json:"high_52w"`
	Low52w      float64 `json:"low_52w"`
	Position52w float64 `json:"position_52w"`
	High30d     float64 `json:"high_30d"`
	Low30d      float64 `json:"low_30d"`
}

// Ready reports ErrInsufficientHistory when the latest signal could not be evaluated.
func (r *Report) Ready() error {
	if r.Signal.Classification == model.Unknown {
		return fmt.Errorf("%w: %s has %d bars over %s", model.ErrInsufficientHistory, r.Symbol, len(r.Rows), r.Period)
	}
	return nil
}

// BacktestReport is a finished simulation for one symbol.
type BacktestReport struct {
	RunID            string                `json:"run_id"`
	Symbol           string                `json:"symbol"`
	Period           collector.Period      `json:"period"`
	PositionFraction float64               `json:"position_fraction"`
	Bars             int                   `json:"bars"`
	Result           *model.BacktestResult `json:"result"`
	// Series is the exact history that was simulated.
	Series model.PriceSeries `json:"-"`
}

// Analyzer runs analyses against a collector with fixed indicator and signal settings.
type Analyzer struct {
	Collector *collector.Collector
	Params    calculator.Params
	Policy    strategy.Policy
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
}

// New builds an Analyzer; a nil recorder is replaced by a no-op one.
func New(c *collector.Collector, params calculator.Params, policy strategy.Policy, rec recorder.Recorder, m *metrics.Metrics) *Analyzer {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Analyzer{Collector: c, Params: params, Policy: policy, Recorder: rec, Metrics: m}
}

// Analyze fetches symbol over period, computes indicators and evaluates the
// latest signal. A short history still yields a report with an UNKNOWN signal.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, period collector.Period) (*Report, error) {
	series, info, err := a.Collector.Collect(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows := calculator.Compute(series.Bars, a.Params)
	a.Metrics.ObserveCompute(start)

	sig := strategy.Evaluate(rows, a.Policy)
	a.Metrics.ObserveSignal(string(sig.Classification))

	rep := &Report{
		Symbol:  series.Symbol,
		Period:  period,
		Company: info,
		Rows:    rows,
		Latest:  rows[len(rows)-1],
		Signal:  sig,
		Range:   priceRange(series.Bars),
	}

	if err := a.Recorder.RecordSignal(ctx, &recorder.SignalEvent{
		Symbol: rep.Symbol,
		Period: period.String(),
		Close:  rep.Latest.Close,
		Signal: sig,
	}); err != nil {
		log.Error().Err(err).Str("symbol", rep.Symbol).Msg("failed to record signal")
	}

	log.Info().
		Str("symbol", rep.Symbol).
		Str("period", period.String()).
		Int("bars", len(rows)).
		Str("signal", string(sig.Classification)).
		Int("score", sig.Score).
		Msg("analysis complete")
	return rep, nil
}

func priceRange(bars []model.PriceBar) PriceRange {
	var pr PriceRange
	last := bars[len(bars)-1].Close
	if h, l, err := calculator.Calculate52WeekRange(bars); err == nil {
		pr.High52w, pr.Low52w = h, l
	}
	if h, l, err := calculator.Calculate30DayRange(bars); err == nil {
		pr.High30d, pr.Low30d = h, l
	}
	if pos, err := calculator.Calculate52WeekPosition(last, pr.High52w, pr.Low52w); err != nil {
		log.Warn().Err(err).Msg("52-week position calculation failed")
		pr.Position52w = 0.5
	} else {
		pr.Position52w = pos
	}
	return pr
}

// Backtest simulates the signal policy over symbol's history with the given
// capital and position fraction, and records the run.
func (a *Analyzer) Backtest(ctx context.Context, symbol string, period collector.Period, capital, fraction float64) (*BacktestReport, error) {
	cfg := backtest.Config{
		InitialCapital:   capital,
		PositionFraction: fraction,
		Params:           a.Params,
		Policy:           a.Policy,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	series, _, err := a.Collector.Collect(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := backtest.Run(series, cfg)
	if err != nil {
		return nil, fmt.Errorf("backtest %s: %w", series.Symbol, err)
	}
	a.Metrics.ObserveBacktest(start)

	rep := &BacktestReport{
		Symbol:           series.Symbol,
		Period:           period,
		PositionFraction: fraction,
		Bars:             series.Len(),
		Result:           res,
		Series:           series,
	}
	id, err := a.Recorder.RecordBacktest(ctx, &recorder.BacktestRun{
		Symbol:           rep.Symbol,
		Period:           period.String(),
		PositionFraction: fraction,
		Result:           res,
	})
	if err != nil {
		log.Error().Err(err).Str("symbol", rep.Symbol).Msg("failed to record backtest")
	}
	rep.RunID = id

	log.Info().
		Str("symbol", rep.Symbol).
		Str("run_id", id).
		Int("bars", rep.Bars).
		Int("closed_trades", res.TotalTrades).
		Float64("total_return_pct", res.TotalReturnPct).
		Msg("backtest complete")
	return rep, nil
}
