// cmd/backtest runs the signal policy over one symbol's daily history and
// prints the account summary.
//
// Usage:
//
//	go run ./cmd/backtest --symbol=AAPL --period=2y --capital=10000 --trades=trades.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/analysis"
	"StockPulse/internal/backtest"
	"StockPulse/internal/calculator"
	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/logger"
	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
)

func main() {
	// Flags
	cfgPath := flag.String("config", "configs/config.yaml", "Config file for indicator and signal settings")
	symbol := flag.String("symbol", "SPY", "Ticker to simulate")
	periodStr := flag.String("period", "2y", "History to replay: 1wk, 1mo, 3mo, 6mo, 1y, 2y, 5y")
	capital := flag.Float64("capital", backtest.DefaultInitialCapital, "Initial capital")
	fraction := flag.Float64("fraction", 1, "Fraction of cash committed per entry, in (0,1]")
	provider := flag.String("provider", "", "Data provider override: yahoo, rest or mock")
	dbPath := flag.String("db", "", "Record the run in this SQLite database")
	tradesOut := flag.String("trades", "", "Write the trade log to this CSV file")
	equityOut := flag.String("equity", "", "Write the equity curve to this CSV file")
	indicatorsOut := flag.String("indicators", "", "Write the indicator table to this CSV file")
	logLevel := flag.String("log", "warn", "Log level")
	flag.Parse()

	if err := logger.Setup(*logLevel, "console"); err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *provider != "" {
		cfg.DataSource.Provider = *provider
	}
	period, err := collector.ParsePeriod(*periodStr)
	if err != nil {
		log.Fatal().Err(err).Msg("parse period")
	}

	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL,
		cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.MockPrice)
	if err != nil {
		log.Fatal().Err(err).Msg("init fetcher")
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if *dbPath != "" {
		sr, err := recorder.NewSQLiteRecorder(*dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open sqlite")
		}
		defer sr.Close()
		rec = sr
	}

	// Setup context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := analysis.New(collector.NewCollector(fetcher, nil), cfg.Indicators, cfg.Signal, rec, nil)
	rep, err := a.Backtest(ctx, *symbol, period, *capital, *fraction)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest")
	}

	if *tradesOut != "" {
		writeCSV(*tradesOut, func(f *os.File) error { return backtest.WriteTradesCSV(f, rep.Result.Trades) })
	}
	if *equityOut != "" {
		writeCSV(*equityOut, func(f *os.File) error { return backtest.WriteEquityCSV(f, rep.Result.EquityCurve) })
	}
	if *indicatorsOut != "" {
		rows := calculator.Compute(rep.Series.Bars, cfg.Indicators)
		writeCSV(*indicatorsOut, func(f *os.File) error { return backtest.WriteIndicatorsCSV(f, rows) })
	}

	printSummary(rep)
}

func writeCSV(path string, write func(*os.File) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("create csv")
	}
	if err := write(f); err != nil {
		f.Close()
		log.Fatal().Err(err).Str("path", path).Msg("write csv")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("close csv")
	}
}

func printSummary(rep *analysis.BacktestReport) {
	res := rep.Result
	position := "flat"
	if res.OpenPosition {
		position = "long"
	}

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║        BACKTEST COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Symbol:            %-16s ║\n", fmt.Sprintf("%s (%s)", rep.Symbol, rep.Period))
	fmt.Printf("║  Bars:              %-16d ║\n", rep.Bars)
	fmt.Printf("║  Initial capital:   %-16.2f ║\n", res.InitialCapital)
	fmt.Printf("║  Final capital:     %-16.2f ║\n", res.FinalCapital)
	fmt.Printf("║  Total return:      %-16s ║\n", fmt.Sprintf("%+.2f%%", res.TotalReturnPct))
	fmt.Printf("║  Annualized:        %-16s ║\n", fmt.Sprintf("%+.2f%%", res.AnnualizedReturnPct))
	fmt.Printf("║  Sharpe ratio:      %-16.2f ║\n", res.SharpeRatio)
	fmt.Printf("║  Max drawdown:      %-16s ║\n", fmt.Sprintf("%.2f%%", res.MaxDrawdownPct))
	fmt.Printf("║  Closed trades:     %-16d ║\n", res.TotalTrades)
	fmt.Printf("║  Win rate:          %-16s ║\n", fmt.Sprintf("%.1f%%", res.WinRatePct))
	fmt.Printf("║  Position:          %-16s ║\n", position)
	fmt.Println("╚══════════════════════════════════════╝")
	if rep.RunID != "" {
		fmt.Printf("run id: %s\n", rep.RunID)
	}
	for _, t := range res.Trades {
		line := fmt.Sprintf("  %s %-4s %10.2f x %.4f", t.Date.Format("2006-01-02"), t.Side, t.Price, t.Shares)
		if t.Side == model.SideSell {
			line += fmt.Sprintf("  pnl %+.2f", t.PnL)
		}
		fmt.Println(line)
	}
}
