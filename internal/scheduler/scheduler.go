package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"StockPulse/internal/analysis"
	"StockPulse/internal/collector"
	"StockPulse/internal/model"
	"StockPulse/internal/notifier"
	"StockPulse/internal/recorder"
)

const historyLimit = 10

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Settings are the watchlist and backtest defaults used by scheduled runs and commands.
type Settings struct {
	Symbols          []string
	Period           collector.Period
	BacktestPeriod   collector.Period
	InitialCapital   float64
	PositionFraction float64
}

// Scheduler manages cron tasks and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer *analysis.Analyzer
	Notifier Sender
	Recorder recorder.Recorder
	Settings Settings
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, a *analysis.Analyzer, n Sender, settings Settings) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Analyzer: a,
		Notifier: n,
		Recorder: a.Recorder,
		Settings: settings,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily watchlist task.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("symbols", len(s.Settings.Symbols)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunDailyNow executes the daily task immediately.
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Info().Msg("running daily watchlist analysis")
	reports, failures := s.Watchlist(s.Ctx, s.Settings.Symbols)
	for sym, err := range failures {
		log.Error().Err(err).Str("symbol", sym).Msg("daily analysis")
	}
	if len(reports) == 0 && len(failures) > 0 {
		s.trySend(fmt.Sprintf("❌ Daily analysis failed for all %d symbols", len(failures)))
		return
	}
	s.trySend(notifier.FormatWatchlist(reports, failures))
}

// Watchlist analyses every symbol concurrently. Reports come back in symbol
// order; symbols that could not be fetched are returned in failures.
func (s *Scheduler) Watchlist(ctx context.Context, symbols []string) ([]*analysis.Report, map[string]error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		reports  []*analysis.Report
		failures = make(map[string]error)
	)
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			rep, err := s.Analyzer.Analyze(ctx, sym, s.Settings.Period)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[sym] = err
				return
			}
			reports = append(reports, rep)
		}(sym)
	}
	wg.Wait()
	sort.Slice(reports, func(i, j int) bool { return reports[i].Symbol < reports[j].Symbol })
	return reports, failures
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	args := fields[1:]

	switch name {
	case "/signal":
		if len(args) == 0 {
			return "Usage: /signal SYMBOL [period]"
		}
		period, err := periodArg(args[1:], s.Settings.Period)
		if err != nil {
			return err.Error()
		}
		rep, err := s.Analyzer.Analyze(ctx, args[0], period)
		if err != nil {
			return failure(args[0], err)
		}
		return notifier.FormatSignalReport(rep)
	case "/backtest":
		if len(args) == 0 {
			return "Usage: /backtest SYMBOL [period]"
		}
		period, err := periodArg(args[1:], s.Settings.BacktestPeriod)
		if err != nil {
			return err.Error()
		}
		rep, err := s.Analyzer.Backtest(ctx, args[0], period, s.Settings.InitialCapital, s.Settings.PositionFraction)
		if err != nil {
			return failure(args[0], err)
		}
		return notifier.FormatBacktestReport(rep)
	case "/watchlist":
		symbols := s.Settings.Symbols
		if len(args) > 0 {
			symbols = args
		}
		return notifier.FormatWatchlist(s.Watchlist(ctx, symbols))
	case "/history":
		if len(args) == 0 {
			return "Usage: /history SYMBOL"
		}
		sym := strings.ToUpper(args[0])
		records, err := s.Recorder.RecentSignals(ctx, sym, historyLimit)
		if err != nil {
			log.Error().Err(err).Str("symbol", sym).Msg("read signal history")
			return "❌ History unavailable"
		}
		return notifier.FormatHistory(sym, records)
	default:
		return helpText
	}
}

const helpText = "Available commands:\n" +
	"• /signal SYMBOL [period]\n" +
	"• /backtest SYMBOL [period]\n" +
	"• /watchlist [SYMBOL...]\n" +
	"• /history SYMBOL"

func periodArg(args []string, fallback collector.Period) (collector.Period, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	p, err := collector.ParsePeriod(args[0])
	if err != nil {
		return 0, fmt.Errorf("❌ Unknown period %q (use 1wk, 1mo, 3mo, 6mo, 1y, 2y, 5y)", args[0])
	}
	return p, nil
}

func failure(symbol string, err error) string {
	if errors.Is(err, model.ErrInvalidInput) {
		return fmt.Sprintf("❌ %s: %v", strings.ToUpper(symbol), err)
	}
	log.Error().Err(err).Str("symbol", symbol).Msg("command failed")
	return fmt.Sprintf("❌ %s: data unavailable, try again later", strings.ToUpper(symbol))
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
