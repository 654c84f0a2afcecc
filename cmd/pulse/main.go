package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/analysis"
	"StockPulse/internal/api"
	"StockPulse/internal/cache"
	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/logger"
	"StockPulse/internal/metrics"
	"StockPulse/internal/notifier"
	"StockPulse/internal/recorder"
	"StockPulse/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Strs("symbols", cfg.Analysis.Symbols).Msg("StockPulse starting")

	// Periods were validated with the rest of the config.
	period, _ := collector.ParsePeriod(cfg.Analysis.Period)
	backtestPeriod, _ := collector.ParsePeriod(cfg.Analysis.BacktestPeriod)

	m := metrics.NewMetrics()

	// Init fetcher
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL,
		cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.MockPrice)
	if err != nil {
		log.Fatal().Err(err).Msg("init fetcher")
	}
	switch cfg.Cache.Backend {
	case "memory":
		fetcher = collector.NewCachedFetcher(fetcher, cache.NewTTLCache(), cfg.Cache.TTL, m)
	case "redis":
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.Redis.Addr).Msg("redis unavailable, caching in memory")
			rc.Close()
			fetcher = collector.NewCachedFetcher(fetcher, cache.NewTTLCache(), cfg.Cache.TTL, m)
		} else {
			defer rc.Close()
			fetcher = collector.NewCachedFetcher(fetcher, rc, cfg.Cache.TTL, m)
		}
		cancelPing()
	}
	log.Info().Str("source", fetcher.Name()).Str("cache", cfg.Cache.Backend).Msg("data source ready")

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	a := analysis.New(collector.NewCollector(fetcher, m), cfg.Indicators, cfg.Signal, rec, m)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, m)
		sender = tn
	} else {
		log.Warn().Msg("telegram bot token not set, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, a, sender, scheduler.Settings{
		Symbols:          cfg.Analysis.Symbols,
		Period:           period,
		BacktestPeriod:   backtestPeriod,
		InitialCapital:   cfg.Analysis.InitialCapital,
		PositionFraction: cfg.Analysis.PositionFraction,
	})
	if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	srvDone := make(chan struct{})
	if cfg.Server.Enabled {
		srv := api.NewServer(a, m, api.Options{
			Period:           period,
			BacktestPeriod:   backtestPeriod,
			InitialCapital:   cfg.Analysis.InitialCapital,
			PositionFraction: cfg.Analysis.PositionFraction,
			CORSOrigins:      cfg.Server.CORSOrigins,
		})
		go func() {
			defer close(srvDone)
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				log.Error().Err(err).Msg("http server")
				stop()
			}
		}()
	} else {
		close(srvDone)
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running daily analysis now")
		go sched.RunDailyNow()
	}

	log.Info().Msg("StockPulse is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	<-srvDone
}
