// Package api exposes analyses and backtests over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"StockPulse/internal/analysis"
	"StockPulse/internal/collector"
	"StockPulse/internal/metrics"
)

// Options carry request defaults and transport settings.
type Options struct {
	Period           collector.Period
	BacktestPeriod   collector.Period
	InitialCapital   float64
	PositionFraction float64
	CORSOrigins      []string
}

// Server is the HTTP front-end of an Analyzer.
type Server struct {
	Analyzer *analysis.Analyzer
	Metrics  *metrics.Metrics
	Options  Options

	engine *gin.Engine
}

// NewServer builds the router.
func NewServer(a *analysis.Analyzer, m *metrics.Metrics, opts Options) *Server {
	s := &Server{Analyzer: a, Metrics: m, Options: opts, engine: gin.New()}

	s.engine.Use(ErrorHandler(), RequestLogger(m))
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := s.engine.Group("/api/v1/symbols/:symbol")
	{
		v1.GET("/indicators", s.Indicators)
		v1.GET("/signal", s.Signal)
		v1.POST("/backtest", s.Backtest)
		v1.GET("/history", s.History)
	}
	s.engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	return s
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	origins := s.Options.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(s.engine)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http server stopped")
	return nil
}
