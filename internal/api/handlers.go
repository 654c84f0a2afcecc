package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"

	"StockPulse/internal/collector"
	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
)

const maxHistory = 100

func (s *Server) period(c *gin.Context, fallback collector.Period) (collector.Period, bool) {
	raw := c.Query("period")
	if raw == "" {
		return fallback, true
	}
	p, err := collector.ParsePeriod(raw)
	if err != nil {
		writeFailure(c, err)
		return 0, false
	}
	return p, true
}

// Indicators handles GET /api/v1/symbols/:symbol/indicators.
func (s *Server) Indicators(c *gin.Context) {
	period, ok := s.period(c, s.Options.Period)
	if !ok {
		return
	}
	chart, err := model.ParseChartKind(c.Query("chart"))
	if err != nil {
		writeFailure(c, err)
		return
	}

	rep, err := s.Analyzer.Analyze(c.Request.Context(), c.Param("symbol"), period)
	if err != nil {
		writeFailure(c, err)
		return
	}

	kinds := chart.Indicators()
	rows := make([]ChartRow, len(rep.Rows))
	for i, r := range rep.Rows {
		rows[i] = ChartRow{PriceBar: r.PriceBar, Indicators: r.Values(kinds...)}
	}
	c.JSON(http.StatusOK, IndicatorsResponse{
		Symbol:  rep.Symbol,
		Period:  period.String(),
		Chart:   chart.String(),
		Company: rep.Company,
		Range:   rep.Range,
		Rows:    rows,
	})
}

// Signal handles GET /api/v1/symbols/:symbol/signal.
func (s *Server) Signal(c *gin.Context) {
	period, ok := s.period(c, s.Options.Period)
	if !ok {
		return
	}
	rep, err := s.Analyzer.Analyze(c.Request.Context(), c.Param("symbol"), period)
	if err != nil {
		writeFailure(c, err)
		return
	}
	if err := rep.Ready(); err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, SignalResponse{
		Symbol: rep.Symbol,
		Period: period.String(),
		Close:  rep.Latest.Close,
		Color:  rep.Signal.Classification.Color(),
		Signal: rep.Signal,
	})
}

// Backtest handles POST /api/v1/symbols/:symbol/backtest.
func (s *Server) Backtest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	s.applyDefaults(&req)
	if err := defaults.Set(&req); err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if err := validate.StructCtx(c.Request.Context(), &req); err != nil {
		writeValidation(c, err)
		return
	}
	period, err := collector.ParsePeriod(*req.Period)
	if err != nil {
		writeFailure(c, err)
		return
	}

	rep, err := s.Analyzer.Backtest(c.Request.Context(), c.Param("symbol"), period, *req.InitialCapital, *req.PositionFraction)
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// applyDefaults fills omitted fields from the server options. Fields the
// options leave unset are filled from the struct tags afterwards.
func (s *Server) applyDefaults(req *BacktestRequest) {
	if req.Period == nil && s.Options.BacktestPeriod != 0 {
		period := s.Options.BacktestPeriod.String()
		req.Period = &period
	}
	if req.InitialCapital == nil && s.Options.InitialCapital > 0 {
		capital := s.Options.InitialCapital
		req.InitialCapital = &capital
	}
	if req.PositionFraction == nil && s.Options.PositionFraction > 0 {
		fraction := s.Options.PositionFraction
		req.PositionFraction = &fraction
	}
}

// History handles GET /api/v1/symbols/:symbol/history.
func (s *Server) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "INVALID_INPUT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}
	symbol := strings.ToUpper(c.Param("symbol"))
	records, err := s.Analyzer.Recorder.RecentSignals(c.Request.Context(), symbol, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
		return
	}
	if records == nil {
		records = []recorder.SignalRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "signals": records})
}
