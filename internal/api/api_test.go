package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"StockPulse/internal/analysis"
	"StockPulse/internal/calculator"
	"StockPulse/internal/collector"
	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
	"StockPulse/internal/strategy"
	"StockPulse/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixtureFetcher map[string][]model.PriceBar

func (f fixtureFetcher) Name() string { return "fixture" }

func (f fixtureFetcher) FetchDailyBars(_ context.Context, symbol string, _ collector.Period) ([]model.PriceBar, error) {
	if symbol == "DOWN" {
		return nil, errors.New("connection reset by peer")
	}
	bars, ok := f[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: unknown symbol %s", model.ErrInvalidInput, symbol)
	}
	return bars, nil
}

func (f fixtureFetcher) FetchCompanyInfo(_ context.Context, symbol string) (*model.CompanyInfo, error) {
	return &model.CompanyInfo{Symbol: symbol, Name: symbol + " Inc"}, nil
}

type memRecorder struct {
	recorder.NoopRecorder
	mu      sync.Mutex
	records []recorder.SignalRecord
}

func (m *memRecorder) RecordSignal(_ context.Context, evt *recorder.SignalEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, recorder.SignalRecord{
		Symbol:         evt.Symbol,
		Period:         evt.Period,
		Close:          evt.Close,
		Classification: evt.Signal.Classification,
	})
	return nil
}

func (m *memRecorder) RecentSignals(_ context.Context, symbol string, limit int) ([]recorder.SignalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recorder.SignalRecord
	for _, r := range m.records {
		if r.Symbol == symbol && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestServer() (*Server, *metrics.Metrics) {
	fetcher := fixtureFetcher{
		"UP":   testutil.Compounding(120, 100, 0.01, 1_000_000),
		"NEW":  testutil.Flat(10, 20, 1000),
		"FLAT": testutil.Flat(300, 50, 1000),
	}
	m := metrics.NewMetrics()
	a := analysis.New(collector.NewCollector(fetcher, m), calculator.DefaultParams(), strategy.DefaultPolicy(), &memRecorder{}, m)
	return NewServer(a, m, Options{
		Period:           collector.Period6M,
		BacktestPeriod:   collector.Period1Y,
		InitialCapital:   5000,
		PositionFraction: 1,
	}), m
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer()
	w := do(t, s.Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("unexpected health response %d %s", w.Code, w.Body)
	}
}

func TestIndicators(t *testing.T) {
	s, _ := newTestServer()
	w := do(t, s.Handler(), http.MethodGet, "/api/v1/symbols/up/indicators?period=6mo&chart=macd", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	resp := decode[IndicatorsResponse](t, w)
	if resp.Symbol != "UP" || resp.Chart != "MACD Analysis" || resp.Period != "6mo" {
		t.Errorf("unexpected header %+v", resp)
	}
	if len(resp.Rows) != 120 {
		t.Fatalf("expected 120 rows, got %d", len(resp.Rows))
	}
	first, last := resp.Rows[0].Indicators, resp.Rows[119].Indicators
	if len(last) != 3 || !last["MACD"].Valid || !last["MACD_Signal"].Valid || !last["MACD_Histogram"].Valid {
		t.Errorf("unexpected columns %v", last)
	}
	if first["MACD"].Valid {
		t.Error("MACD should be undefined on the first bar")
	}
}

func TestErrorMapping(t *testing.T) {
	s, _ := newTestServer()
	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unknown chart", "/api/v1/symbols/up/indicators?chart=pie", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown period", "/api/v1/symbols/up/signal?period=10y", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown symbol", "/api/v1/symbols/gone/signal", http.StatusBadRequest, "INVALID_INPUT"},
		{"short history", "/api/v1/symbols/new/signal", http.StatusUnprocessableEntity, "INSUFFICIENT_HISTORY"},
		{"upstream failure", "/api/v1/symbols/down/signal", http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"no route", "/api/v2/nothing", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s.Handler(), http.MethodGet, tt.target, "")
			if w.Code != tt.status {
				t.Fatalf("status %d, want %d: %s", w.Code, tt.status, w.Body)
			}
			if got := decode[ErrorResponse](t, w).Error.Code; got != tt.code {
				t.Errorf("code %q, want %q", got, tt.code)
			}
		})
	}
}

func TestSignal(t *testing.T) {
	s, _ := newTestServer()
	w := do(t, s.Handler(), http.MethodGet, "/api/v1/symbols/up/signal", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	resp := decode[SignalResponse](t, w)
	if !resp.Signal.Classification.IsBuy() || (resp.Color != "green" && resp.Color != "lightgreen") {
		t.Errorf("unexpected signal %+v", resp)
	}
	if resp.Signal.Reasons == nil || !resp.Signal.RSI.Valid {
		t.Errorf("expected reasons and RSI, got %+v", resp.Signal)
	}
}

func TestBacktest(t *testing.T) {
	s, _ := newTestServer()

	w := do(t, s.Handler(), http.MethodPost, "/api/v1/symbols/flat/backtest", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	rep := decode[analysis.BacktestReport](t, w)
	if rep.Period != collector.Period1Y || rep.Result.InitialCapital != 5000 || rep.PositionFraction != 1 {
		t.Errorf("server defaults not applied: %+v", rep)
	}
	if rep.Result.TotalTrades != 0 || rep.Result.FinalCapital != 5000 {
		t.Errorf("flat series should not trade: %+v", rep.Result)
	}

	w = do(t, s.Handler(), http.MethodPost, "/api/v1/symbols/flat/backtest",
		`{"period":"6mo","initial_capital":2500,"position_fraction":0.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	rep = decode[analysis.BacktestReport](t, w)
	if rep.Period != collector.Period6M || rep.Result.InitialCapital != 2500 || rep.PositionFraction != 0.5 {
		t.Errorf("request values not applied: %+v", rep)
	}
}

func TestBacktest_Validation(t *testing.T) {
	s, _ := newTestServer()

	w := do(t, s.Handler(), http.MethodPost, "/api/v1/symbols/flat/backtest", `{"position_fraction":2,"initial_capital":-1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	detail := decode[ErrorResponse](t, w).Error
	if len(detail.Fields) != 2 {
		t.Fatalf("expected two field errors, got %+v", detail)
	}
	if detail.Fields[0].Field != "initial_capital" || detail.Fields[0].Code != "ERR_GT" {
		t.Errorf("unexpected first field error %+v", detail.Fields[0])
	}
	if detail.Fields[1].Field != "position_fraction" || detail.Fields[1].Message != "position_fraction must be less than or equal to 1" {
		t.Errorf("unexpected second field error %+v", detail.Fields[1])
	}

	explicit := []struct {
		body  string
		field string
	}{
		{`{"initial_capital":0}`, "initial_capital"},
		{`{"position_fraction":0}`, "position_fraction"},
		{`{"initial_capital":0,"position_fraction":0.5}`, "initial_capital"},
	}
	for _, tt := range explicit {
		w := do(t, s.Handler(), http.MethodPost, "/api/v1/symbols/flat/backtest", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400: %s", tt.body, w.Code, w.Body)
		}
		fields := decode[ErrorResponse](t, w).Error.Fields
		if len(fields) != 1 || fields[0].Field != tt.field || fields[0].Code != "ERR_GT" {
			t.Errorf("%s: unexpected field errors %+v", tt.body, fields)
		}
	}

	w = do(t, s.Handler(), http.MethodPost, "/api/v1/symbols/flat/backtest", `{"period":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body should be rejected, got %d", w.Code)
	}

	w = do(t, s.Handler(), http.MethodPost, "/api/v1/symbols/flat/backtest", `{"period":"10y"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown period should be rejected, got %d", w.Code)
	}
}

func TestBacktest_TagDefaultsWithoutServerOptions(t *testing.T) {
	s, _ := newTestServer()
	s.Options = Options{}

	w := do(t, s.Handler(), http.MethodPost, "/api/v1/symbols/flat/backtest", `{"initial_capital":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	rep := decode[analysis.BacktestReport](t, w)
	if rep.Period != collector.Period2Y || rep.Result.InitialCapital != 10000 || rep.PositionFraction != 1 {
		t.Errorf("tag defaults not applied: period=%s capital=%v fraction=%v", rep.Period, rep.Result.InitialCapital, rep.PositionFraction)
	}
}

func TestHistory(t *testing.T) {
	s, _ := newTestServer()
	h := s.Handler()
	do(t, h, http.MethodGet, "/api/v1/symbols/up/signal", "")
	do(t, h, http.MethodGet, "/api/v1/symbols/up/signal?period=3mo", "")

	w := do(t, h, http.MethodGet, "/api/v1/symbols/up/history?limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	resp := decode[struct {
		Symbol  string                  `json:"symbol"`
		Signals []recorder.SignalRecord `json:"signals"`
	}](t, w)
	if resp.Symbol != "UP" || len(resp.Signals) != 1 {
		t.Errorf("unexpected history %+v", resp)
	}

	w = do(t, h, http.MethodGet, "/api/v1/symbols/none/history", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"signals":[]`) {
		t.Errorf("empty history should be an empty list: %s", w.Body)
	}

	w = do(t, h, http.MethodGet, "/api/v1/symbols/up/history?limit=zero", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit should be rejected, got %d", w.Code)
	}
}

func TestMetricsAndCORS(t *testing.T) {
	s, _ := newTestServer()
	h := s.Handler()
	do(t, h, http.MethodGet, "/health", "")

	w := do(t, h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `stockpulse_http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Errorf("request not counted:\n%s", w.Body)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/symbols/up/signal", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS origin, got %q", got)
	}
}
