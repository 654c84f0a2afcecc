package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"StockPulse/internal/analysis"
	"StockPulse/internal/collector"
	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{12.5, "$12.50"},
		{999.999, "$1,000.00"},
		{12345.678, "$12,345.68"},
		{1234567, "$1,234,567.00"},
		{-4321.1, "-$4,321.10"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func sampleReport(class model.Classification) *analysis.Report {
	row := model.IndicatorRow{
		PriceBar: model.PriceBar{Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), Close: 187.5},
		SMA20:    model.Some(180),
		SMA50:    model.Some(175),
		RSI14:    model.Some(64.2),
	}
	return &analysis.Report{
		Symbol:  "AAPL",
		Period:  collector.Period1Y,
		Company: &model.CompanyInfo{Symbol: "AAPL", Name: "Apple & Co", PreviousClose: model.Some(150)},
		Rows:    []model.IndicatorRow{row},
		Latest:  row,
		Signal: model.TradingSignal{
			Classification: class,
			Score:          3,
			Strength:       60,
			RSI:            model.Some(64.2),
			Reasons:        []string{"Uptrend: close > SMA_20 > SMA_50"},
		},
		Range: analysis.PriceRange{High52w: 199, Low52w: 120, Position52w: 0.85},
	}
}

func TestFormatSignalReport(t *testing.T) {
	msg := FormatSignalReport(sampleReport(model.StrongBuy))
	for _, want := range []string{
		"Apple &amp; Co (AAPL)",
		"2024-05-03",
		"$187.50 (+25.00%)",
		"position 85%",
		"<b>STRONG_BUY</b>",
		"Uptrend: close &gt; SMA_20 &gt; SMA_50",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Not enough history") {
		t.Error("defined signal should not mention missing history")
	}

	unknown := FormatSignalReport(sampleReport(model.Unknown))
	if !strings.Contains(unknown, "Not enough history: 1 bars over 1y") {
		t.Errorf("unknown report should explain itself:\n%s", unknown)
	}
}

func TestFormatBacktestReport(t *testing.T) {
	rep := &analysis.BacktestReport{
		RunID:  "abc",
		Symbol: "SPY",
		Period: collector.Period2Y,
		Bars:   504,
		Result: &model.BacktestResult{
			InitialCapital: 10000,
			FinalCapital:   11234.5,
			TotalReturnPct: 12.3456,
			TotalTrades:    0,
			OpenPosition:   true,
		},
	}
	msg := FormatBacktestReport(rep)
	for _, want := range []string{"Backtest SPY", "504 bars", "$10,000.00", "$11,234.50", "+12.35%", "still open", "<code>abc</code>"} {
		if !strings.Contains(msg, want) {
			t.Errorf("backtest report missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Avg win") {
		t.Error("averages should be omitted without closed trades")
	}
}

func TestFormatWatchlist(t *testing.T) {
	msg := FormatWatchlist(
		[]*analysis.Report{sampleReport(model.Buy)},
		map[string]error{"ZZZ": errors.New("boom"), "AAA": errors.New("a<b")},
	)
	if !strings.Contains(msg, "<b>AAPL</b> BUY") {
		t.Errorf("watchlist missing report line:\n%s", msg)
	}
	if strings.Index(msg, "AAA") > strings.Index(msg, "ZZZ") {
		t.Errorf("failures should be sorted:\n%s", msg)
	}
	if !strings.Contains(msg, "a&lt;b") {
		t.Errorf("errors should be escaped:\n%s", msg)
	}
}

func TestFormatHistory(t *testing.T) {
	if got := FormatHistory("SPY", nil); got != "No recorded signals for SPY" {
		t.Errorf("unexpected empty history %q", got)
	}
	msg := FormatHistory("SPY", []recorder.SignalRecord{{
		EvaluatedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Classification: model.Sell,
		Close:          501.2,
	}})
	if !strings.Contains(msg, "2024-03-01") || !strings.Contains(msg, "SELL $501.20") {
		t.Errorf("unexpected history:\n%s", msg)
	}
}

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	tn := NewTelegramNotifier("TOKEN", "42", "", nil)
	tn.BaseURL = srv.URL
	tn.RetryBase = time.Millisecond
	return tn
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := newTestNotifier(srv).Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" || got["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := newTestNotifier(srv).SendWithRetry(context.Background(), "x", 3); err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestTelegramNotifier_RetriesExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).SendWithRetry(context.Background(), "x", 1)
	if err == nil || !strings.Contains(err.Error(), "all 2 retries exhausted") {
		t.Errorf("unexpected error %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestTelegramNotifier_Polling(t *testing.T) {
	var sent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if r.URL.Query().Get("offset") == "0" {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":"/other","chat":{"id":99}}},
					{"update_id":8,"message":{"text":" /help ","chat":{"id":42}}}]}`))
				return
			}
			<-r.Context().Done()
		case "/botTOKEN/sendMessage":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			sent.Store(body["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := newTestNotifier(srv)
	ctx, cancel := context.WithCancel(context.Background())
	var handled []string
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string {
			handled = append(handled, cmd)
			return "reply to " + cmd
		})
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for sent.Load() == nil {
		select {
		case <-deadline:
			t.Fatal("no reply sent")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if len(handled) != 1 || handled[0] != "/help" {
		t.Errorf("expected only the configured chat to be handled, got %v", handled)
	}
	if sent.Load() != "reply to /help" {
		t.Errorf("unexpected reply %v", sent.Load())
	}
}
