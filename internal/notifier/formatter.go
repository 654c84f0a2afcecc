package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"StockPulse/internal/analysis"
	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
)

var signalEmoji = map[model.Classification]string{
	model.StrongBuy:  "🟢🟢",
	model.Buy:        "🟢",
	model.Hold:       "🟡",
	model.Sell:       "🟠",
	model.StrongSell: "🔴",
	model.Unknown:    "⚪",
}

// FormatSignalReport formats one symbol's analysis into a Telegram message.
func FormatSignalReport(rep *analysis.Report) string {
	var b strings.Builder
	sig := rep.Signal
	last := rep.Latest

	title := rep.Symbol
	if rep.Company != nil && rep.Company.Name != "" {
		title = fmt.Sprintf("%s (%s)", html.EscapeString(rep.Company.Name), rep.Symbol)
	}
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", title, last.Date.Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("Close: %s", formatMoney(last.Close)))
	if rep.Company != nil && rep.Company.PreviousClose.Valid && rep.Company.PreviousClose.Float64 > 0 {
		chg := (last.Close/rep.Company.PreviousClose.Float64 - 1) * 100
		b.WriteString(fmt.Sprintf(" (%+.2f%%)", chg))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("52w: %s - %s (position %.0f%%)\n",
		formatMoney(rep.Range.Low52w), formatMoney(rep.Range.High52w), rep.Range.Position52w*100))
	b.WriteString(fmt.Sprintf("SMA20: %s | SMA50: %s\n", last.SMA20, last.SMA50))
	b.WriteString(fmt.Sprintf("RSI14: %s | MACD: %s / %s\n", last.RSI14, last.MACD, last.MACDSignal))
	b.WriteString(fmt.Sprintf("BB: %s - %s\n\n", last.BBLower, last.BBUpper))

	b.WriteString(fmt.Sprintf("%s <b>%s</b> (score %+d, strength %.0f)\n",
		signalEmoji[sig.Classification], sig.Classification, sig.Score, sig.Strength))
	if sig.Classification == model.Unknown {
		b.WriteString(fmt.Sprintf("Not enough history: %d bars over %s\n", len(rep.Rows), rep.Period))
	}
	for _, r := range sig.Reasons {
		b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(r)))
	}
	return b.String()
}

// FormatBacktestReport formats a backtest summary.
func FormatBacktestReport(rep *analysis.BacktestReport) string {
	res := rep.Result
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧪 <b>Backtest %s</b> | %s, %d bars\n\n", rep.Symbol, rep.Period, rep.Bars))
	b.WriteString(fmt.Sprintf("Capital: %s → %s\n", formatMoney(res.InitialCapital), formatMoney(res.FinalCapital)))
	b.WriteString(fmt.Sprintf("Total return: %+.2f%% (annualized %+.2f%%)\n", res.TotalReturnPct, res.AnnualizedReturnPct))
	b.WriteString(fmt.Sprintf("Sharpe: %.2f | Max drawdown: %.2f%%\n", res.SharpeRatio, res.MaxDrawdownPct))
	b.WriteString(fmt.Sprintf("Closed trades: %d | Win rate: %.1f%%\n", res.TotalTrades, res.WinRatePct))
	if res.TotalTrades > 0 {
		b.WriteString(fmt.Sprintf("Avg win: %s | Avg loss: %s\n", formatMoney(res.AvgWin), formatMoney(res.AvgLoss)))
	}
	if res.OpenPosition {
		b.WriteString("Position still open at the last close\n")
	}
	if rep.RunID != "" {
		b.WriteString(fmt.Sprintf("\n<code>%s</code>", rep.RunID))
	}
	return b.String()
}

// FormatWatchlist formats one line per analysed symbol. Failed symbols carry their error.
func FormatWatchlist(reports []*analysis.Report, failures map[string]error) string {
	var b strings.Builder
	b.WriteString("📋 <b>Watchlist</b>\n\n")
	for _, rep := range reports {
		sig := rep.Signal
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s  %s  RSI %s\n",
			signalEmoji[sig.Classification], rep.Symbol, sig.Classification, formatMoney(rep.Latest.Close), sig.RSI))
	}
	syms := make([]string, 0, len(failures))
	for sym := range failures {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	for _, sym := range syms {
		b.WriteString(fmt.Sprintf("⚠️ <b>%s</b> %s\n", sym, html.EscapeString(failures[sym].Error())))
	}
	return b.String()
}

// FormatHistory lists recorded signals, newest first.
func FormatHistory(symbol string, records []recorder.SignalRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("No recorded signals for %s", symbol)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 <b>%s history</b>\n\n", symbol))
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			r.EvaluatedAt.Format("2006-01-02"), signalEmoji[r.Classification], r.Classification, formatMoney(r.Close)))
	}
	return b.String()
}

// formatMoney renders v with two decimals and thousands separators.
func formatMoney(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(c)
	}
	return sign + "$" + grouped.String() + "." + frac
}
