package backtest

import (
	"encoding/csv"
	"io"
	"strconv"

	"StockPulse/internal/model"
)

// WriteTradesCSV writes the trade log with one row per fill.
func WriteTradesCSV(w io.Writer, trades []model.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "side", "price", "shares", "pnl"}); err != nil {
		return err
	}
	for _, t := range trades {
		pnl := ""
		if t.Side == model.SideSell {
			pnl = fmtFloat(t.PnL)
		}
		row := []string{t.Date.Format("2006-01-02"), string(t.Side), fmtFloat(t.Price), fmtFloat(t.Shares), pnl}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes the daily equity curve.
func WriteEquityCSV(w io.Writer, curve []model.EquityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "equity"}); err != nil {
		return err
	}
	for _, p := range curve {
		if err := cw.Write([]string{p.Date.Format("2006-01-02"), fmtFloat(p.Value)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteIndicatorsCSV exports bars with every indicator column; undefined values are empty.
func WriteIndicatorsCSV(w io.Writer, rows []model.IndicatorRow) error {
	cw := csv.NewWriter(w)
	header := []string{"date", "open", "high", "low", "close", "volume"}
	for _, k := range model.AllIndicators {
		header = append(header, k.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Date.Format("2006-01-02"),
			fmtFloat(r.Open),
			fmtFloat(r.High),
			fmtFloat(r.Low),
			fmtFloat(r.Close),
			strconv.FormatInt(r.Volume, 10),
		}
		for _, k := range model.AllIndicators {
			v := r.Get(k)
			if !v.Valid {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, fmtFloat(v.Float64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
