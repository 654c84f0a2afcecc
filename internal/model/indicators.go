package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NullFloat is a value that may be undefined, e.g. before an indicator's window fills.
// The zero value is undefined, which is distinct from a defined 0.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some returns a defined value.
func Some(v float64) NullFloat { return NullFloat{Float64: v, Valid: true} }

func (n NullFloat) String() string {
	if !n.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(n.Float64, 'f', 4, 64)
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}

// IndicatorKind enumerates the derived columns of an IndicatorRow.
type IndicatorKind int

const (
	SMA20 IndicatorKind = iota
	SMA50
	RSI14
	MACD
	MACDSignal
	MACDHistogram
	BBUpper
	BBLower
	BBMid
	VolumeRatio
)

var indicatorNames = [...]string{
	SMA20:         "SMA_20",
	SMA50:         "SMA_50",
	RSI14:         "RSI_14",
	MACD:          "MACD",
	MACDSignal:    "MACD_Signal",
	MACDHistogram: "MACD_Histogram",
	BBUpper:       "BB_Upper",
	BBLower:       "BB_Lower",
	BBMid:         "BB_Mid",
	VolumeRatio:   "Volume_Ratio",
}

// AllIndicators lists every kind in column order.
var AllIndicators = []IndicatorKind{SMA20, SMA50, RSI14, MACD, MACDSignal, MACDHistogram, BBUpper, BBLower, BBMid, VolumeRatio}

func (k IndicatorKind) String() string {
	if k < 0 || int(k) >= len(indicatorNames) {
		return fmt.Sprintf("IndicatorKind(%d)", int(k))
	}
	return indicatorNames[k]
}

// ParseIndicatorKind resolves a column name such as "RSI_14" (case-insensitive).
func ParseIndicatorKind(s string) (IndicatorKind, error) {
	for _, k := range AllIndicators {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown indicator %q", ErrInvalidInput, s)
}

// IndicatorRow is a PriceBar extended with its derived indicator values.
type IndicatorRow struct {
	PriceBar
	SMA20         NullFloat `json:"SMA_20"`
	SMA50         NullFloat `json:"SMA_50"`
	RSI14         NullFloat `json:"RSI_14"`
	MACD          NullFloat `json:"MACD"`
	MACDSignal    NullFloat `json:"MACD_Signal"`
	MACDHistogram NullFloat `json:"MACD_Histogram"`
	BBUpper       NullFloat `json:"BB_Upper"`
	BBLower       NullFloat `json:"BB_Lower"`
	BBMid         NullFloat `json:"BB_Mid"`
	VolumeRatio   NullFloat `json:"Volume_Ratio"`
}

// Get returns the value of one indicator column.
func (r IndicatorRow) Get(kind IndicatorKind) NullFloat {
	switch kind {
	case SMA20:
		return r.SMA20
	case SMA50:
		return r.SMA50
	case RSI14:
		return r.RSI14
	case MACD:
		return r.MACD
	case MACDSignal:
		return r.MACDSignal
	case MACDHistogram:
		return r.MACDHistogram
	case BBUpper:
		return r.BBUpper
	case BBLower:
		return r.BBLower
	case BBMid:
		return r.BBMid
	case VolumeRatio:
		return r.VolumeRatio
	}
	return NullFloat{}
}

// Values maps indicator names to values for the given kinds (all kinds if none given).
func (r IndicatorRow) Values(kinds ...IndicatorKind) map[string]NullFloat {
	if len(kinds) == 0 {
		kinds = AllIndicators
	}
	out := make(map[string]NullFloat, len(kinds))
	for _, k := range kinds {
		out[k.String()] = r.Get(k)
	}
	return out
}

// ChartKind selects which indicator overlays a chart needs.
type ChartKind int

const (
	ChartCandlestick ChartKind = iota
	ChartLine
	ChartOHLC
	ChartBollingerBands
	ChartMACDAnalysis
)

var chartNames = map[string]ChartKind{
	"candlestick":     ChartCandlestick,
	"line":            ChartLine,
	"ohlc":            ChartOHLC,
	"bollinger bands": ChartBollingerBands,
	"bollinger":       ChartBollingerBands,
	"macd analysis":   ChartMACDAnalysis,
	"macd":            ChartMACDAnalysis,
}

// ParseChartKind resolves a front-end chart label. Empty means candlestick.
func ParseChartKind(s string) (ChartKind, error) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))
	if s == "" {
		return ChartCandlestick, nil
	}
	if k, ok := chartNames[s]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: unknown chart type %q", ErrInvalidInput, s)
}

func (c ChartKind) String() string {
	switch c {
	case ChartCandlestick:
		return "Candlestick"
	case ChartLine:
		return "Line"
	case ChartOHLC:
		return "OHLC"
	case ChartBollingerBands:
		return "Bollinger Bands"
	case ChartMACDAnalysis:
		return "MACD Analysis"
	}
	return fmt.Sprintf("ChartKind(%d)", int(c))
}

// Indicators lists the overlay columns the chart draws.
func (c ChartKind) Indicators() []IndicatorKind {
	switch c {
	case ChartBollingerBands:
		return []IndicatorKind{BBUpper, BBMid, BBLower}
	case ChartMACDAnalysis:
		return []IndicatorKind{MACD, MACDSignal, MACDHistogram}
	case ChartLine:
		return []IndicatorKind{SMA20, SMA50}
	default:
		return []IndicatorKind{SMA20, SMA50, VolumeRatio}
	}
}
