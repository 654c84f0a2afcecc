package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func bar(day int, open, high, low, close float64) PriceBar {
	return PriceBar{
		Date:   time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 100,
	}
}

func TestPriceSeries_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bars    []PriceBar
		wantErr bool
	}{
		{"valid", []PriceBar{bar(1, 10, 11, 9, 10.5), bar(4, 10.5, 12, 10, 11)}, false},
		{"empty", nil, true},
		{"low above high", []PriceBar{bar(1, 10, 9, 11, 10)}, true},
		{"close outside range", []PriceBar{bar(1, 10, 11, 9, 12)}, true},
		{"negative price", []PriceBar{bar(1, -1, 11, -2, 10)}, true},
		{"duplicate date", []PriceBar{bar(1, 10, 11, 9, 10), bar(1, 10, 11, 9, 10)}, true},
		{"descending dates", []PriceBar{bar(5, 10, 11, 9, 10), bar(4, 10, 11, 9, 10)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PriceSeries{Symbol: "TEST", Bars: tt.bars}.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNullFloat_JSON(t *testing.T) {
	row := IndicatorRow{RSI14: Some(42.5)}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["RSI_14"] != 42.5 {
		t.Errorf("RSI_14 = %v, want 42.5", decoded["RSI_14"])
	}
	if decoded["SMA_50"] != nil {
		t.Errorf("SMA_50 = %v, want null", decoded["SMA_50"])
	}

	var back IndicatorRow
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.RSI14 != Some(42.5) || back.SMA50.Valid {
		t.Errorf("round trip lost definedness: %v %v", back.RSI14, back.SMA50)
	}
}

func TestParseChartKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ChartKind
		wantErr bool
	}{
		{"", ChartCandlestick, false},
		{"Candlestick", ChartCandlestick, false},
		{"Bollinger Bands", ChartBollingerBands, false},
		{"bollinger_bands", ChartBollingerBands, false},
		{"MACD Analysis", ChartMACDAnalysis, false},
		{"line", ChartLine, false},
		{"pie", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseChartKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseChartKind(%q) error = %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseChartKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseIndicatorKind(t *testing.T) {
	for _, k := range AllIndicators {
		got, err := ParseIndicatorKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseIndicatorKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseIndicatorKind("ATR_14"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClassification(t *testing.T) {
	if !StrongBuy.IsBuy() || !Buy.IsBuy() || Hold.IsBuy() {
		t.Error("IsBuy mismatch")
	}
	if !StrongSell.IsSell() || !Sell.IsSell() || Unknown.IsSell() {
		t.Error("IsSell mismatch")
	}
	if Unknown.Color() != "gray" || StrongBuy.Color() != "green" {
		t.Errorf("unexpected colors %s %s", Unknown.Color(), StrongBuy.Color())
	}
}
