package calculator

import (
	"math"
	"testing"

	"StockPulse/internal/model"
	"StockPulse/internal/testutil"
)

func assertClose(t *testing.T, label string, got model.NullFloat, want, tol float64) {
	t.Helper()
	if !got.Valid {
		t.Errorf("%s: got undefined, want %.6f", label, want)
		return
	}
	if math.Abs(got.Float64-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (diff=%.6f)", label, got.Float64, want, math.Abs(got.Float64-want))
	}
}

func wave(n int) []model.PriceBar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/6) + float64(i%7)*0.3
	}
	return testutil.FromCloses(closes, 1_000_000)
}

func TestSMA_UndefinedUntilWindowFills(t *testing.T) {
	closes := []float64{100, 102, 104, 103, 105}
	got := SMA(closes, 3)
	want := []float64{0, 0, 102, 103, 104}
	for i := range closes {
		if i < 2 {
			if got[i].Valid {
				t.Errorf("index %d: expected undefined, got %v", i, got[i])
			}
			continue
		}
		assertClose(t, "SMA(3)", got[i], want[i], 1e-9)
	}
}

func TestSMA_MeanOfTrailingWindow(t *testing.T) {
	bars := wave(80)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	for _, w := range []int{1, 5, 20, 50} {
		got := SMA(closes, w)
		for i := range closes {
			if i < w-1 {
				if got[i].Valid {
					t.Fatalf("w=%d index %d: expected undefined", w, i)
				}
				continue
			}
			sum := 0.0
			for j := i - w + 1; j <= i; j++ {
				sum += closes[j]
			}
			assertClose(t, "SMA", got[i], sum/float64(w), 1e-9)
		}
	}
}

func TestEMA_SeededWithSMA(t *testing.T) {
	in := defined([]float64{1, 2, 3, 4, 5})
	got := EMA(in, 3)
	if got[0].Valid || got[1].Valid {
		t.Fatalf("expected first two rows undefined, got %v %v", got[0], got[1])
	}
	assertClose(t, "seed", got[2], 2, 1e-12)
	assertClose(t, "ema[3]", got[3], 3, 1e-12)
	assertClose(t, "ema[4]", got[4], 4, 1e-12)
}

func TestEMA_SkipsLeadingUndefined(t *testing.T) {
	in := []model.NullFloat{{}, {}, model.Some(2), model.Some(4), model.Some(6)}
	got := EMA(in, 2)
	if got[2].Valid {
		t.Fatal("expected no value before the seed window is full")
	}
	assertClose(t, "seed", got[3], 3, 1e-12)
	// k = 2/3
	assertClose(t, "ema[4]", got[4], 6*2.0/3+3.0/3, 1e-12)
}

func TestRSI_KnownValues(t *testing.T) {
	got := RSI([]float64{1, 2, 1, 2}, 2)
	if got[0].Valid || got[1].Valid {
		t.Fatal("expected first `period` rows undefined")
	}
	assertClose(t, "RSI seed", got[2], 50, 1e-9)
	assertClose(t, "RSI wilder", got[3], 75, 1e-9)
}

func TestRSI_AllGainsIs100(t *testing.T) {
	bars := testutil.Rising(40, 100, 1, 1000)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	got := RSI(closes, 14)
	for i := 14; i < len(got); i++ {
		if !got[i].Valid || got[i].Float64 != 100 {
			t.Fatalf("index %d: expected RSI=100, got %v", i, got[i])
		}
	}
}

func TestRSI_FlatIsNeutral(t *testing.T) {
	got := RSI([]float64{5, 5, 5, 5, 5}, 3)
	if !got[3].Valid || got[3].Float64 != NeutralRSI {
		t.Errorf("expected neutral RSI, got %v", got[3])
	}
}

func TestRSI_Bounded(t *testing.T) {
	rows := Compute(wave(200), DefaultParams())
	for i, r := range rows {
		if !r.RSI14.Valid {
			if i >= 14 {
				t.Fatalf("index %d: expected RSI defined", i)
			}
			continue
		}
		if r.RSI14.Float64 < 0 || r.RSI14.Float64 > 100 {
			t.Fatalf("index %d: RSI out of range: %.4f", i, r.RSI14.Float64)
		}
	}
}

func TestBollinger_SampleStdDev(t *testing.T) {
	b := Bollinger([]float64{1, 2, 3}, 3, 2)
	assertClose(t, "mid", b.Mid[2], 2, 1e-12)
	assertClose(t, "upper", b.Upper[2], 4, 1e-12)
	assertClose(t, "lower", b.Lower[2], 0, 1e-12)
}

func TestBollinger_Ordering(t *testing.T) {
	rows := Compute(wave(150), DefaultParams())
	for i, r := range rows {
		if !r.BBMid.Valid {
			continue
		}
		if !(r.BBUpper.Float64 >= r.BBMid.Float64 && r.BBMid.Float64 >= r.BBLower.Float64) {
			t.Fatalf("index %d: bands out of order: %v %v %v", i, r.BBUpper, r.BBMid, r.BBLower)
		}
		if r.BBUpper.Float64 == r.BBLower.Float64 {
			t.Fatalf("index %d: bands collapsed on a non-constant window", i)
		}
	}
}

func TestMACD_DefinedFromSignalWarmup(t *testing.T) {
	rows := Compute(wave(60), DefaultParams())
	for i, r := range rows {
		if (i >= 25) != r.MACD.Valid {
			t.Fatalf("index %d: MACD valid=%v", i, r.MACD.Valid)
		}
		if (i >= 33) != r.MACDSignal.Valid {
			t.Fatalf("index %d: MACD signal valid=%v", i, r.MACDSignal.Valid)
		}
		if r.MACDHistogram.Valid {
			assertClose(t, "histogram", r.MACDHistogram, r.MACD.Float64-r.MACDSignal.Float64, 1e-12)
		}
	}
}

func TestVolumeRatio(t *testing.T) {
	vols := make([]int64, 25)
	for i := range vols {
		vols[i] = 1000
	}
	vols[24] = 3000
	got := VolumeRatio(vols, 20)
	if got[18].Valid {
		t.Error("expected undefined before window fills")
	}
	assertClose(t, "constant", got[19], 1, 1e-12)
	assertClose(t, "spike", got[24], 3000/1100.0, 1e-12)

	zero := VolumeRatio(make([]int64, 25), 20)
	if zero[24].Valid {
		t.Error("expected undefined ratio when average volume is zero")
	}
}

var flatPrices = []float64{100, 0.13, 0.27, 19.99, 33.33}

func TestCompute_FlatSeriesCollapses(t *testing.T) {
	for _, price := range flatPrices {
		rows := Compute(testutil.Flat(60, price, 5000), DefaultParams())
		if len(rows) != 60 {
			t.Fatalf("expected 60 rows, got %d", len(rows))
		}
		last := rows[59]
		for _, k := range []model.IndicatorKind{model.SMA20, model.SMA50, model.BBUpper, model.BBMid, model.BBLower} {
			if v := last.Get(k); !v.Valid || v.Float64 != price {
				t.Errorf("price %v %s: expected exact %v, got %v", price, k, price, v.Float64)
			}
		}
		if last.RSI14.Float64 != NeutralRSI {
			t.Errorf("price %v: expected neutral RSI, got %v", price, last.RSI14)
		}
		if last.MACD != model.Some(0) || last.MACDSignal != model.Some(0) {
			t.Errorf("price %v: expected MACD and signal of exactly 0, got %v / %v", price, last.MACD, last.MACDSignal)
		}
		if last.VolumeRatio.Float64 != 1 {
			t.Errorf("price %v: expected volume ratio 1, got %v", price, last.VolumeRatio)
		}
	}
}

func TestMean_ConstantWindowIsExact(t *testing.T) {
	for _, price := range flatPrices {
		window := make([]float64, 50)
		for i := range window {
			window[i] = price
		}
		if got := mean(window); got != price {
			t.Errorf("mean of constant %v = %v", price, got)
		}
	}
	if got := mean(nil); got != 0 {
		t.Errorf("mean of empty window = %v, want 0", got)
	}
}

func TestCompute_NoLookAhead(t *testing.T) {
	bars := wave(120)
	full := Compute(bars, DefaultParams())
	for _, k := range []int{1, 15, 34, 50, 77, 120} {
		prefix := Compute(bars[:k], DefaultParams())
		if prefix[k-1] != full[k-1] {
			t.Errorf("prefix %d: row differs from full computation", k)
		}
	}
}

func TestCompute_PreservesOrderAndLength(t *testing.T) {
	bars := wave(10)
	rows := Compute(bars, DefaultParams())
	for i := range bars {
		if rows[i].PriceBar != bars[i] {
			t.Fatalf("row %d does not carry its bar", i)
		}
		if rows[i].SMA20.Valid {
			t.Fatalf("row %d: expected undefined SMA_20 on short history", i)
		}
	}
}

func TestParams_Warmup(t *testing.T) {
	if w := DefaultParams().Warmup(); w != 50 {
		t.Errorf("expected warmup 50, got %d", w)
	}
	p := DefaultParams()
	p.MACDFast = 30
	if err := p.Validate(); err == nil {
		t.Error("expected error when fast >= slow")
	}
}

func TestCalculate52WeekPosition(t *testing.T) {
	tests := []struct {
		current, high, low float64
		want               float64
	}{
		{150, 200, 100, 0.5},
		{250, 200, 100, 1},
		{50, 200, 100, 0},
		{100, 100, 100, 0.5},
	}
	for _, tt := range tests {
		got, err := Calculate52WeekPosition(tt.current, tt.high, tt.low)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("position(%v,%v,%v) = %v, want %v", tt.current, tt.high, tt.low, got, tt.want)
		}
	}
	if _, err := Calculate52WeekPosition(1, 1, 2); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestCalculate52WeekRange(t *testing.T) {
	bars := testutil.Closes(10, 30, 20)
	high, low, err := Calculate52WeekRange(bars)
	if err != nil {
		t.Fatal(err)
	}
	if high != 30*1.01 || low != 10*0.99 {
		t.Errorf("unexpected range %v..%v", low, high)
	}
	if _, _, err := Calculate52WeekRange(nil); err == nil {
		t.Error("expected error for empty input")
	}
}
