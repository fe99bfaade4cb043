package indicator

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func TestSMA_Correctness_Period3(t *testing.T) {
	// Hand-calculated SMA(3) for a known price series:
	// Prices: 100, 102, 104, 103, 105
	// SMA after close 3: (100+102+104)/3 = 102.0
	// SMA after close 4: (102+104+103)/3 = 103.0
	// SMA after close 5: (104+103+105)/3 = 104.0

	sma := NewSMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 103.0, 104.0}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		sma.Update(p)
		if sma.Ready() != ready[i] {
			t.Errorf("close %d: Ready()=%v, want %v", i, sma.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "SMA(3)", sma.Value(), expected[i], 0.0001)
		}
	}
}

func TestEMA_Correctness_Period3(t *testing.T) {
	// EMA(3): multiplier = 2/(3+1) = 0.5
	// Prices: 100, 102, 104, 103, 105
	// Close 3: initial EMA = 306/3 = 102.0 (SMA seed)
	// Close 4: EMA = 103*0.5 + 102.0*0.5 = 102.5
	// Close 5: EMA = 105*0.5 + 102.5*0.5 = 103.75

	ema := NewEMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 102.5, 103.75}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		ema.Update(p)
		if ema.Ready() != ready[i] {
			t.Errorf("close %d: Ready()=%v, want %v", i, ema.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "EMA(3)", ema.Value(), expected[i], 0.0001)
		}
	}
}

func TestRSI_Correctness_Period5(t *testing.T) {
	// Prices: 44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84
	//
	// First RSI (after 6 closes, period=5):
	//   avgGain = (0.34+0.72+0.50)/5 = 0.312, avgLoss = (0.25+0.48)/5 = 0.146
	//   RS = 2.13699 → RSI = 68.112
	// Close 7: avgGain = 0.3036, avgLoss = 0.1168 → RSI = 72.219
	// Close 8: avgGain = 0.30688, avgLoss = 0.09344 → RSI = 76.658
	// Close 9: avgGain = 0.329504, avgLoss = 0.074752 → RSI = 81.509

	prices := []float64{44.00, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}

	rsi := NewRSI(5)
	for i := 0; i <= 5; i++ {
		rsi.Update(prices[i])
	}
	assertClose(t, "RSI(5) close 6", rsi.Value(), 68.112, 0.1)

	rsi.Update(prices[6])
	assertClose(t, "RSI(5) close 7", rsi.Value(), 72.219, 0.1)

	rsi.Update(prices[7])
	assertClose(t, "RSI(5) close 8", rsi.Value(), 76.658, 0.1)

	rsi.Update(prices[8])
	assertClose(t, "RSI(5) close 9", rsi.Value(), 81.509, 0.2)
}

func TestRSI_AllUp_Is100(t *testing.T) {
	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Update(100 + float64(i))
	}
	assertClose(t, "RSI all up", rsi.Value(), 100.0, 0.001)
}

func TestRSI_AllDown_Is0(t *testing.T) {
	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Update(200 - float64(i))
	}
	assertClose(t, "RSI all down", rsi.Value(), 0.0, 0.001)
}

func TestMACD_Signs(t *testing.T) {
	// Rising prices: fast EMA above slow EMA, MACD line positive.
	macd := NewMACD(12, 26, 9)
	for i := 0; i < 60; i++ {
		macd.Update(100 + float64(i))
	}
	if !macd.Ready() {
		t.Fatal("MACD not ready after 60 closes")
	}
	if macd.Value() <= 0 {
		t.Errorf("MACD line = %.4f, want positive in uptrend", macd.Value())
	}

	// Falling prices: MACD line negative.
	macd = NewMACD(12, 26, 9)
	for i := 0; i < 60; i++ {
		macd.Update(200 - float64(i))
	}
	if macd.Value() >= 0 {
		t.Errorf("MACD line = %.4f, want negative in downtrend", macd.Value())
	}
}

func TestMACD_HistogramIsLineMinusSignal(t *testing.T) {
	macd := NewMACD(12, 26, 9)
	for i := 0; i < 60; i++ {
		macd.Update(100 + math.Sin(float64(i)/5)*10)
	}
	assertClose(t, "histogram", macd.Histogram(), macd.Value()-macd.Signal(), 1e-9)
}

func TestBollinger_FlatSeriesCollapses(t *testing.T) {
	bb := NewBollinger(20, 2)
	for i := 0; i < 25; i++ {
		bb.Update(100)
	}
	assertClose(t, "middle", bb.Value(), 100, 0.0001)
	assertClose(t, "upper", bb.Upper(), 100, 0.0001)
	assertClose(t, "lower", bb.Lower(), 100, 0.0001)
}

func TestBollinger_KnownWindow(t *testing.T) {
	// Window of 20 closes alternating 90/110: mean 100, population stddev 10.
	bb := NewBollinger(20, 2)
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			bb.Update(90)
		} else {
			bb.Update(110)
		}
	}
	assertClose(t, "middle", bb.Value(), 100, 0.0001)
	assertClose(t, "upper", bb.Upper(), 120, 0.0001)
	assertClose(t, "lower", bb.Lower(), 80, 0.0001)
}

func TestIndicators_TrendingUp_Ordering(t *testing.T) {
	// With steadily rising prices, faster MAs should be above slower MAs.
	sma5 := NewSMA(5)
	sma20 := NewSMA(20)
	ema5 := NewEMA(5)

	for i := 0; i < 30; i++ {
		c := 100 + float64(i)
		sma5.Update(c)
		sma20.Update(c)
		ema5.Update(c)
	}

	if sma5.Value() <= sma20.Value() {
		t.Errorf("SMA(5) should be > SMA(20) in uptrend: SMA5=%.2f, SMA20=%.2f", sma5.Value(), sma20.Value())
	}
	if ema5.Value() <= sma20.Value() {
		t.Errorf("EMA(5) should be > SMA(20) in uptrend: EMA5=%.2f, SMA20=%.2f", ema5.Value(), sma20.Value())
	}
}

func TestEMA_MoreResponsiveThanSMA(t *testing.T) {
	sma := NewSMA(10)
	ema := NewEMA(10)

	for i := 0; i < 20; i++ {
		sma.Update(100)
		ema.Update(100)
	}

	// Sudden jump to 120
	sma.Update(120)
	ema.Update(120)

	if ema.Value() <= sma.Value() {
		t.Errorf("EMA should react more than SMA to sudden jump: EMA=%.4f, SMA=%.4f", ema.Value(), sma.Value())
	}
}
