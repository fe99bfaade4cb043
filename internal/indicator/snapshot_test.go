package indicator

import (
	"math"
	"testing"
)

func TestComputeShortSeriesIsDemo(t *testing.T) {
	for _, n := range []int{0, 1, 49} {
		closes := make([]float64, n)
		for i := range closes {
			closes[i] = 100
		}
		snap := Compute(closes)
		if !snap.Demo {
			t.Errorf("len %d: expected demo placeholder", n)
		}
		if snap.RSI != 62.5 {
			t.Errorf("len %d: demo rsi = %v, want 62.5", n, snap.RSI)
		}
	}
}

func TestComputeFullPanel(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	snap := Compute(closes)

	if snap.Demo {
		t.Fatal("real series flagged as demo")
	}
	if snap.RSI <= 50 || snap.RSI > 100 {
		t.Errorf("uptrend RSI = %v, want > 50", snap.RSI)
	}
	if snap.MACD <= 0 {
		t.Errorf("uptrend MACD = %v, want positive", snap.MACD)
	}
	if !(snap.BBLower < snap.BBMiddle && snap.BBMiddle < snap.BBUpper) {
		t.Errorf("band ordering broken: %v %v %v", snap.BBLower, snap.BBMiddle, snap.BBUpper)
	}
	if snap.EMA20 <= snap.EMA50 {
		t.Errorf("uptrend EMA20 (%v) should exceed EMA50 (%v)", snap.EMA20, snap.EMA50)
	}
}

func TestComputeRounding(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100.123456 + float64(i)*0.987654
	}
	snap := Compute(closes)
	for label, v := range map[string]float64{
		"rsi": snap.RSI, "macd": snap.MACD, "ema20": snap.EMA20, "bb_upper": snap.BBUpper,
	} {
		if math.Abs(v*100-math.Round(v*100)) > 1e-6 {
			t.Errorf("%s = %v, want 2-decimal rounding", label, v)
		}
	}
}
