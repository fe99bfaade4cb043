package indicator

import "math"

// minCloses is the shortest close series Compute accepts; EMA(50) is the
// slowest component.
const minCloses = 50

// Snapshot is the point-in-time indicator panel computed over a close series.
// All values are rounded to 2 decimals.
type Snapshot struct {
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_histogram"`
	BBUpper    float64 `json:"bb_upper"`
	BBMiddle   float64 `json:"bb_middle"`
	BBLower    float64 `json:"bb_lower"`
	EMA20      float64 `json:"ema_20"`
	EMA50      float64 `json:"ema_50"`
	Demo       bool    `json:"_demo,omitempty"`
}

// Compute streams the closes through the standard panel: RSI(14),
// MACD(12,26,9), Bollinger(20,2), EMA(20), EMA(50). Series too short to
// warm up the panel get the flagged demo placeholder.
func Compute(closes []float64) Snapshot {
	if len(closes) < minCloses {
		return Demo()
	}

	rsi := NewRSI(14)
	macd := NewMACD(12, 26, 9)
	bb := NewBollinger(20, 2)
	ema20 := NewEMA(20)
	ema50 := NewEMA(50)

	for _, c := range closes {
		rsi.Update(c)
		macd.Update(c)
		bb.Update(c)
		ema20.Update(c)
		ema50.Update(c)
	}

	return Snapshot{
		RSI:        round2(rsi.Value()),
		MACD:       round2(macd.Value()),
		MACDSignal: round2(macd.Signal()),
		MACDHist:   round2(macd.Histogram()),
		BBUpper:    round2(bb.Upper()),
		BBMiddle:   round2(bb.Value()),
		BBLower:    round2(bb.Lower()),
		EMA20:      round2(ema20.Value()),
		EMA50:      round2(ema50.Value()),
	}
}

// Demo returns the flagged placeholder panel used when no market data is
// reachable.
func Demo() Snapshot {
	return Snapshot{
		RSI:        62.5,
		MACD:       120.5,
		MACDSignal: 115.2,
		MACDHist:   5.3,
		BBUpper:    44500.0,
		BBMiddle:   43250.0,
		BBLower:    42000.0,
		EMA20:      43100.0,
		EMA50:      42800.0,
		Demo:       true,
	}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
