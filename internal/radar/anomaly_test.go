package radar

import (
	"context"
	"testing"
)

func TestAnomaliesVolumeSpikeHigh(t *testing.T) {
	// A week of flat hourly volume with a massive spike on the newest
	// candle: z-score far above the high threshold and change percent far
	// above the significance gate. Exactly one alert fires.
	closes := alternating(168, 100, 100.5) // balanced deltas keep RSI near 50
	volumes := repeat(168, 100)
	volumes[167] = 1000
	series := hourlySeries(closes, volumes)

	e := testEngine(series, 100.3) // mid-range price: no breakout, no rapid move

	report, err := e.Anomalies(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Alerts) != 1 {
		t.Fatalf("alerts = %d (%+v), want exactly 1", len(report.Alerts), report.Alerts)
	}
	alert := report.Alerts[0]
	if alert.ID != "volume_spike" {
		t.Errorf("id = %q, want volume_spike", alert.ID)
	}
	if alert.Type != "high" {
		t.Errorf("type = %q, want high", alert.Type)
	}
}

func TestAnomaliesVolumeSpikeSuppressedBelowMinChange(t *testing.T) {
	// Noisy volumes put the newest candle nearly 4 standard deviations
	// out, but the percent change stays under the significance gate, so
	// no alert fires.
	closes := alternating(168, 100, 100.5)
	volumes := alternating(168, 90, 110)
	volumes[167] = 140
	series := hourlySeries(closes, volumes)

	e := testEngine(series, 100.3)

	report, err := e.Anomalies(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range report.Alerts {
		if a.ID == "volume_spike" {
			t.Fatalf("volume spike should be suppressed below min change pct: %+v", a)
		}
	}
}

func TestAnomaliesResistanceBreak(t *testing.T) {
	closes := alternating(168, 100, 100.5)
	volumes := repeat(168, 100)
	series := hourlySeries(closes, volumes)
	// Candle highs sit at close+10, so the week high is ~110.5. A price
	// inside the 0.2% tolerance band counts as testing resistance.
	e := testEngine(series, 110.4)

	report, err := e.Anomalies(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, a := range report.Alerts {
		if a.ID == "resistance_break" {
			found = true
			if a.Type != "high" {
				t.Errorf("type = %q, want high", a.Type)
			}
		}
		if a.ID == "support_break" {
			t.Error("support and resistance must not fire together")
		}
	}
	if !found {
		t.Fatalf("no resistance_break in %+v", report.Alerts)
	}
}

func TestAnomaliesRapidMove(t *testing.T) {
	closes := alternating(168, 100, 100.5)
	volumes := repeat(168, 100)
	series := hourlySeries(closes, volumes)
	// Previous hourly close is 100 (index 166, even). A 4% jump clears
	// the 3% rapid threshold but stays inside the week's high band.
	e := testEngine(series, 104)

	report, err := e.Anomalies(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, a := range report.Alerts {
		if a.ID == "rapid_movement" {
			found = true
			if a.Type != "high" {
				t.Errorf("type = %q, want high", a.Type)
			}
			if a.Title != "Rapid Price Surge" {
				t.Errorf("title = %q, want Rapid Price Surge", a.Title)
			}
		}
	}
	if !found {
		t.Fatalf("no rapid_movement in %+v", report.Alerts)
	}
}

func TestRSIAlertBoundariesAreStrict(t *testing.T) {
	e := testEngine(hourlySeries(repeat(24, 100), repeat(24, 100)), 100)

	cases := []struct {
		rsi  float64
		want []string
	}{
		{50, nil},
		{70, nil},                          // exactly at threshold: no alert
		{70.1, []string{"rsi_overbought"}}, // strictly above
		{80, []string{"rsi_overbought"}},   // extreme boundary not crossed
		{80.1, []string{"rsi_overbought_extreme"}},
		{30, nil},
		{29.9, []string{"rsi_oversold"}},
		{20, []string{"rsi_oversold"}},
		{19.9, []string{"rsi_oversold_extreme"}},
	}
	for _, tc := range cases {
		alerts := e.rsiAlerts(tc.rsi)
		if len(alerts) != len(tc.want) {
			t.Errorf("rsi %v: got %d alerts, want %d", tc.rsi, len(alerts), len(tc.want))
			continue
		}
		for i, id := range tc.want {
			if alerts[i].ID != id {
				t.Errorf("rsi %v: alert[%d] = %q, want %q", tc.rsi, i, alerts[i].ID, id)
			}
		}
	}
}

func TestAnomaliesInsufficientHistory(t *testing.T) {
	e := testEngine(hourlySeries([]float64{100}, []float64{100}), 100)
	_, err := e.Anomalies(context.Background(), "BTCUSDT")
	if err == nil {
		t.Fatal("expected insufficient history error")
	}
}
