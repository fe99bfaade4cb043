package radar

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

// Anomalies scans a week of hourly candles for volume spikes, RSI
// extremes, price breakouts and rapid moves. Severity is "high" or
// "watch"; extreme RSI readings suppress the plain variant.
func (e *Engine) Anomalies(ctx context.Context, symbol string) (model.AnomalyReport, error) {
	series, err := e.history.GetOrFetch(ctx, symbol, "1h", e.cfg.Volume.LookbackDays, false)
	if err != nil {
		return model.AnomalyReport{}, fmt.Errorf("anomalies %s: %w", symbol, err)
	}
	if series.Len() < 2 {
		return model.AnomalyReport{}, fmt.Errorf("anomalies %s: %w", symbol, ErrInsufficientHistory)
	}

	ticker := e.ticker.TickerOrDemo(ctx, symbol)
	panel := e.indicatorPanel(ctx, symbol)

	alerts := []model.Alert{}
	alerts = append(alerts, e.volumeSpikeAlerts(series)...)
	alerts = append(alerts, e.rsiAlerts(panel.RSI)...)
	alerts = append(alerts, e.breakoutAlerts(series, ticker.Price)...)
	alerts = append(alerts, e.rapidMoveAlerts(series, ticker.Price)...)

	return model.AnomalyReport{Alerts: alerts, Timestamp: e.timestamp()}, nil
}

// volumeSpikeAlerts fires when the latest candle's volume z-score crosses
// the watch threshold and the percent change clears the significance gate.
func (e *Engine) volumeSpikeAlerts(series model.Series) []model.Alert {
	current, _ := series.Last(0)
	volumes := stats.Float64Data(model.Volumes(series.Candles))

	volMean, err := stats.Mean(volumes)
	if err != nil {
		return nil
	}
	volStd, err := stats.StandardDeviationSample(volumes)
	if err != nil {
		return nil
	}

	zScore := 0.0
	if volStd > 0 {
		zScore = (current.Volume - volMean) / volStd
	}
	if zScore <= e.cfg.Volume.ZScoreWatch {
		return nil
	}

	changePct := pctChange(current.Volume, volMean)
	if abs(changePct) < e.cfg.Volume.MinChangePct {
		return nil
	}

	severity := "watch"
	if zScore > e.cfg.Volume.ZScoreHigh {
		severity = "high"
	}
	return []model.Alert{{
		ID:          "volume_spike",
		Type:        severity,
		Icon:        "📊",
		Title:       "Volume Spike",
		Description: fmt.Sprintf("+%.0f%% vs %d-day average", changePct, e.cfg.Volume.LookbackDays),
		Context:     fmt.Sprintf("Z-score: %.1f - Increased market activity", zScore),
		Timestamp:   fmt.Sprintf("%d minutes ago", int(zScore*5)),
	}}
}

// rsiAlerts maps the current RSI to at most one overbought and one
// oversold alert, with the extreme variant taking precedence.
func (e *Engine) rsiAlerts(rsi float64) []model.Alert {
	var alerts []model.Alert

	if e.cfg.IsOverbought(rsi, true) {
		alerts = append(alerts, model.Alert{
			ID:          "rsi_overbought_extreme",
			Type:        "high",
			Icon:        "🔴",
			Title:       "RSI Extreme Overbought",
			Description: fmt.Sprintf("%.1f (>%g)", rsi, e.cfg.RSI.OverboughtExtreme),
			Context:     "Strong pullback risk - Market may be overheated",
			Timestamp:   "5 minutes ago",
		})
	} else if e.cfg.IsOverbought(rsi, false) {
		alerts = append(alerts, model.Alert{
			ID:          "rsi_overbought",
			Type:        "watch",
			Icon:        "⚠️",
			Title:       "RSI Overbought",
			Description: fmt.Sprintf("%.1f (>%g)", rsi, e.cfg.RSI.Overbought),
			Context:     "May indicate pullback risk",
			Timestamp:   "5 minutes ago",
		})
	}

	if e.cfg.IsOversold(rsi, true) {
		alerts = append(alerts, model.Alert{
			ID:          "rsi_oversold_extreme",
			Type:        "high",
			Icon:        "🟢",
			Title:       "RSI Extreme Oversold",
			Description: fmt.Sprintf("%.1f (<%g)", rsi, e.cfg.RSI.OversoldExtreme),
			Context:     "Strong bounce opportunity - Market may be oversold",
			Timestamp:   "5 minutes ago",
		})
	} else if e.cfg.IsOversold(rsi, false) {
		alerts = append(alerts, model.Alert{
			ID:          "rsi_oversold",
			Type:        "watch",
			Icon:        "⚠️",
			Title:       "RSI Oversold",
			Description: fmt.Sprintf("%.1f (<%g)", rsi, e.cfg.RSI.Oversold),
			Context:     "May indicate bounce opportunity",
			Timestamp:   "5 minutes ago",
		})
	}
	return alerts
}

// breakoutAlerts compares the live price against the lookback high/low
// with a small tolerance band. Resistance wins when both would fire.
func (e *Engine) breakoutAlerts(series model.Series, price float64) []model.Alert {
	weekHigh, weekLow := highLow(series.Candles)

	if price >= weekHigh*(1-e.cfg.Breakout.ResistanceTolerance) {
		return []model.Alert{{
			ID:          "resistance_break",
			Type:        "high",
			Icon:        "📈",
			Title:       "Key Resistance Break",
			Description: fmt.Sprintf("Price at $%.2f testing $%.2f (%d-day high)", price, weekHigh, e.cfg.Breakout.LookbackDays),
			Context:     "Potential continuation or rejection zone",
			Timestamp:   "10 minutes ago",
		}}
	}
	if price <= weekLow*(1+e.cfg.Breakout.SupportTolerance) {
		return []model.Alert{{
			ID:          "support_break",
			Type:        "high",
			Icon:        "📉",
			Title:       "Key Support Break",
			Description: fmt.Sprintf("Price broke $%.2f (%d-day low)", weekLow, e.cfg.Breakout.LookbackDays),
			Context:     "Potential breakdown or bounce zone",
			Timestamp:   "10 minutes ago",
		}}
	}
	return nil
}

// rapidMoveAlerts fires when the live price moved more than the rapid
// threshold against the previous hourly close.
func (e *Engine) rapidMoveAlerts(series model.Series, price float64) []model.Alert {
	prev, ok := series.Last(1)
	if !ok || prev.Close == 0 {
		return nil
	}
	change1h := pctChange(price, prev.Close)
	if abs(change1h) <= e.cfg.Movement.RapidChangePct {
		return nil
	}

	direction := "Surge"
	if change1h < 0 {
		direction = "Drop"
	}
	return []model.Alert{{
		ID:          "rapid_movement",
		Type:        "high",
		Icon:        "💰",
		Title:       fmt.Sprintf("Rapid Price %s", direction),
		Description: fmt.Sprintf("%+.1f%% in 1 hour", change1h),
		Context:     "Significant volatility detected",
		Timestamp:   "Just now",
	}}
}

func highLow(candles []model.Candle) (high, low float64) {
	for i, c := range candles {
		if i == 0 || c.High > high {
			high = c.High
		}
		if i == 0 || c.Low < low {
			low = c.Low
		}
	}
	return high, low
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
