package radar

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

const tempoMinCandles = 24

// Tempo characterizes the market's rhythm over the last three days:
// volatility trend, trading activity and directional bias, plus a fixed
// decision-table summary.
func (e *Engine) Tempo(ctx context.Context, symbol string) (model.TempoReport, error) {
	series, err := e.history.GetOrFetch(ctx, symbol, "1h", 3, false)
	if err != nil {
		return model.TempoReport{}, fmt.Errorf("tempo %s: %w", symbol, err)
	}
	if series.Len() < tempoMinCandles {
		return model.TempoReport{}, fmt.Errorf("tempo %s: %w", symbol, ErrInsufficientHistory)
	}

	closes := model.Closes(series.Candles)
	n := len(closes)

	// Volatility rhythm: stddev of the last 6 closes vs the 6 before.
	recentStd := stddev(closes[n-6:])
	previousStd := stddev(closes[n-12 : n-6])

	volatilityChange := 0.0
	if previousStd > 0 {
		volatilityChange = pctChange(recentStd, previousStd)
	}

	var volatilityTrend, volatilityLabel string
	switch {
	case volatilityChange > e.cfg.Tempo.AcceleratePct:
		volatilityTrend, volatilityLabel = "accelerating", "High Volatility"
	case volatilityChange < e.cfg.Tempo.DeceleratePct:
		volatilityTrend, volatilityLabel = "decelerating", "Low"
	default:
		volatilityTrend, volatilityLabel = "stable", "Moderate"
	}

	volatilityLevel := 50.0
	if maxStd := stddev(closes); maxStd > 0 {
		volatilityLevel = clamp(recentStd/maxStd*100, 0, 100)
	}

	// Trading activity: last 6h volume vs the 24h average.
	recentVolume := mean(model.Volumes(series.Tail(6)))
	avgVolume24h := mean(model.Volumes(series.Tail(24)))

	activityVsAverage := 0.0
	if avgVolume24h > 0 {
		activityVsAverage = pctChange(recentVolume, avgVolume24h)
	}
	activityLevel := clamp(50+activityVsAverage/2, 0, 100)

	activityLabel := "Quiet"
	switch {
	case activityLevel > e.cfg.Tempo.VeryActiveLvl:
		activityLabel = "Very Active"
	case activityLevel > e.cfg.Tempo.ActiveLvl:
		activityLabel = "Active"
	}

	// Directional bias: mean of 6-candle momentum and SMA20 slope.
	currentPrice := closes[n-1]
	price6hAgo := closes[n-7]
	priceMomentum := pctChange(currentPrice, price6hAgo)

	sma20 := mean(closes[n-20:])
	sma20Prev := sma20
	if n > 21 {
		sma20Prev = mean(closes[n-21 : n-1])
	}
	smaSlope := 0.0
	if sma20Prev > 0 {
		smaSlope = pctChange(sma20, sma20Prev)
	}

	directionScore := (priceMomentum + smaSlope) / 2

	var directionBias, directionLabel string
	directionLevel := 50.0
	band := e.cfg.Tempo.DirectionBand
	switch {
	case directionScore > band:
		directionBias, directionLabel = "bullish", "Uptrend"
		directionLevel = clamp(50+directionScore*10, 0, 100)
	case directionScore < -band:
		directionBias, directionLabel = "bearish", "Downtrend"
		directionLevel = clamp(50+directionScore*10, 0, 100)
	default:
		directionBias, directionLabel = "neutral", "Sideways"
	}

	summary := tempoSummary(volatilityLevel, activityLevel, directionLevel, directionBias)

	return model.TempoReport{
		Volatility: model.TempoGauge{
			Level: round(volatilityLevel, 0),
			Trend: volatilityTrend,
			Label: volatilityLabel,
		},
		Activity: model.TempoGauge{
			Level:     round(activityLevel, 0),
			VsAverage: round(activityVsAverage, 0),
			Label:     activityLabel,
		},
		Direction: model.TempoGauge{
			Level: round(directionLevel, 0),
			Bias:  directionBias,
			Label: directionLabel,
		},
		Summary:   summary,
		Timestamp: e.timestamp(),
	}, nil
}

// tempoSummary is a fixed decision table; first matching row wins.
func tempoSummary(volatilityLevel, activityLevel, directionLevel float64, directionBias string) string {
	switch {
	case volatilityLevel > 70 && directionLevel > 40 && directionLevel < 60:
		return "Active trading with increased volatility but no clear directional trend. Consider waiting for confirmation signals before taking positions."
	case volatilityLevel > 70 && directionBias == "bullish":
		return "Strong upward momentum with high volatility. Potential for continuation but watch for exhaustion signals."
	case volatilityLevel > 70 && directionBias == "bearish":
		return "Downward pressure with elevated volatility. Support levels may be tested."
	case activityLevel < 40:
		return "Low trading activity and reduced volatility. Market in consolidation phase."
	default:
		return "Normal market conditions with balanced activity levels."
	}
}

func mean(vals []float64) float64 {
	m, err := stats.Mean(stats.Float64Data(vals))
	if err != nil {
		return 0
	}
	return m
}

func stddev(vals []float64) float64 {
	sd, err := stats.StandardDeviationSample(stats.Float64Data(vals))
	if err != nil {
		return 0
	}
	return sd
}
