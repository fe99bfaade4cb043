package radar

import (
	"context"
	"fmt"
	"math"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

// Snapshot compares the current market state with one hour ago: price and
// volume change, estimated RSI shift, momentum direction and news flow.
func (e *Engine) Snapshot(ctx context.Context, symbol string) (model.ChangeSnapshot, error) {
	series, err := e.history.GetOrFetch(ctx, symbol, "1h", 1, false)
	if err != nil {
		return model.ChangeSnapshot{}, fmt.Errorf("snapshot %s: %w", symbol, err)
	}
	if series.Len() < 2 {
		return model.ChangeSnapshot{}, fmt.Errorf("snapshot %s: %w", symbol, ErrInsufficientHistory)
	}

	ticker := e.ticker.TickerOrDemo(ctx, symbol)
	panel := e.indicatorPanel(ctx, symbol)

	current, _ := series.Last(0)
	oneHourAgo, _ := series.Last(1)

	priceChange := pctChange(ticker.Price, oneHourAgo.Close)

	// Volume vs the trailing 24h average.
	avgVolume := mean(model.Volumes(series.Tail(24)))
	volumeChange := 0.0
	if avgVolume > 0 {
		volumeChange = pctChange(current.Volume, avgVolume)
	}

	// The previous RSI is estimated from the price change rather than
	// recomputed over the shifted window; the shift direction is what
	// consumers read, not the absolute value.
	rsiCurrent := panel.RSI
	rsiPrevious := clamp(rsiCurrent-priceChange*0.5, 0, 100)

	momentum := "neutral"
	switch {
	case priceChange > 1 && volumeChange > 20:
		momentum = "rising"
	case priceChange < -1 && volumeChange > 20:
		momentum = "falling"
	}

	newsCount, newsTopic := 0, "Market"
	if items, err := e.news.Search(ctx, "market", symbol, 10, 1); err == nil && len(items) > 0 {
		newsCount = len(items)
		newsTopic = items[0].Topic
	}

	return model.ChangeSnapshot{
		PriceChange:  round(priceChange, 2),
		VolumeChange: round(volumeChange, 2),
		RSIShift: model.RSIShift{
			From: round(rsiPrevious, 1),
			To:   round(rsiCurrent, 1),
		},
		Momentum:  momentum,
		NewsCount: newsCount,
		NewsTopic: newsTopic,
		Timestamp: e.timestamp(),
	}, nil
}

func pctChange(current, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
