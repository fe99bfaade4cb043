// Package radar computes the four market-state analytics: change snapshot,
// anomaly alerts, market tempo and event timeline. All analytics are
// stateless reads over cached candle series; thresholds come from the
// threshold table, never from literals.
package radar

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eMatthiola/CryptoSage/internal/assist"
	"github.com/eMatthiola/CryptoSage/internal/indicator"
	"github.com/eMatthiola/CryptoSage/internal/model"
	"github.com/eMatthiola/CryptoSage/internal/thresholds"
)

// ErrInsufficientHistory is returned when a series is shorter than the
// analytic's minimum window. Callers surface it per-slot instead of
// failing the whole radar pass.
var ErrInsufficientHistory = errors.New("insufficient historical data")

// HistoryProvider is the candle series slice of the cache layer.
type HistoryProvider interface {
	GetOrFetch(ctx context.Context, symbol, interval string, days int, forceRefresh bool) (model.Series, error)
}

// TickerProvider supplies the live price, degrading to a flagged demo
// ticker when no source is reachable.
type TickerProvider interface {
	TickerOrDemo(ctx context.Context, symbol string) model.Ticker
}

// Engine runs the radar analytics for one or more symbols.
type Engine struct {
	history HistoryProvider
	ticker  TickerProvider
	cfg     *thresholds.Config
	news    assist.NewsSearcher
	log     *slog.Logger

	now func() time.Time
}

func NewEngine(history HistoryProvider, ticker TickerProvider, cfg *thresholds.Config, news assist.NewsSearcher, log *slog.Logger) *Engine {
	if news == nil {
		news = assist.NopSearcher{}
	}
	return &Engine{
		history: history,
		ticker:  ticker,
		cfg:     cfg,
		news:    news,
		log:     log,
		now:     time.Now,
	}
}

// indicatorPanel computes the current hourly indicator snapshot from the
// cached week of candles.
func (e *Engine) indicatorPanel(ctx context.Context, symbol string) indicator.Snapshot {
	series, err := e.history.GetOrFetch(ctx, symbol, "1h", 7, false)
	if err != nil {
		e.log.Warn("indicator panel degraded to demo", "symbol", symbol, "err", err)
		return indicator.Demo()
	}
	return indicator.Compute(model.Closes(series.Candles))
}

func (e *Engine) timestamp() string {
	return e.now().Format(time.RFC3339)
}
