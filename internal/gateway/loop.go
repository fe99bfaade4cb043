package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

// Analytics is the radar engine surface the loop consumes.
type Analytics interface {
	Snapshot(ctx context.Context, symbol string) (model.ChangeSnapshot, error)
	Anomalies(ctx context.Context, symbol string) (model.AnomalyReport, error)
	Tempo(ctx context.Context, symbol string) (model.TempoReport, error)
	Timeline(ctx context.Context, symbol string) (model.TimelineReport, error)
}

// runLoop pushes a combined radar update to one client every interval
// until the connection or ctx goes away. A failing analytic nils its data
// slot and reports the error string; it never kills the loop.
func (h *Hub) runLoop(ctx context.Context, c *Client) {
	// The loop is the sole sender on c.send; closing it here tells
	// writePump to emit the close frame and exit.
	defer close(c.send)

	// First update immediately, then on the ticker.
	for {
		update := h.radarPass(ctx, c.symbol)

		payload, err := json.Marshal(update)
		if err != nil {
			log.Printf("[radar] marshal failed symbol=%s: %v", c.symbol, err)
		} else {
			select {
			case c.send <- payload:
				if h.metrics != nil {
					h.metrics.RadarPushes.Inc()
				}
			case <-ctx.Done():
				return
			}
			if h.publisher != nil {
				if err := h.publisher.Publish(ctx, update); err != nil {
					h.log.Warn("radar publish failed", "symbol", c.symbol, "err", err)
				}
			}
			if h.alerts != nil && update.Data.Anomalies != nil {
				if err := h.alerts.ForwardHigh(ctx, c.symbol, update.Data.Anomalies.Alerts); err != nil {
					h.log.Warn("alert forward failed", "symbol", c.symbol, "err", err)
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(h.pushInterval):
		}
	}
}

// radarPass runs the four analytics concurrently and joins the results
// into one update message.
func (h *Hub) radarPass(ctx context.Context, symbol string) model.RadarUpdate {
	update := model.RadarUpdate{
		Type:      "market_radar_update",
		Symbol:    symbol,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		if snap, err := h.engine.Snapshot(ctx, symbol); err != nil {
			update.Errors.Snapshot = h.slotError("snapshot", symbol, err)
		} else {
			update.Data.Snapshot = &snap
		}
	}()
	go func() {
		defer wg.Done()
		if report, err := h.engine.Anomalies(ctx, symbol); err != nil {
			update.Errors.Anomalies = h.slotError("anomalies", symbol, err)
		} else {
			update.Data.Anomalies = &report
		}
	}()
	go func() {
		defer wg.Done()
		if report, err := h.engine.Tempo(ctx, symbol); err != nil {
			update.Errors.Tempo = h.slotError("tempo", symbol, err)
		} else {
			update.Data.Tempo = &report
		}
	}()
	go func() {
		defer wg.Done()
		if report, err := h.engine.Timeline(ctx, symbol); err != nil {
			update.Errors.Timeline = h.slotError("timeline", symbol, err)
		} else {
			update.Data.Timeline = &report
		}
	}()

	wg.Wait()
	return update
}

func (h *Hub) slotError(analytic, symbol string, err error) *string {
	if h.metrics != nil {
		h.metrics.RadarSlotErrors.WithLabelValues(analytic).Inc()
	}
	h.log.Warn("radar analytic failed", "analytic", analytic, "symbol", symbol, "err", err)
	msg := err.Error()
	return &msg
}
