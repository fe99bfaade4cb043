package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eMatthiola/CryptoSage/internal/indicator"
	"github.com/eMatthiola/CryptoSage/internal/model"
	"github.com/eMatthiola/CryptoSage/internal/radar"
	"github.com/eMatthiola/CryptoSage/internal/source"
)

// handleRadar serves /api/v1/radar/{symbol}/{analytic}.
func (s *Server) handleRadar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	parts := pathTail(r.URL.Path, "/api/v1/radar/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	symbol := strings.ToUpper(parts[0])

	var (
		payload interface{}
		err     error
	)
	switch parts[1] {
	case "snapshot":
		payload, err = s.radar.Snapshot(r.Context(), symbol)
	case "anomalies":
		payload, err = s.radar.Anomalies(r.Context(), symbol)
	case "tempo":
		payload, err = s.radar.Tempo(r.Context(), symbol)
	case "timeline":
		payload, err = s.radar.Timeline(r.Context(), symbol)
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleMarket serves /api/v1/market/{symbol}[/indicators|/orderbook|/stats].
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	parts := pathTail(r.URL.Path, "/api/v1/market/")
	if len(parts) == 0 || len(parts) > 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	symbol := strings.ToUpper(parts[0])

	if len(parts) == 1 {
		writeJSON(w, http.StatusOK, s.source.TickerOrDemo(r.Context(), symbol))
		return
	}

	switch parts[1] {
	case "indicators":
		s.serveIndicators(w, r, symbol)
	case "orderbook":
		limit := queryInt(r, "limit", 20)
		book, err := s.source.FetchDepth(r.Context(), symbol, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case "stats":
		stats, err := s.source.Fetch24hStats(r.Context(), symbol)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// serveIndicators computes the indicator panel over the cached week of
// candles for the requested interval.
func (s *Server) serveIndicators(w http.ResponseWriter, r *http.Request, symbol string) {
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1h"
	}

	series, err := s.history.GetOrFetch(r.Context(), symbol, interval, 7, false)

	var snap indicator.Snapshot
	if err != nil {
		s.log.Warn("indicators degraded to demo", "symbol", symbol, "err", err)
		snap = indicator.Demo()
	} else {
		snap = indicator.Compute(model.Closes(series.Candles))
	}

	writeJSON(w, http.StatusOK, struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
		indicator.Snapshot
		Timestamp string `json:"timestamp"`
	}{
		Symbol:    symbol,
		Interval:  interval,
		Snapshot:  snap,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// handleHistory serves /api/v1/market/history/{symbol}?interval=&limit=.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	parts := pathTail(r.URL.Path, "/api/v1/market/history/")
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	symbol := strings.ToUpper(parts[0])

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1h"
	}
	limit := queryInt(r, "limit", 100)
	if limit < 1 {
		limit = 1
	}

	// Window sized so the cache holds at least `limit` candles.
	intervalMs := source.IntervalMillis(interval)
	days := int((int64(limit)*intervalMs + dayMillis - 1) / dayMillis)
	if days < 1 {
		days = 1
	}

	series, err := s.history.GetOrFetch(r.Context(), symbol, interval, days, false)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Symbol   string         `json:"symbol"`
		Interval string         `json:"interval"`
		Candles  []model.Candle `json:"candles"`
	}{
		Symbol:   symbol,
		Interval: interval,
		Candles:  series.Tail(limit),
	})
}

// handleCacheStats serves /api/v1/cache/stats.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.history.CacheStats())
}

// handleRadarWS serves /ws/radar/{symbol}: upgrades and hands the
// connection to the hub, which drives the per-connection update loop.
func (s *Server) handleRadarWS(w http.ResponseWriter, r *http.Request) {
	parts := pathTail(r.URL.Path, "/ws/radar/")
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	symbol := strings.ToUpper(parts[0])

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "symbol", symbol, "err", err)
		return
	}
	s.hub.HandleConn(r.Context(), conn, symbol)
}

const dayMillis = int64(24 * 60 * 60 * 1000)

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeServiceError maps core errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, radar.ErrInsufficientHistory):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, source.ErrSourceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
