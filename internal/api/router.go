// Package api is the HTTP surface: REST endpoints for market data and
// radar analytics plus the radar WebSocket. Handlers are thin plumbing;
// all behavior lives in the core packages.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/eMatthiola/CryptoSage/internal/gateway"
	"github.com/eMatthiola/CryptoSage/internal/history"
	"github.com/eMatthiola/CryptoSage/internal/model"
)

// RadarService is the analytics surface the radar endpoints expose.
type RadarService interface {
	Snapshot(ctx context.Context, symbol string) (model.ChangeSnapshot, error)
	Anomalies(ctx context.Context, symbol string) (model.AnomalyReport, error)
	Tempo(ctx context.Context, symbol string) (model.TempoReport, error)
	Timeline(ctx context.Context, symbol string) (model.TimelineReport, error)
}

// HistoryService is the cache surface the market endpoints expose.
type HistoryService interface {
	GetOrFetch(ctx context.Context, symbol, interval string, days int, forceRefresh bool) (model.Series, error)
	CacheStats() history.CacheStats
}

// MarketSource is the live upstream surface the market endpoints expose.
type MarketSource interface {
	TickerOrDemo(ctx context.Context, symbol string) model.Ticker
	Fetch24hStats(ctx context.Context, symbol string) (model.TickerStats, error)
	FetchDepth(ctx context.Context, symbol string, limit int) (model.OrderBook, error)
}

// Server wires the HTTP routes to the core services.
type Server struct {
	radar    RadarService
	history  HistoryService
	source   MarketSource
	hub      *gateway.Hub
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewServer(radar RadarService, history HistoryService, source MarketSource, hub *gateway.Hub, log *slog.Logger) *Server {
	return &Server{
		radar:   radar,
		history: history,
		source:  source,
		hub:     hub,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The frontend is served from a different origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router sets up the HTTP routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/radar/", s.handleRadar)
	mux.HandleFunc("/api/v1/market/history/", s.handleHistory)
	mux.HandleFunc("/api/v1/market/", s.handleMarket)
	mux.HandleFunc("/api/v1/cache/stats", s.handleCacheStats)
	mux.HandleFunc("/ws/radar/", s.handleRadarWS)

	return withCORS(mux)
}

// withCORS opens the API to browser frontends on other origins.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pathTail splits the path remainder after prefix into non-empty segments.
func pathTail(path, prefix string) []string {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
