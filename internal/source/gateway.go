// Package source fetches raw market data from upstream exchange endpoints
// with ordered fallback: each call walks the endpoint list until one
// succeeds, so a geo-restricted or failing primary never takes the
// system down on its own.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/eMatthiola/CryptoSage/internal/metrics"
	"github.com/eMatthiola/CryptoSage/internal/model"
)

// ErrSourceUnavailable means every upstream endpoint failed for one call.
var ErrSourceUnavailable = errors.New("all market data sources failed")

// DefaultEndpoints lists upstream REST bases in fallback order.
// binance.us first: primary deployments are US-hosted and binance.com
// answers them with HTTP 451.
var DefaultEndpoints = []string{
	"https://api.binance.us/api/v3",
	"https://api.binance.com/api/v3",
}

// Gateway is the upstream market-data client. One shared HTTP client per
// gateway; callers must Close on shutdown.
type Gateway struct {
	endpoints []string
	client    *http.Client
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a Gateway over the given endpoint list (DefaultEndpoints
// when empty).
func New(endpoints []string, log *slog.Logger, m *metrics.Metrics) *Gateway {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	return &Gateway{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log,
		metrics:   m,
	}
}

// Close releases the gateway's HTTP resources.
func (g *Gateway) Close() {
	g.client.CloseIdleConnections()
}

// get walks the endpoint list in order. HTTP 451, any non-2xx status or a
// transport error moves on to the next endpoint; a success short-circuits.
// No retries within a single endpoint attempt.
func (g *Gateway) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	var lastErr error
	for _, base := range g.endpoints {
		u := base + path
		if len(params) > 0 {
			u += "?" + params.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("source: build request: %w", err)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			g.log.Warn("source endpoint failed, trying next", "endpoint", base, "err", err)
			g.countFallback(base)
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			g.log.Warn("source read failed, trying next", "endpoint", base, "err", err)
			g.countFallback(base)
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusUnavailableForLegalReasons {
			g.log.Warn("source geo-restricted (451), trying next", "endpoint", base)
			g.countFallback(base)
			lastErr = fmt.Errorf("geo-restricted: %s", base)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			g.log.Warn("source returned error status, trying next",
				"endpoint", base, "status", resp.StatusCode)
			g.countFallback(base)
			lastErr = fmt.Errorf("http %d from %s", resp.StatusCode, base)
			continue
		}
		if g.metrics != nil {
			g.metrics.SourceRequests.WithLabelValues("ok").Inc()
		}
		return body, nil
	}
	if g.metrics != nil {
		g.metrics.SourceRequests.WithLabelValues("exhausted").Inc()
	}
	return nil, fmt.Errorf("%w (last: %v)", ErrSourceUnavailable, lastErr)
}

func (g *Gateway) countFallback(endpoint string) {
	if g.metrics != nil {
		g.metrics.SourceFallbacks.WithLabelValues(endpoint).Inc()
	}
}

// FetchKlines fetches up to limit candles (max 1000) for symbol/interval.
// startTime/endTime are Unix milliseconds; zero means unset. Candles with
// unparseable numeric fields are skipped, never fatal.
func (g *Gateway) FetchKlines(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) ([]model.Candle, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))
	if startTime > 0 {
		params.Set("startTime", strconv.FormatInt(startTime, 10))
	}
	if endTime > 0 {
		params.Set("endTime", strconv.FormatInt(endTime, 10))
	}

	body, err := g.get(ctx, "/klines", params)
	if err != nil {
		return nil, err
	}
	return parseKlines(body), nil
}

// FetchTicker fetches the live 24h ticker for a symbol.
func (g *Gateway) FetchTicker(ctx context.Context, symbol string) (model.Ticker, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := g.get(ctx, "/ticker/24hr", params)
	if err != nil {
		return model.Ticker{}, err
	}

	var raw struct {
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
		Volume             string `json:"volume"`
		HighPrice          string `json:"highPrice"`
		LowPrice           string `json:"lowPrice"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.Ticker{}, fmt.Errorf("source: decode ticker: %w", err)
	}
	return model.Ticker{
		Symbol:    symbol,
		Price:     parseFloat(raw.LastPrice),
		Change24h: parseFloat(raw.PriceChangePercent),
		Volume24h: parseFloat(raw.Volume),
		High24h:   parseFloat(raw.HighPrice),
		Low24h:    parseFloat(raw.LowPrice),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// TickerOrDemo returns the live ticker, degrading to a clearly flagged
// placeholder when every source fails. Keeps the radar usable offline.
func (g *Gateway) TickerOrDemo(ctx context.Context, symbol string) model.Ticker {
	t, err := g.FetchTicker(ctx, symbol)
	if err != nil {
		g.log.Warn("ticker unavailable, serving demo data", "symbol", symbol, "err", err)
		return DemoTicker(symbol)
	}
	return t
}

// DemoTicker is the fixed placeholder used when no source is reachable.
func DemoTicker(symbol string) model.Ticker {
	return model.Ticker{
		Symbol:    symbol,
		Price:     43250.50,
		Change24h: 2.35,
		Volume24h: 28500000000,
		High24h:   44100.00,
		Low24h:    42800.00,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Demo:      true,
	}
}

// Fetch24hStats fetches the full 24h statistics payload for a symbol.
func (g *Gateway) Fetch24hStats(ctx context.Context, symbol string) (model.TickerStats, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := g.get(ctx, "/ticker/24hr", params)
	if err != nil {
		return model.TickerStats{}, err
	}

	var raw struct {
		Symbol             string `json:"symbol"`
		PriceChange        string `json:"priceChange"`
		PriceChangePercent string `json:"priceChangePercent"`
		WeightedAvgPrice   string `json:"weightedAvgPrice"`
		LastPrice          string `json:"lastPrice"`
		Volume             string `json:"volume"`
		QuoteVolume        string `json:"quoteVolume"`
		HighPrice          string `json:"highPrice"`
		LowPrice           string `json:"lowPrice"`
		OpenPrice          string `json:"openPrice"`
		CloseTime          int64  `json:"closeTime"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.TickerStats{}, fmt.Errorf("source: decode stats: %w", err)
	}
	return model.TickerStats{
		Symbol:             raw.Symbol,
		PriceChange:        parseFloat(raw.PriceChange),
		PriceChangePercent: parseFloat(raw.PriceChangePercent),
		WeightedAvgPrice:   parseFloat(raw.WeightedAvgPrice),
		LastPrice:          parseFloat(raw.LastPrice),
		Volume:             parseFloat(raw.Volume),
		QuoteVolume:        parseFloat(raw.QuoteVolume),
		High24h:            parseFloat(raw.HighPrice),
		Low24h:             parseFloat(raw.LowPrice),
		OpenPrice:          parseFloat(raw.OpenPrice),
		CloseTime:          raw.CloseTime,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// FetchDepth fetches the order book and derives pressure metrics:
// bid/ask ratio, spread, large-order counts (top 20% by volume) and a
// depth-strength score.
func (g *Gateway) FetchDepth(ctx context.Context, symbol string, limit int) (model.OrderBook, error) {
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))
	body, err := g.get(ctx, "/depth", params)
	if err != nil {
		return model.OrderBook{}, err
	}

	var raw struct {
		Bids [][2]string `json:"bids"`
		Asks [][2]string `json:"asks"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.OrderBook{}, fmt.Errorf("source: decode depth: %w", err)
	}
	if len(raw.Bids) == 0 || len(raw.Asks) == 0 {
		return model.OrderBook{}, fmt.Errorf("source: empty order book for %s", symbol)
	}

	bidVols := make([]float64, len(raw.Bids))
	askVols := make([]float64, len(raw.Asks))
	var totalBid, totalAsk float64
	for i, b := range raw.Bids {
		bidVols[i] = parseFloat(b[1])
		totalBid += bidVols[i]
	}
	for i, a := range raw.Asks {
		askVols[i] = parseFloat(a[1])
		totalAsk += askVols[i]
	}

	ratio := 1.0
	if totalAsk > 0 {
		ratio = totalBid / totalAsk
	}
	bestBid := parseFloat(raw.Bids[0][0])
	bestAsk := parseFloat(raw.Asks[0][0])
	spread := bestAsk - bestBid
	spreadPct := 0.0
	if bestAsk > 0 {
		spreadPct = spread / bestAsk * 100
	}

	minVol := totalBid
	if totalAsk < minVol {
		minVol = totalAsk
	}

	return model.OrderBook{
		Symbol:         symbol,
		BidAskRatio:    round(ratio, 3),
		Spread:         round(spread, 2),
		SpreadPct:      round(spreadPct, 4),
		TotalBidVolume: round(totalBid, 4),
		TotalAskVolume: round(totalAsk, 4),
		LargeBids:      countLargeOrders(bidVols),
		LargeAsks:      countLargeOrders(askVols),
		DepthStrength:  round(minVol/1000, 2),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// countLargeOrders counts levels at or above the 80th volume percentile.
func countLargeOrders(vols []float64) int {
	if len(vols) == 0 {
		return 0
	}
	sorted := make([]float64, len(vols))
	copy(sorted, vols)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	threshold := sorted[len(sorted)/5]
	n := 0
	for _, v := range vols {
		if v >= threshold {
			n++
		}
	}
	return n
}
