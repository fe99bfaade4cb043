// Package gateway is the WebSocket delivery layer: it holds connected
// radar clients and drives one analytics loop per connection.
package gateway

import (
	"context"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/eMatthiola/CryptoSage/internal/metrics"
	"github.com/eMatthiola/CryptoSage/internal/model"
)

const defaultPushInterval = 30 * time.Second

// Publisher mirrors each pushed radar update into an external fan-out
// channel. Optional; a nil Publisher disables mirroring.
type Publisher interface {
	Publish(ctx context.Context, update model.RadarUpdate) error
}

// AlertSink receives the high-severity alerts of each pass. Optional.
type AlertSink interface {
	ForwardHigh(ctx context.Context, symbol string, alerts []model.Alert) error
}

// Hub tracks connected radar clients and runs their update loops.
type Hub struct {
	engine    Analytics
	publisher Publisher
	alerts    AlertSink
	metrics   *metrics.Metrics
	log       *slog.Logger

	pushInterval time.Duration

	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub(engine Analytics, publisher Publisher, m *metrics.Metrics, log *slog.Logger, pushInterval time.Duration) *Hub {
	if pushInterval <= 0 {
		pushInterval = defaultPushInterval
	}
	return &Hub{
		engine:       engine,
		publisher:    publisher,
		metrics:      m,
		log:          log,
		pushInterval: pushInterval,
		clients:      make(map[*Client]bool),
	}
}

// SetAlertSink installs the high-severity alert forwarder. Call before
// the first connection is accepted.
func (h *Hub) SetAlertSink(sink AlertSink) {
	h.alerts = sink
}

// HandleConn registers an upgraded WebSocket connection and starts its
// pumps plus the per-connection radar loop. Blocks until the connection
// goes away or ctx is cancelled.
func (h *Hub) HandleConn(ctx context.Context, conn *websocket.Conn, symbol string) {
	client := &Client{
		id:     uuid.NewString(),
		symbol: symbol,
		conn:   conn,
		send:   make(chan []byte, 16),
		hub:    h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.RadarClients.Set(float64(count))
	}

	log.Printf("[radar] ws client connected symbol=%s id=%s (%d total)", symbol, client.id, count)

	loopCtx, cancel := context.WithCancel(ctx)
	client.cancel = cancel

	go client.writePump()
	go h.runLoop(loopCtx, client)
	client.readPump() // returns on disconnect
}

// RemoveClient unregisters a client and cancels its loop. Safe to call
// twice. c.send stays open: the loop owns it and closes it on exit, so a
// pass still in flight can never send on a closed channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RadarClients.Set(float64(count))
	}
	c.cancel()
	log.Printf("[radar] ws client disconnected symbol=%s id=%s (%d total)", c.symbol, c.id, count)
}

// ClientCount returns the number of connected radar clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
