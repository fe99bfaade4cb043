package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the market-state engine.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter

	SourceRequests  *prometheus.CounterVec // labels: outcome=ok|exhausted
	SourceFallbacks *prometheus.CounterVec // labels: endpoint
	CollectDur      prometheus.Histogram

	RadarPushes     prometheus.Counter
	RadarSlotErrors *prometheus.CounterVec // labels: analytic
	RadarClients    prometheus.Gauge
}

// New registers and returns all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cryptosage_cache_hits_total",
			Help: "Series cache hits (memory or durable tier)",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cryptosage_cache_misses_total",
			Help: "Series cache misses requiring upstream collection",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cryptosage_cache_evictions_total",
			Help: "In-memory cache entries evicted (LRU or TTL)",
		}),
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptosage_source_requests_total",
			Help: "Upstream request outcomes",
		}, []string{"outcome"}),
		SourceFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptosage_source_fallbacks_total",
			Help: "Failed endpoint attempts that moved on to the next source",
		}, []string{"endpoint"}),
		CollectDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cryptosage_collect_duration_seconds",
			Help:    "Full historical series collection latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RadarPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cryptosage_radar_pushes_total",
			Help: "Combined radar updates pushed to clients",
		}),
		RadarSlotErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptosage_radar_slot_errors_total",
			Help: "Per-analytic failures inside radar broadcast passes",
		}, []string{"analytic"}),
		RadarClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cryptosage_radar_clients",
			Help: "Currently connected radar WebSocket clients",
		}),
	}

	prometheus.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.CacheEvictions,
		m.SourceRequests,
		m.SourceFallbacks,
		m.CollectDur,
		m.RadarPushes,
		m.RadarSlotErrors,
		m.RadarClients,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool `json:"redis_connected"`
	SQLiteOK       bool `json:"sqlite_ok"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
		// Redis is optional; report healthy until a probe says otherwise.
		RedisConnected: true,
		SQLiteOK:       true,
	}
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx is done.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
