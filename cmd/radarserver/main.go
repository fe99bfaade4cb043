// cmd/radarserver runs the market radar service: REST + WebSocket API,
// background cache refresh, Prometheus metrics and optional Redis fan-out.
//
// Usage:
//
//	SYMBOLS=BTCUSDT,ETHUSDT LISTEN_ADDR=:8000 go run ./cmd/radarserver
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eMatthiola/CryptoSage/config"
	"github.com/eMatthiola/CryptoSage/internal/api"
	"github.com/eMatthiola/CryptoSage/internal/gateway"
	"github.com/eMatthiola/CryptoSage/internal/history"
	"github.com/eMatthiola/CryptoSage/internal/logger"
	"github.com/eMatthiola/CryptoSage/internal/metrics"
	"github.com/eMatthiola/CryptoSage/internal/notification"
	"github.com/eMatthiola/CryptoSage/internal/radar"
	"github.com/eMatthiola/CryptoSage/internal/scheduler"
	"github.com/eMatthiola/CryptoSage/internal/source"
	redisstore "github.com/eMatthiola/CryptoSage/internal/store/redis"
	sqlitestore "github.com/eMatthiola/CryptoSage/internal/store/sqlite"
	"github.com/eMatthiola/CryptoSage/internal/thresholds"

	goredis "github.com/go-redis/redis/v8"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[radarserver] starting...")

	cfg := config.Load()
	slogger := logger.Init("radarserver", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[radarserver] received %v, shutting down", sig)
		cancel()
	}()

	m := metrics.New()
	health := metrics.NewHealthStatus()

	// Durable candle store
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("[radarserver] create data dir: %v", err)
		}
	}
	store, err := sqlitestore.New(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[radarserver] sqlite open failed: %v", err)
	}
	defer store.Close()

	// Upstream market data with endpoint fallback
	src := source.New(cfg.ParseEndpoints(), slogger, m)
	defer src.Close()

	// Cached history: memory LRU over the sqlite tier
	hist := history.NewService(src, store, slogger, m)

	// Detection thresholds
	th, err := thresholds.Load(cfg.ThresholdsPath)
	if err != nil {
		log.Fatalf("[radarserver] thresholds load failed: %v", err)
	}

	engine := radar.NewEngine(hist, src, th, nil, slogger)

	// Optional Redis fan-out for radar updates
	var pub gateway.Publisher
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		rp, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("[radarserver] redis connection failed: %v", err)
		}
		defer rp.Close()
		pub = rp
		redisClient = rp.Client()
	}

	hub := gateway.NewHub(engine, pub, m, slogger,
		time.Duration(cfg.PushIntervalSec)*time.Second)

	// High-severity alerts go to the webhook when configured, else the log
	var notifier notification.Notifier
	if cfg.WebhookURL != "" {
		notifier = notification.NewWebhookNotifier(cfg.WebhookURL)
	} else {
		notifier = notification.NewLogNotifier()
	}
	cooldown := time.Duration(th.Dedup.MinSecondsBetweenSame) * time.Second
	hub.SetAlertSink(notification.NewForwarder(notifier, cooldown))

	// Periodic cache refresh for tracked symbols
	targets := make([]scheduler.Target, 0)
	for _, sym := range cfg.ParseSymbols() {
		targets = append(targets, scheduler.Target{Symbol: sym, Interval: "1h", Days: cfg.RefreshDays})
	}
	sched := scheduler.New(ctx, hist, targets, slogger)
	if err := sched.Register(cfg.RefreshCron); err != nil {
		log.Fatalf("[radarserver] bad refresh cron spec %q: %v", cfg.RefreshCron, err)
	}
	sched.Start()
	go sched.RunNow() // warm the cache without blocking startup

	health.StartLivenessChecker(ctx, redisClient, store.DB(), 30*time.Second)
	metricsServer := metrics.NewServer(cfg.MetricsAddr, health)
	metricsServer.Start()

	apiServer := api.NewServer(engine, hist, src, hub, slogger)
	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: apiServer.Router(),
	}
	go func() {
		log.Printf("[radarserver] listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[radarserver] http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	sched.Stop()
	metricsServer.Stop(shutdownCtx)
	log.Println("[radarserver] shutdown complete")
}
