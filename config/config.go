// Package config loads service configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// HTTP surfaces
	ListenAddr  string
	MetricsAddr string

	// Upstream market data (comma-separated REST bases, fallback order).
	// Empty means the built-in endpoint list.
	SourceEndpoints string

	// Storage
	SQLitePath string

	// Redis fan-out. Empty RedisAddr disables publishing entirely.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Detection thresholds YAML. Empty means built-in defaults.
	ThresholdsPath string

	// Radar push loop
	PushIntervalSec int

	// Background refresh
	Symbols     string // comma-separated, e.g. "BTCUSDT,ETHUSDT"
	RefreshCron string
	RefreshDays int

	// Alert delivery. Empty WebhookURL falls back to log-only delivery.
	WebhookURL string

	LogLevel string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is merged in first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env file")
	}

	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8000"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		SourceEndpoints: getEnv("SOURCE_ENDPOINTS", ""),

		SQLitePath: getEnv("SQLITE_PATH", "data/candles.db"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ThresholdsPath: getEnv("THRESHOLDS_PATH", ""),

		PushIntervalSec: getEnvInt("RADAR_PUSH_INTERVAL_SEC", 30),

		Symbols:     getEnv("SYMBOLS", "BTCUSDT,ETHUSDT"),
		RefreshCron: getEnv("REFRESH_CRON", "*/30 * * * *"),
		RefreshDays: getEnvInt("REFRESH_DAYS", 7),

		WebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// ParseEndpoints splits SourceEndpoints into a trimmed list. Empty input
// yields nil so the source layer uses its built-in fallback order.
func (c *Config) ParseEndpoints() []string {
	return splitList(c.SourceEndpoints)
}

// ParseSymbols splits Symbols into the uppercase tracked-symbol list.
func (c *Config) ParseSymbols() []string {
	syms := splitList(c.Symbols)
	for i, s := range syms {
		syms[i] = strings.ToUpper(s)
	}
	return syms
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[config] invalid integer for %s: %q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}
