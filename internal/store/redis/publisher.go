// Package redis mirrors radar updates into Redis so other processes can
// consume them: a pub/sub channel per symbol for live fan-out plus a
// latest-value key for late joiners.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

const (
	latestTTL      = 30 * time.Minute
	publishTimeout = 2 * time.Second
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher fans radar updates out through Redis. Publish failures trip a
// circuit breaker so a dead Redis cannot stall the broadcast loops.
type Publisher struct {
	client  *goredis.Client
	breaker *CircuitBreaker
}

// New creates a Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{
		client:  client,
		breaker: NewCircuitBreaker(5, 10*time.Second),
	}, nil
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Publish sends the update on pub:radar:<symbol> and refreshes
// radar:latest:<symbol>.
func (p *Publisher) Publish(ctx context.Context, update model.RadarUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal radar update: %w", err)
	}

	channel := "pub:radar:" + update.Symbol
	latestKey := "radar:latest:" + update.Symbol

	return p.breaker.Execute(func() error {
		opCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		pipe := p.client.Pipeline()
		pipe.Publish(opCtx, channel, payload)
		pipe.Set(opCtx, latestKey, payload, latestTTL)
		if _, err := pipe.Exec(opCtx); err != nil {
			return fmt.Errorf("redis publish %s: %w", channel, err)
		}
		return nil
	})
}

// Close releases the Redis connection.
func (p *Publisher) Close() error { return p.client.Close() }
