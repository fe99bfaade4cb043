package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/eMatthiola/CryptoSage/internal/metrics"
	"github.com/eMatthiola/CryptoSage/internal/model"
	"github.com/eMatthiola/CryptoSage/internal/source"
)

const (
	pageLimit        = 1000
	defaultPageDelay = 500 * time.Millisecond

	// Durable rows older than this are treated as stale and re-collected.
	durableMaxAge = 24 * time.Hour
)

// KlineFetcher is the upstream slice of the source gateway the service needs.
type KlineFetcher interface {
	FetchKlines(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) ([]model.Candle, error)
}

// DurableStore is the on-disk candle tier.
type DurableStore interface {
	SaveSeries(ctx context.Context, series model.Series) error
	LoadSeries(ctx context.Context, symbol, interval string) (model.Series, error)
}

// Service resolves candle series through three tiers: memory LRU, durable
// store, upstream collection. Concurrent misses on the same key share a
// single upstream collection.
type Service struct {
	fetcher KlineFetcher
	store   DurableStore // nil disables the durable tier
	cache   *lruCache
	log     *slog.Logger
	metrics *metrics.Metrics
	group   singleflight.Group

	pageDelay time.Duration
	now       func() time.Time
}

func NewService(fetcher KlineFetcher, store DurableStore, log *slog.Logger, m *metrics.Metrics) *Service {
	s := &Service{
		fetcher:   fetcher,
		store:     store,
		cache:     newLRUCache(defaultMaxSize, defaultTTL),
		log:       log,
		metrics:   m,
		pageDelay: defaultPageDelay,
		now:       time.Now,
	}
	if m != nil {
		s.cache.evicted = func() { m.CacheEvictions.Inc() }
	}
	return s
}

// CacheStats exposes memory-tier occupancy for the monitoring endpoint.
func (s *Service) CacheStats() CacheStats { return s.cache.Stats() }

// GetOrFetch returns the candle series for (symbol, interval) covering the
// last `days` days. forceRefresh skips both cache tiers and re-collects.
func (s *Service) GetOrFetch(ctx context.Context, symbol, interval string, days int, forceRefresh bool) (model.Series, error) {
	key := fmt.Sprintf("%s_%s_%d", symbol, interval, days)

	if !forceRefresh {
		if series, ok := s.cache.Get(key); ok {
			s.countHit()
			return series, nil
		}
	}
	s.countMiss()

	// Forced calls fly under their own key so they never join a plain
	// miss already in flight and inherit its cached result.
	flightKey := key
	if forceRefresh {
		flightKey = key + "!force"
	}

	v, err, _ := s.group.Do(flightKey, func() (interface{}, error) {
		// Another caller may have populated the cache while we waited
		// for the flight slot.
		if !forceRefresh {
			if series, ok := s.cache.Get(key); ok {
				return series, nil
			}
			if series, ok := s.loadDurable(ctx, symbol, interval); ok {
				s.cache.Set(key, series)
				return series, nil
			}
		}

		series, err := s.collect(ctx, symbol, interval, days)
		if err != nil {
			return model.Series{}, err
		}
		if s.store != nil {
			if err := s.store.SaveSeries(ctx, series); err != nil {
				s.log.Warn("durable save failed", "symbol", symbol, "interval", interval, "err", err)
			}
		}
		s.cache.Set(key, series)
		return series, nil
	})
	if err != nil {
		return model.Series{}, err
	}
	return v.(model.Series), nil
}

// loadDurable returns the stored series when its newest candle is less than
// a day old.
func (s *Service) loadDurable(ctx context.Context, symbol, interval string) (model.Series, bool) {
	if s.store == nil {
		return model.Series{}, false
	}
	series, err := s.store.LoadSeries(ctx, symbol, interval)
	if err != nil {
		s.log.Warn("durable load failed", "symbol", symbol, "interval", interval, "err", err)
		return model.Series{}, false
	}
	if series.Len() == 0 {
		return model.Series{}, false
	}
	newest := series.Candles[series.Len()-1].Time()
	if s.now().Sub(newest) >= durableMaxAge {
		return model.Series{}, false
	}
	return series, true
}

// collect pulls the full window from upstream in pages of up to 1000
// candles. A page failure after the first page degrades to a partial
// result instead of erroring.
func (s *Service) collect(ctx context.Context, symbol, interval string, days int) (model.Series, error) {
	start := time.Now()

	intervalMs := source.IntervalMillis(interval)
	endTime := s.now().UnixMilli()
	startTime := endTime - int64(days)*24*int64(time.Hour/time.Millisecond)

	candlesNeeded := (endTime - startTime) / intervalMs
	requestsNeeded := int(candlesNeeded/pageLimit) + 1

	var collected []model.Candle
	cursor := startTime
	for i := 0; i < requestsNeeded; i++ {
		page, err := s.fetcher.FetchKlines(ctx, symbol, interval, cursor, endTime, pageLimit)
		if err != nil {
			if len(collected) == 0 {
				return model.Series{}, fmt.Errorf("collect %s %s: %w", symbol, interval, err)
			}
			s.log.Warn("collection degraded to partial result",
				"symbol", symbol, "interval", interval,
				"pages", i, "candles", len(collected), "err", err)
			break
		}
		if len(page) == 0 {
			break
		}
		collected = append(collected, page...)
		cursor = page[len(page)-1].OpenTime + 1

		if i < requestsNeeded-1 {
			select {
			case <-ctx.Done():
				return model.Series{}, ctx.Err()
			case <-time.After(s.pageDelay):
			}
		}
	}

	series := model.Series{Symbol: symbol, Interval: interval, Candles: collected}
	series.Normalize()

	if s.metrics != nil {
		s.metrics.CollectDur.Observe(time.Since(start).Seconds())
	}
	s.log.Info("collected series",
		"symbol", symbol, "interval", interval, "days", days, "candles", series.Len())
	return series, nil
}

func (s *Service) countHit() {
	if s.metrics != nil {
		s.metrics.CacheHits.Inc()
	}
}

func (s *Service) countMiss() {
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}
}
