// Package scheduler keeps the series cache warm: a cron job periodically
// force-refreshes the tracked (symbol, interval, days) tuples so radar
// passes hit recent data instead of paying collection latency.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/eMatthiola/CryptoSage/internal/model"
)

// Refresher is the cache surface the scheduler drives.
type Refresher interface {
	GetOrFetch(ctx context.Context, symbol, interval string, days int, forceRefresh bool) (model.Series, error)
}

// Target is one series kept warm by the refresh job.
type Target struct {
	Symbol   string
	Interval string
	Days     int
}

// Scheduler runs the periodic cache refresh.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	targets   []Target
	log       *slog.Logger
	ctx       context.Context
}

func New(ctx context.Context, refresher Refresher, targets []Target, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		targets:   targets,
		log:       log,
		ctx:       ctx,
	}
}

// Register adds the refresh job under the given cron spec
// (e.g. "*/10 * * * *").
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refreshAll); err != nil {
		return fmt.Errorf("register refresh job: %w", err)
	}
	return nil
}

// Start launches the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "targets", len(s.targets))
}

// Stop stops the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow refreshes all targets immediately (startup warm-up).
func (s *Scheduler) RunNow() {
	s.refreshAll()
}

func (s *Scheduler) refreshAll() {
	for _, t := range s.targets {
		if s.ctx.Err() != nil {
			return
		}
		if _, err := s.refresher.GetOrFetch(s.ctx, t.Symbol, t.Interval, t.Days, true); err != nil {
			s.log.Warn("cache refresh failed",
				"symbol", t.Symbol, "interval", t.Interval, "days", t.Days, "err", err)
			continue
		}
		s.log.Debug("cache refreshed", "symbol", t.Symbol, "interval", t.Interval, "days", t.Days)
	}
}
