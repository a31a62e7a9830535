// Package scheduler drives the periodic engine sweeps: retrying failed
// deliveries and garbage-collecting old sync logs. Both sweeps are
// idempotent, so an overlapping or repeated run converges instead of
// misbehaving.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

// Sweep is one periodic maintenance function.
type Sweep func(ctx context.Context) error

// Config holds the sweep intervals.
type Config struct {
	RetryInterval   time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig matches the original cadence: retries every five
// minutes, cleanup daily.
func DefaultConfig() Config {
	return Config{
		RetryInterval:   5 * time.Minute,
		CleanupInterval: 24 * time.Hour,
	}
}

// Scheduler runs the retry and cleanup sweeps on independent tickers.
type Scheduler struct {
	cfg     Config
	retry   Sweep
	cleanup Sweep
	log     *slog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New creates a scheduler for the given sweeps.
func New(cfg Config, retry, cleanup Sweep, log *slog.Logger) *Scheduler {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultConfig().RetryInterval
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig().CleanupInterval
	}
	return &Scheduler{
		cfg:     cfg,
		retry:   retry,
		cleanup: cleanup,
		log:     log.With(slog.String("component", "scheduler")),
	}
}

// Start launches the sweep loops.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})

	s.wg.Add(2)
	go s.loop(ctx, "retry", s.cfg.RetryInterval, s.retry)
	go s.loop(ctx, "cleanup", s.cfg.CleanupInterval, s.cleanup)
	s.log.Info("scheduler started",
		slog.Duration("retry_interval", s.cfg.RetryInterval),
		slog.Duration("cleanup_interval", s.cfg.CleanupInterval),
	)
}

// Stop halts the loops and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, sweep Sweep) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			if err := sweep(ctx); err != nil {
				s.log.Error("sweep failed", "sweep", name, "error", err)
			}
		}
	}
}
