package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires a Service.RunCycle on a fixed cron cadence, matching the
// teacher's cmd/worker startCronWorker pattern: timezone loaded via
// time.LoadLocation with a UTC fallback, and a re-entrancy guard so an
// overrunning cycle causes the next tick to be skipped rather than stacked.
type Scheduler struct {
	svc     *Service
	cron    *cron.Cron
	running atomic.Bool
}

// NewScheduler constructs a Scheduler bound to svc. cfg.CronSchedule and
// cfg.Timezone are validated by internal/config before reaching here;
// Start still falls back to UTC defensively if the location fails to load.
func NewScheduler(svc *Service, cfg Config) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("invalid scheduler timezone, falling back to UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	s := &Scheduler{svc: svc, cron: c}

	_, err = c.AddFunc(cfg.CronSchedule, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", cfg.CronSchedule, err)
	}
	return s, nil
}

// tick runs one cycle, skipping entirely if the previous cycle is still in
// flight (the scheduler's re-entrancy guard).
func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("ingest cycle skipped: previous cycle still running")
		return
	}
	defer s.running.Store(false)

	ctx := context.Background()
	if _, err := s.svc.RunCycle(ctx); err != nil {
		slog.Error("ingest cycle failed", slog.Any("error", err))
	}
}

// Start begins the cron schedule. Non-blocking; call Stop to halt ticking.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron schedule and waits for any in-flight cycle's job
// invocation to return (not for RunCycle's internal work to drain — callers
// wanting a full drain should also await the in-flight cycle via Running).
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Running reports whether a cycle is currently executing, used by graceful
// shutdown to wait out an in-flight cycle before closing the store.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}
