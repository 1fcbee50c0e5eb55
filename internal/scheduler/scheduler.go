// Package scheduler triggers analysis cycles on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockSentinel/internal/batch"
)

// CycleRunner runs one analysis cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*batch.Report, error)
}

// Scheduler manages the cycle cron task.
type Scheduler struct {
	Cron   *cron.Cron
	runner CycleRunner
	ctx    context.Context
	log    zerolog.Logger
}

// NewScheduler creates a Scheduler with second-resolution cron specs. Cycles
// run with ctx, so cancelling it aborts an in-flight cycle.
func NewScheduler(ctx context.Context, runner CycleRunner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner: runner,
		ctx:    ctx,
		log:    log,
	}
}

// Register adds the cycle task under a cron expression, e.g. "0 0 10-17 * * 1-5".
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.cycleTask); err != nil {
		return fmt.Errorf("register cycle task %q: %w", expr, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running cycle to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the cycle task immediately (manual trigger / run_on_start).
func (s *Scheduler) RunNow() {
	s.cycleTask()
}

func (s *Scheduler) cycleTask() {
	report, err := s.runner.RunCycle(s.ctx)
	switch {
	case err == nil:
		s.log.Info().Str("cycle_id", report.CycleID).Int("notified", report.Notified).Msg("scheduled cycle done")
	case errors.Is(err, context.Canceled):
		s.log.Warn().Msg("scheduled cycle cancelled")
	default:
		s.log.Error().Err(err).Msg("scheduled cycle failed")
	}
}
