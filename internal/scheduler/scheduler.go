package scheduler

import (
	"fmt"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the daily scan on a cron schedule in daemon mode.
type Scheduler struct {
	cron   *cron.Cron
	logger log.Logger
}

// New creates a scheduler. Cron expressions use the six-field form with
// a leading seconds column.
func New(logger log.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// Register schedules the daily run.
func (s *Scheduler) Register(spec string, run func()) error {
	if _, err := s.cron.AddFunc(spec, func() {
		s.logger.Info().Str("cron", spec).Msg("scheduled scan starting")
		run()
	}); err != nil {
		return fmt.Errorf("register daily scan: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("scheduler stopped")
}
