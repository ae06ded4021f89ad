package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler requests reloads on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	reloader *Reloader
	logger   *slog.Logger
}

// NewScheduler parses schedule (standard five-field cron or a descriptor such as
// "@hourly") and registers the reload job.
func NewScheduler(schedule string, reloader *Reloader, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		reloader: reloader,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.fire); err != nil {
		return nil, fmt.Errorf("invalid RELOAD_SCHEDULE %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reload scheduler started", "next_run", s.cron.Entries()[0].Next)
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("reload scheduler stopped")
}

func (s *Scheduler) fire() {
	if !s.reloader.Request(TriggerSchedule) {
		s.logger.Warn("scheduled reload throttled")
	}
}
