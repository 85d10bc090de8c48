// Package scheduler runs full maintenance on a cron schedule.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"admin-rbac/internal/application"
	"admin-rbac/internal/ports"
)

type Runner interface {
	RunFullMaintenance(ctx context.Context) (application.MaintenanceReport, error)
	RunJob(ctx context.Context, job string) (application.JobResult, error)
}

// MaintenanceScheduler never runs two maintenance passes at once, whether
// they come from cron or from RunNow and RunJob. A scheduled tick that finds
// a pass in progress is skipped.
type MaintenanceScheduler struct {
	cron    *cron.Cron
	runner  Runner
	logger  ports.Logger
	running sync.Mutex
}

// New parses schedule with the standard five-field parser, which also
// accepts descriptors such as "@every 1h". An empty schedule registers no
// tick; RunNow and RunJob still work.
func New(schedule string, runner Runner, logger ports.Logger) (*MaintenanceScheduler, error) {
	s := &MaintenanceScheduler{
		cron:   cron.New(),
		runner: runner,
		logger: logger,
	}
	if schedule == "" {
		return s, nil
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MaintenanceScheduler) tick() {
	ctx := context.Background()
	if !s.running.TryLock() {
		s.logger.Warn(ctx, "scheduled maintenance skipped; previous run still active")
		return
	}
	defer s.running.Unlock()
	if _, err := s.runner.RunFullMaintenance(ctx); err != nil {
		s.logger.Error(ctx, "scheduled maintenance failed", "error", err)
	}
}

// RunNow runs maintenance immediately, waiting for any pass in progress.
func (s *MaintenanceScheduler) RunNow(ctx context.Context) (application.MaintenanceReport, error) {
	s.running.Lock()
	defer s.running.Unlock()
	return s.runner.RunFullMaintenance(ctx)
}

// RunJob runs a single named job, waiting for any pass in progress.
func (s *MaintenanceScheduler) RunJob(ctx context.Context, job string) (application.JobResult, error) {
	s.running.Lock()
	defer s.running.Unlock()
	return s.runner.RunJob(ctx, job)
}

func (s *MaintenanceScheduler) Start() {
	s.cron.Start()
}

// Stop prevents further ticks and waits for a running pass or ctx.
func (s *MaintenanceScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
