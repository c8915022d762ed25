// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"finsphere/internal/log"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages background jobs. A run that is still in progress when
// its next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    *log.Logger
}

func New(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:    ctx,
		cancel: cancel,
		log:    logger.WithComponent(log.ComponentScheduler),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop stops scheduling, cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.log.Info("Scheduler stopped")
}

// AddJob registers job on a standard five-field cron spec or a descriptor
// such as "@hourly" or "@every 30m".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", job.Name(), err)
	}

	s.log.Info("Job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.InfoContext(ctx, "Running job immediately", "job", job.Name())
	return job.Run(ctx)
}

func (s *Scheduler) run(job Job) {
	start := time.Now()
	s.log.DebugContext(s.ctx, "Running job", "job", job.Name())
	if err := job.Run(s.ctx); err != nil {
		s.log.ErrorContext(s.ctx, "Job failed", "job", job.Name(), log.FieldError, err)
		return
	}
	s.log.DebugContext(s.ctx, "Job completed", "job", job.Name(), log.FieldDuration, time.Since(start).Milliseconds())
}
