// Package scheduler runs periodic background jobs, such as warming the
// document cache from the catalogue.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New creates a scheduler. It does not run jobs until Start.
func New(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: create: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Every schedules fn to run every interval and returns the job id. A run that
// is still going when the next one is due pushes that one back. With
// immediate set, the first run happens on Start.
func (s *Scheduler) Every(name string, interval time.Duration, immediate bool, fn func()) (string, error) {
	if interval <= 0 {
		return "", errors.New("scheduler: interval must be positive")
	}
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run(name, fn)),
		opts...,
	)
	if err != nil {
		return "", fmt.Errorf("scheduler: schedule %s: %w", name, err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) run(name string, fn func()) func() {
	return func() {
		start := time.Now()
		fn()
		s.logger.Debug("scheduler: job finished",
			slog.String("job", name),
			slog.Duration("took", time.Since(start)))
	}
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler: starting", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
