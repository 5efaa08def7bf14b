// Package scheduler runs the bot's periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/octagonbets/ppv-bot/internal/repository"
)

type Scheduler struct {
	cron   gocron.Scheduler
	logger repository.Logger
}

func New(logger repository.Logger) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{cron: cron, logger: logger}, nil
}

// Every registers fn to run each interval. A run is skipped while the previous one is still going.
// ctx is handed to every run, so cancelling it stops in-flight work.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			if err := fn(ctx); err != nil {
				s.logger.Error(err, name, "job", name, 0)
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}
