package service

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/octagonbets/ppv-bot/internal/repository"
)

// Report summarises one broadcast run.
type Report struct {
	Total      int
	Successful int
	Failed     int
}

// DeliverFunc sends the prepared content to a single chat.
type DeliverFunc func(ctx context.Context, userID int64) error

type BroadcastService interface {
	// Broadcast delivers to every registered user. The admin who started the run already has the
	// content and is counted as successful without a second delivery.
	Broadcast(ctx context.Context, adminID int64, deliver DeliverFunc) (Report, error)
}

type BroadcastOptions struct {
	Workers int
	// Rate is the sustained number of deliveries per second.
	Rate float64
}

type broadcastService struct {
	users   UsersService
	logger  repository.Logger
	workers int
	rate    rate.Limit
}

func NewBroadcastService(users UsersService, logger repository.Logger, opts BroadcastOptions) BroadcastService {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	return &broadcastService{
		users:   users,
		logger:  logger,
		workers: workers,
		rate:    limit,
	}
}

func (s *broadcastService) Broadcast(ctx context.Context, adminID int64, deliver DeliverFunc) (Report, error) {
	recipients, err := s.users.List(ctx, false)
	if err != nil {
		return Report{}, fmt.Errorf("list recipients: %w", err)
	}

	runID := uuid.NewString()
	s.logger.Info("broadcast_start", "broadcast", runID, adminID, strconv.Itoa(len(recipients)))

	limiter := rate.NewLimiter(s.rate, 1)
	var successful, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, user := range recipients {
		if user.ID == adminID {
			successful.Add(1)
			continue
		}
		userID := user.ID
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				// Cancelled run: remaining recipients count as failed.
				failed.Add(1)
				return nil
			}
			if err := deliver(gctx, userID); err != nil {
				failed.Add(1)
				s.logger.Error(err, "broadcast_deliver", "broadcast", runID, userID)
				return nil
			}
			successful.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Total:      len(recipients),
		Successful: int(successful.Load()),
		Failed:     int(failed.Load()),
	}
	s.logger.Info("broadcast_done", "broadcast", runID, adminID,
		fmt.Sprintf("total=%d ok=%d failed=%d", report.Total, report.Successful, report.Failed))
	return report, ctx.Err()
}
