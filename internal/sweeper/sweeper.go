// Package sweeper reaps pending orders that received neither a success nor a
// fail/cancel signal (buyer closed the tab mid-payment). Without it these
// records accumulate forever.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type PendingOrderReaper interface {
	DeleteStalePendingOrders(ctx context.Context, olderThan time.Time) (int64, error)
}

type Sweeper struct {
	repo   PendingOrderReaper
	ttl    time.Duration
	tick   time.Duration
	logger *zap.Logger
}

func New(repo PendingOrderReaper, ttl time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:   repo,
		ttl:    ttl,
		tick:   10 * time.Minute,
		logger: logger,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl)
	reaped, err := s.repo.DeleteStalePendingOrders(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to sweep stale pending orders", zap.Error(err))
		return
	}
	if reaped > 0 {
		s.logger.Info("reaped stale pending orders",
			zap.Int64("count", reaped),
			zap.Time("cutoff", cutoff))
	}
}
