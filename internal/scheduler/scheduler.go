// Package scheduler arms the in-process daily trigger used by serve mode.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

// Scheduler fires a task once per day at a fixed wall-clock time. Runs are
// strictly sequential: the next slot is armed only after the task returns,
// so overlapping runs of the same schedule cannot happen.
type Scheduler struct {
	clock  gazette.Clock
	hour   int
	minute int
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New builds a Scheduler firing daily at dailyAt (hh:mm) on clock's
// calendar.
func New(clock gazette.Clock, dailyAt string, logger *zap.Logger) (*Scheduler, error) {
	at, err := time.Parse("15:04", dailyAt)
	if err != nil {
		return nil, &gazette.ConfigurationError{Reason: fmt.Sprintf("daily_at %q must be hh:mm", dailyAt)}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clock:  clock,
		hour:   at.Hour(),
		minute: at.Minute(),
		logger: logger,
		sleep:  sleepContext,
	}, nil
}

// NextRun returns the first scheduled instant strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks, invoking task at each scheduled slot until ctx finishes.
func (s *Scheduler) Run(ctx context.Context, task func(context.Context)) error {
	for {
		now := s.clock.Now()
		next := s.NextRun(now)
		s.logger.Info("next run scheduled", zap.Time("at", next))

		if err := s.sleep(ctx, next.Sub(now)); err != nil {
			return err
		}
		task(ctx)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
