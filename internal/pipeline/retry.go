package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

// Retry defaults: the edition often appears later in the day, so attempts
// are spaced an hour apart.
const (
	DefaultAttempts = 4
	DefaultInterval = time.Hour
)

// Runner wraps the whole pipeline in a bounded, fixed-interval retry loop.
// Only errors marked retryable consume budget; everything else surfaces on
// the first attempt. Attempts are strictly sequential, never overlapping.
type Runner struct {
	pipeline *Pipeline
	attempts int
	interval time.Duration
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRunner builds a Runner around p. Non-positive attempts or interval
// fall back to the defaults.
func NewRunner(p *Pipeline, attempts int, interval time.Duration, logger *zap.Logger) *Runner {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		pipeline: p,
		attempts: attempts,
		interval: interval,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Run re-invokes the pipeline until it finishes, fails terminally, or the
// attempt budget runs out. Notifications are only produced by a successful
// attempt, so retries can never duplicate them.
func (r *Runner) Run(ctx context.Context) (gazette.RunReport, error) {
	var (
		report  gazette.RunReport
		lastErr error
	)
	for attempt := 1; attempt <= r.attempts; attempt++ {
		var err error
		report, err = r.pipeline.Run(ctx)
		report.Attempts = attempt
		if err == nil {
			return report, nil
		}
		if !gazette.IsRetryable(err) {
			return report, err
		}
		lastErr = err

		if attempt == r.attempts {
			break
		}
		r.logger.Warn("attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.attempts),
			zap.Duration("interval", r.interval),
			zap.Error(err),
		)
		if sleepErr := r.sleep(ctx, r.interval); sleepErr != nil {
			return report, fmt.Errorf("retry wait aborted: %w", sleepErr)
		}
	}
	return report, fmt.Errorf("retry budget exhausted after %d attempts: %w", r.attempts, lastErr)
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
