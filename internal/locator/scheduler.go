// File: internal/locator/scheduler.go
package locator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Budget bounds how hard the scheduler tries before accepting NotFound.
type Budget struct {
	MaxAttempts     int
	WaitBeforeFirst time.Duration
	WaitBetween     time.Duration
}

// DefaultBudget returns the stock policy: one retry, with a longer pause
// before it than before the first attempt. A miss after one attempt usually
// means the page is still painting, not that the element is absent.
func DefaultBudget() Budget {
	return Budget{
		MaxAttempts:     2,
		WaitBeforeFirst: 500 * time.Millisecond,
		WaitBetween:     time.Second,
	}
}

// Scheduler wraps a Locator with a bounded wait-then-retry policy that
// absorbs render and animation lag. It is strategy-agnostic.
type Scheduler struct {
	logger *zap.Logger

	// sleep is swappable in tests so retry policies can be verified without
	// wall-clock delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewScheduler creates a retry scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger.Named("scheduler"),
		sleep:  contextSleep,
	}
}

// Resolve runs the locator under the given budget.
//
// The pre-attempt wait is a fixed delay, not polling: it exists to let
// deferred rendering (canvas paints, animations) settle. Attempts never
// exceed the budget and exhaustion surfaces as NotFound data. Cancellation
// between attempts yields NotFound with the context's error, never a
// partial Resolution.
func (s *Scheduler) Resolve(ctx context.Context, loc Locator, b Budget) (Resolution, error) {
	if b.MaxAttempts < 1 {
		return NotFound(), fmt.Errorf("locator: attempt budget must allow at least one attempt, got %d", b.MaxAttempts)
	}

	if err := s.sleep(ctx, b.WaitBeforeFirst); err != nil {
		return NotFound(), err
	}

	var lastTransient error
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, b.WaitBetween); err != nil {
				return NotFound(), err
			}
		}

		res, err := loc.Locate(ctx)
		switch {
		case err == nil && res.Found:
			s.logger.Debug("Target resolved",
				zap.String("strategy", res.Strategy),
				zap.Int("attempt", attempt),
			)
			return res, nil
		case err == nil:
			lastTransient = nil
			s.logger.Debug("Attempt found nothing", zap.Int("attempt", attempt))
		case IsTransient(err):
			// The attempt is spent either way; remember the cause in case the
			// budget runs out on it.
			lastTransient = err
			s.logger.Debug("Attempt failed transiently", zap.Int("attempt", attempt), zap.Error(err))
		default:
			// Configuration and context errors are not retried.
			return NotFound(), err
		}
	}

	if lastTransient != nil {
		return NotFound(), lastTransient
	}
	s.logger.Debug("Attempt budget exhausted", zap.Int("max_attempts", b.MaxAttempts))
	return NotFound(), nil
}

// contextSleep pauses for d, aborting early if the context is done. A
// non-positive duration still observes cancellation.
func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
