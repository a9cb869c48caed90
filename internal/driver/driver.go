// File: internal/driver/driver.go

// Package driver walks an ordered sequence of targets, resolving each one
// through the retry scheduler and acting on what it finds. One session (one
// page capability) serves one target at a time; parallelism, when requested,
// means fully independent sessions, never a shared viewport.
package driver

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/pinpoint-cli/internal/actuator"
	"github.com/xkilldash9x/pinpoint-cli/internal/config"
	"github.com/xkilldash9x/pinpoint-cli/internal/locator"
	"github.com/xkilldash9x/pinpoint-cli/internal/vision"
)

// Session is the slice of a browser session the driver needs. It combines
// the locator's page capability with the actuator's driver plus navigation
// and cleanup.
type Session interface {
	locator.Pager
	actuator.Driver
	Navigate(ctx context.Context, url string) error
	Close()
}

// Summary reports per-run totals. It exists only for this run; nothing is
// persisted.
type Summary struct {
	Total    int
	Clicked  int
	NotFound int
	Failed   int
}

// Driver owns the per-target control flow: navigate, locate (with retries),
// actuate.
type Driver struct {
	cfg        *config.Config
	logger     *zap.Logger
	newSession func(ctx context.Context) (Session, error)
	scheduler  *locator.Scheduler
	limiter    *rate.Limiter
}

// New creates a driver. newSession must produce an isolated session per
// call; the driver closes each one when its target is done.
func New(cfg *config.Config, logger *zap.Logger, newSession func(ctx context.Context) (Session, error)) *Driver {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.Network.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Network.RateLimit), 1)
	}
	return &Driver{
		cfg:        cfg,
		logger:     logger.Named("driver"),
		newSession: newSession,
		scheduler:  locator.NewScheduler(logger),
		limiter:    limiter,
	}
}

// Budget returns the attempt budget derived from configuration.
func (d *Driver) Budget() locator.Budget {
	return locator.Budget{
		MaxAttempts:     d.cfg.Retry.MaxAttempts,
		WaitBeforeFirst: d.cfg.Retry.WaitBeforeFirst,
		WaitBetween:     d.cfg.Retry.WaitBetween,
	}
}

// Run processes targets. With parallel <= 1 they are handled strictly in
// order on a single flow. With parallel > 1, up to that many targets run
// concurrently, each owning its own isolated session.
func (d *Driver) Run(ctx context.Context, targets []Target, parallel int) Summary {
	summary := Summary{Total: len(targets)}
	if len(targets) == 0 {
		return summary
	}

	if parallel <= 1 {
		for _, t := range targets {
			d.tally(&summary, nil, t, d.processTarget(ctx, t))
			if ctx.Err() != nil {
				break
			}
		}
		return summary
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			outcome := d.processTarget(gctx, t)
			d.tally(&summary, &mu, t, outcome)
			// Target failures are tallied, not fatal to the group.
			return nil
		})
	}
	_ = g.Wait()
	return summary
}

type outcome struct {
	clicked bool
	err     error
}

func (d *Driver) tally(s *Summary, mu *sync.Mutex, t Target, o outcome) {
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	switch {
	case o.clicked:
		s.Clicked++
		d.logger.Info("Target clicked", zap.String("url", t.URL))
	case o.err != nil:
		s.Failed++
		d.logger.Error("Target failed", zap.String("url", t.URL), zap.Error(o.err))
	default:
		s.NotFound++
		d.logger.Warn("Target not found after retries", zap.String("url", t.URL))
	}
}

func (d *Driver) processTarget(ctx context.Context, t Target) outcome {
	if err := t.Validate(); err != nil {
		return outcome{err: err}
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return outcome{err: err}
	}

	sess, err := d.newSession(ctx)
	if err != nil {
		return outcome{err: fmt.Errorf("driver: session creation failed: %w", err)}
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, t.URL); err != nil {
		return outcome{err: err}
	}

	clicked, err := d.LocateAndClick(ctx, sess, t, d.Budget())
	return outcome{clicked: clicked, err: err}
}

// LocateAndClick resolves the target under the attempt budget and, when
// found, acts on it. The return values keep every terminal state
// distinguishable: (true, nil) found-and-clicked, (false, nil)
// not-found-after-retries, (false, err) configuration, capability, or
// actuation failure.
func (d *Driver) LocateAndClick(ctx context.Context, sess Session, t Target, budget locator.Budget) (bool, error) {
	loc, err := d.buildLocator(sess, t)
	if err != nil {
		return false, err
	}

	res, err := d.scheduler.Resolve(ctx, loc, budget)
	if err != nil {
		return false, err
	}
	if !res.Found {
		return false, nil
	}

	pointer := actuator.New(d.cfg.Actuator, sess, d.logger)
	switch res.Strategy {
	case locator.StrategyVisual:
		d.logger.Info("Acting on visual match",
			zap.Float64("confidence", res.Confidence),
			zap.Int("x", res.Center.X),
			zap.Int("y", res.Center.Y),
		)
		if err := pointer.MoveAndClick(ctx, res.Center); err != nil {
			return false, fmt.Errorf("driver: click at (%d,%d) failed: %w", res.Center.X, res.Center.Y, err)
		}
	default:
		d.logger.Info("Acting on DOM match",
			zap.String("pattern", res.Pattern),
			zap.Int("rank", res.Rank),
		)
		if err := pointer.ClickElement(ctx, res.Pattern); err != nil {
			return false, fmt.Errorf("driver: click on %q failed: %w", res.Pattern, err)
		}
	}
	return true, nil
}

// LocateVisual runs a single visual locate against the current viewport and
// reports the match without acting on it. No retry policy applies; callers
// wanting retries go through LocateAndClick.
func (d *Driver) LocateVisual(ctx context.Context, sess Session, referencePath string, threshold float64) (locator.Resolution, error) {
	ref, err := vision.LoadReference(referencePath)
	if err != nil {
		return locator.NotFound(), err
	}
	if threshold == 0 {
		threshold = d.cfg.Locator.MatchThreshold
	}
	return locator.NewVisual(sess, ref, threshold, d.logger).Locate(ctx)
}

func (d *Driver) buildLocator(sess Session, t Target) (locator.Locator, error) {
	if t.ReferenceImage != "" {
		ref, err := vision.LoadReference(t.ReferenceImage)
		if err != nil {
			return nil, err
		}
		threshold := t.Threshold
		if threshold == 0 {
			threshold = d.cfg.Locator.MatchThreshold
		}
		return locator.NewVisual(sess, ref, threshold, d.logger), nil
	}
	return locator.NewDOM(sess, t.Candidates(), d.cfg.Locator.ProbeTimeout, d.logger)
}
