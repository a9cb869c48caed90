// File: internal/browser/session.go
package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pinpoint-cli/internal/actuator"
	"github.com/xkilldash9x/pinpoint-cli/internal/config"
)

// Session is one isolated browser tab. It implements both the locator's
// page capability (CaptureFrame, QueryVisible) and the actuator's driver
// (DispatchMouseEvent, ClickSelector, Sleep).
type Session struct {
	id     string
	cfg    *config.Config
	logger *zap.Logger

	// tabCtx is the chromedp context all actions run on. Per-call contexts
	// derive from it so caller cancellation and per-call timeouts both apply.
	tabCtx    context.Context
	tabCancel context.CancelFunc

	closeOnce sync.Once
	onClose   func()
}

func newSession(allocCtx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	id := uuid.New().String()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		id:        id,
		cfg:       cfg,
		logger:    logger.Named("session").With(zap.String("session_id", id)),
		tabCtx:    tabCtx,
		tabCancel: tabCancel,
	}

	// Run an empty task list to force the browser/tab to actually start, so
	// later failures are attributable to page state rather than launch.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to start browser tab: %w", err)
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Navigate loads the URL and waits for the document to be ready, bounded by
// the configured navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.callContext(ctx, s.cfg.Network.NavigationTimeout)
	defer cancel()

	s.logger.Info("Navigating", zap.String("url", url))
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// CaptureFrame takes a fresh screenshot of the current viewport and decodes
// it into a pixel grid. Failures here are transient from the engine's
// perspective: the page may be mid-navigation or the renderer may recover.
func (s *Session) CaptureFrame(ctx context.Context) (image.Image, error) {
	runCtx, cancel := s.callContext(ctx, s.cfg.Network.NavigationTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}

	frame, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode captured frame: %w", err)
	}
	return frame, nil
}

// QueryVisible reports whether a visible element matches the selector within
// the probe window. A probe that times out is a miss, not an error.
func (s *Session) QueryVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	runCtx, cancel := s.callContext(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err == nil {
		return true, nil
	}
	// Only the probe's own deadline converts to a miss; caller or session
	// cancellation still surfaces as an error.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && s.tabCtx.Err() == nil {
		return false, nil
	}
	return false, fmt.Errorf("visibility probe for %q failed: %w", selector, err)
}

// DispatchMouseEvent forwards one raw pointer event to the page.
func (s *Session) DispatchMouseEvent(ctx context.Context, ev actuator.MouseEvent) error {
	runCtx, cancel := s.callContext(ctx, 0)
	defer cancel()

	return chromedp.Run(runCtx, chromedp.ActionFunc(func(actionCtx context.Context) error {
		params := input.DispatchMouseEvent(mouseType(ev.Type), ev.X, ev.Y)
		if ev.Button != actuator.ButtonNone {
			params = params.WithButton(input.MouseButton(ev.Button))
		}
		if ev.ClickCount > 0 {
			params = params.WithClickCount(int64(ev.ClickCount))
		}
		if ev.Buttons != 0 {
			params = params.WithButtons(ev.Buttons)
		}
		return params.Do(actionCtx)
	}))
}

// ClickSelector clicks the first visible element matching the selector,
// bounded by the locator probe timeout.
func (s *Session) ClickSelector(ctx context.Context, selector string) error {
	runCtx, cancel := s.callContext(ctx, s.cfg.Locator.ProbeTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// Sleep pauses without blocking cancellation.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.tabCtx.Done():
		return s.tabCtx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases the tab. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing session.")
		s.tabCancel()
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// callContext derives a context from the tab that also honors the caller's
// cancellation and an optional timeout.
func (s *Session) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx := s.tabCtx
	var cancels []context.CancelFunc

	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		cancels = append(cancels, cancel)
	}

	// Propagate caller cancellation into the chromedp context chain.
	runCtx, cancel := context.WithCancel(runCtx)
	cancels = append(cancels, cancel)
	stop := context.AfterFunc(ctx, cancel)

	return runCtx, func() {
		stop()
		for _, c := range cancels {
			c()
		}
	}
}

func mouseType(t actuator.MouseEventType) input.MouseType {
	switch t {
	case actuator.MousePress:
		return input.MousePressed
	case actuator.MouseRelease:
		return input.MouseReleased
	default:
		return input.MouseMoved
	}
}
