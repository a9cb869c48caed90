// File: internal/browser/manager.go

// Package browser provides the page capability the engine consumes: frame
// capture, bounded visibility queries, pointer events, and clicks, on top of
// a managed headless Chrome via chromedp.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pinpoint-cli/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the Chrome exec allocator and creates isolated sessions.
// Each session wraps its own browser context, so one session can only
// represent one active navigation/viewport state at a time.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// NewManager prepares the allocator. The browser process itself is launched
// lazily by the first session.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Manager {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		// A fixed viewport keeps stored reference images comparable between
		// capture time and match time.
		chromedp.WindowSize(cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight),
		chromedp.UserAgent(cfg.Browser.UserAgent),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	for _, arg := range cfg.Browser.Args {
		if name, value, found := strings.Cut(arg, "="); found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(arg, true))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	m := &Manager{
		logger:      logger.Named("browser_manager"),
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sessions:    make(map[string]*Session),
	}
	m.logger.Info("Browser manager created (launch deferred to first session).")
	return m
}

// NewSession creates an isolated browser tab bound to the manager's
// allocator.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := m.allocCtx.Err(); err != nil {
		return nil, fmt.Errorf("browser manager is shut down: %w", err)
	}

	session, err := newSession(m.allocCtx, m.cfg, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.wg.Add(1)
	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Info("New session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// Shutdown closes all sessions and tears down the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	m.mu.RLock()
	toClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		toClose = append(toClose, s)
	}
	m.mu.RUnlock()

	for _, s := range toClose {
		s.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions closed gracefully.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close; proceeding with forceful shutdown.",
			zap.Error(ctx.Err()))
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Grace period elapsed waiting for sessions to close.")
	}

	m.allocCancel()
	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
