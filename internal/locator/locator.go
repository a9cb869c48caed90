// File: internal/locator/locator.go

// Package locator decides whether a target element is present on a page,
// where it is, and when to give up. Two strategies share one shape: a pixel
// template match over a screenshot, and a ranked cascade of DOM selector
// probes. The retry scheduler wraps either one.
package locator

import (
	"context"
	"image"
	"time"
)

// Strategy names recorded on a Resolution for diagnostics.
const (
	StrategyVisual = "visual"
	StrategyDOM    = "dom"
)

// Pager is the page capability consumed by the locators. Both operations are
// opaque from the engine's perspective; internal/browser provides the real
// implementation and tests provide stubs.
type Pager interface {
	// CaptureFrame returns a fresh screenshot of the current viewport.
	// Failures are transient (navigation mid-flight, renderer crash).
	CaptureFrame(ctx context.Context) (image.Image, error)

	// QueryVisible reports whether a visible element matches the selector
	// within the probe window.
	QueryVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error)
}

// Locator is the common shape of both strategies, which lets the scheduler
// be written once and parameterized over either.
type Locator interface {
	Locate(ctx context.Context) (Resolution, error)
}

// Resolution is the outcome of a single locate attempt. It is derived
// strictly from one frame capture or one DOM query pass and is never
// persisted or accumulated across attempts.
type Resolution struct {
	Found    bool
	Strategy string

	// Confidence and Center are populated by the visual strategy.
	Confidence float64
	Center     image.Point

	// Pattern and Rank identify which selector candidate matched for the
	// DOM strategy. Rank is -1 when not applicable.
	Pattern string
	Rank    int
}

// NotFound is the canonical negative Resolution. It is data, not an error.
func NotFound() Resolution {
	return Resolution{Rank: -1}
}

// Candidate is one entry in a DOM selector cascade. Lower ranks are tried
// first: stable attribute-based selectors belong ahead of broad text
// fallbacks, which risk matching the wrong element when several qualify.
type Candidate struct {
	Pattern string
	Rank    int
}
