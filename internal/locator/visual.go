// File: internal/locator/visual.go
package locator

import (
	"context"
	"image"

	"github.com/xkilldash9x/pinpoint-cli/internal/vision"
	"go.uber.org/zap"
)

// Visual locates a target by matching a stored reference image against a
// fresh screenshot of the viewport.
type Visual struct {
	pager     Pager
	ref       image.Image
	threshold float64
	logger    *zap.Logger
}

// NewVisual builds a visual locator for one target. The reference image must
// already be decoded; see vision.LoadReference.
func NewVisual(pager Pager, ref image.Image, threshold float64, logger *zap.Logger) *Visual {
	if threshold <= 0 {
		threshold = vision.DefaultThreshold
	}
	return &Visual{
		pager:     pager,
		ref:       ref,
		threshold: threshold,
		logger:    logger.Named("visual"),
	}
}

// Locate captures one frame and searches it for the reference. The frame is
// never cached: every attempt sees the current state of the page.
func (v *Visual) Locate(ctx context.Context) (Resolution, error) {
	frame, err := v.pager.CaptureFrame(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return NotFound(), ctx.Err()
		}
		// The page may recover (e.g. navigation settling); let the scheduler
		// decide whether to spend another attempt.
		return NotFound(), &TransientError{Op: "capture frame", Err: err}
	}

	res, ok := vision.Match(frame, v.ref, v.threshold)
	if !ok {
		v.logger.Debug("Reference not on screen", zap.Float64("threshold", v.threshold))
		return NotFound(), nil
	}

	v.logger.Debug("Reference matched",
		zap.Float64("confidence", res.Confidence),
		zap.Int("x", res.Center.X),
		zap.Int("y", res.Center.Y),
	)
	return Resolution{
		Found:      true,
		Strategy:   StrategyVisual,
		Confidence: res.Confidence,
		Center:     res.Center,
		Rank:       -1,
	}, nil
}
