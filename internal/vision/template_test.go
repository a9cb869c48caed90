// File: internal/vision/template_test.go
package vision_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pinpoint-cli/internal/vision"
)

// texturedFrame builds a deterministic non-uniform image so the correlation
// path (not the uniform fallback) is exercised.
func texturedFrame(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*7 + y*13 + x*y) % 256)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestMatch_SolidSquareOnPlainBackground(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red := color.NRGBA{R: 255, G: 0, B: 0, A: 255}

	frame := imaging.New(100, 100, white)
	square := imaging.New(10, 10, red)
	frame = imaging.Paste(frame, square, image.Pt(40, 40))

	res, found := vision.Match(frame, square, vision.DefaultThreshold)
	require.True(t, found, "solid square should be located on a plain background")
	assert.Equal(t, image.Pt(45, 45), res.Center)
	assert.InDelta(t, 1.0, res.Confidence, 0.01)
}

func TestMatch_ExactPatchOfTexturedFrame(t *testing.T) {
	frame := texturedFrame(120, 90)
	patch := imaging.Crop(frame, image.Rect(20, 30, 52, 62))

	res, found := vision.Match(frame, patch, vision.DefaultThreshold)
	require.True(t, found)
	// The patch is 32x32 and was cut at (20,30); its center lands at +16.
	assert.Equal(t, image.Pt(36, 46), res.Center)
	assert.InDelta(t, 1.0, res.Confidence, 0.001)
}

func TestMatch_ThresholdIsStrict(t *testing.T) {
	frame := texturedFrame(80, 80)
	patch := imaging.Crop(frame, image.Rect(10, 10, 42, 42))

	// Perturb a corner of the template so the best score drops below 1.
	perturbed := imaging.Clone(patch)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			perturbed.SetNRGBA(x, y, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
		}
	}

	res, found := vision.Match(frame, perturbed, 0.1)
	require.True(t, found)
	require.Less(t, res.Confidence, 1.0)
	require.Greater(t, res.Confidence, 0.0)

	// The same frame and template flip to absent once the threshold passes
	// the achieved score.
	_, found = vision.Match(frame, perturbed, res.Confidence+0.01)
	assert.False(t, found)

	_, found = vision.Match(frame, perturbed, res.Confidence-0.01)
	assert.True(t, found)
}

func TestMatch_AbsentTemplate(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	frame := imaging.New(60, 60, white)

	// High-contrast checkerboard that appears nowhere in the blank frame.
	tmpl := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			tmpl.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	res, found := vision.Match(frame, tmpl, vision.DefaultThreshold)
	assert.False(t, found)
	assert.Equal(t, vision.Result{}, res)
}

func TestMatch_ReferenceLargerThanFrame(t *testing.T) {
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	frame := imaging.New(10, 10, gray)
	ref := imaging.New(20, 20, gray)

	_, found := vision.Match(frame, ref, 0.0)
	assert.False(t, found, "a reference that cannot fit inside the frame is never present")
}

func TestMatch_UniformInputs(t *testing.T) {
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.NRGBA{R: 0, G: 0, B: 0, A: 255}

	t.Run("identical uniform patches score as a full match", func(t *testing.T) {
		frame := imaging.New(30, 30, gray)
		ref := imaging.New(10, 10, gray)

		res, found := vision.Match(frame, ref, vision.DefaultThreshold)
		require.True(t, found)
		assert.InDelta(t, 1.0, res.Confidence, 0.001)
	})

	t.Run("opposite uniform patches are absent", func(t *testing.T) {
		frame := imaging.New(30, 30, white)
		ref := imaging.New(10, 10, black)

		_, found := vision.Match(frame, ref, vision.DefaultThreshold)
		assert.False(t, found)
	})

	t.Run("zero-sized reference is absent, not a crash", func(t *testing.T) {
		frame := imaging.New(30, 30, gray)
		ref := image.NewNRGBA(image.Rect(0, 0, 0, 0))

		_, found := vision.Match(frame, ref, 0.0)
		assert.False(t, found)
	})
}

func TestMatch_ConfidenceStaysInRange(t *testing.T) {
	frame := texturedFrame(50, 50)
	for _, size := range []int{1, 5, 25, 50} {
		patch := imaging.Crop(frame, image.Rect(0, 0, size, size))
		res, found := vision.Match(frame, patch, 0.0)
		require.True(t, found, "size %d", size)
		assert.GreaterOrEqual(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 1.0)
	}
}
