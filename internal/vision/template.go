// File: internal/vision/template.go
package vision

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Result describes the best template match found within a frame.
type Result struct {
	// Confidence is the match score, clamped to [0,1].
	Confidence float64
	// Center is the center of the matched region, in frame coordinates.
	Center image.Point
}

// DefaultThreshold is the minimum confidence for a match to count as found.
const DefaultThreshold = 0.8

// varianceEpsilon is the per-pixel variance below which a region is treated
// as uniform and the correlation coefficient is undefined.
const varianceEpsilon = 1e-3

// Match slides the reference template over the frame and returns the offset
// with the highest normalized correlation. Both images are reduced to a
// single intensity channel first, which cuts the comparison cost and removes
// color-lighting noise.
//
// The second return value is false when no region reaches the threshold.
// That is a legitimate "not currently on screen" outcome, not an error. A
// reference larger than the frame is always absent.
func Match(frame, ref image.Image, threshold float64) (Result, bool) {
	f := newPlane(frame)
	t := newPlane(ref)

	if t.w > f.w || t.h > f.h || t.w == 0 || t.h == 0 {
		return Result{}, false
	}

	tMean, tVar := t.stats(0, 0, t.w, t.h)
	n := float64(t.w * t.h)

	best := math.Inf(-1)
	var bestX, bestY int

	for y := 0; y+t.h <= f.h; y++ {
		for x := 0; x+t.w <= f.w; x++ {
			wMean, wVar := f.stats(x, y, t.w, t.h)
			score := correlate(f, t, x, y, n, tMean, tVar, wMean, wVar)
			if score > best {
				best = score
				bestX, bestY = x, y
			}
		}
	}

	if best < threshold {
		return Result{}, false
	}
	return Result{
		Confidence: clamp01(best),
		// Integer division matches the coordinate convention of the stored
		// reference captures.
		Center: image.Point{X: bestX + t.w/2, Y: bestY + t.h/2},
	}, true
}

// correlate scores one window placement. When both regions carry real
// variance this is the zero-mean normalized correlation coefficient. When
// either side is uniform the coefficient is undefined, so the score degrades
// to an intensity comparison: identical uniform patches still score 1.0 and
// dissimilar ones fall off with mean distance and spread. Degenerate inputs
// therefore never produce NaN or a crash.
func correlate(f, t *plane, x, y int, n, tMean, tVar, wMean, wVar float64) float64 {
	if tVar > varianceEpsilon && wVar > varianceEpsilon {
		var cross float64
		for ty := 0; ty < t.h; ty++ {
			fRow := (y+ty)*f.w + x
			tRow := ty * t.w
			for tx := 0; tx < t.w; tx++ {
				cross += f.pix[fRow+tx] * t.pix[tRow+tx]
			}
		}
		ncc := (cross - n*wMean*tMean) / (n * math.Sqrt(tVar) * math.Sqrt(wVar))
		// Anti-correlated regions are no better than no correlation for our
		// purposes.
		return math.Max(0, ncc)
	}

	diff := (math.Abs(wMean-tMean) + math.Sqrt(wVar) + math.Sqrt(tVar)) / 255.0
	return clamp01(1.0 - diff)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// plane is a single-channel float64 view of an image, with summed-area tables
// for O(1) window mean/variance.
type plane struct {
	w, h int
	pix  []float64
	// sat and satSq are (w+1)x(h+1) summed-area tables of pix and pix^2.
	sat, satSq []float64
}

func newPlane(img image.Image) *plane {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	p := &plane{
		w:     w,
		h:     h,
		pix:   make([]float64, w*h),
		sat:   make([]float64, (w+1)*(h+1)),
		satSq: make([]float64, (w+1)*(h+1)),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// All three channels are equal after Grayscale; read the red one.
			v := float64(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)])
			p.pix[y*w+x] = v

			i := (y+1)*(w+1) + (x + 1)
			p.sat[i] = v + p.sat[i-1] + p.sat[i-(w+1)] - p.sat[i-(w+1)-1]
			p.satSq[i] = v*v + p.satSq[i-1] + p.satSq[i-(w+1)] - p.satSq[i-(w+1)-1]
		}
	}
	return p
}

// stats returns the mean and variance of the (x,y,ww,wh) window.
func (p *plane) stats(x, y, ww, wh int) (mean, variance float64) {
	n := float64(ww * wh)
	sum := p.window(p.sat, x, y, ww, wh)
	sumSq := p.window(p.satSq, x, y, ww, wh)
	mean = sum / n
	variance = sumSq/n - mean*mean
	if variance < 0 {
		// Guard against floating point cancellation on near-uniform windows.
		variance = 0
	}
	return mean, variance
}

func (p *plane) window(table []float64, x, y, ww, wh int) float64 {
	w1 := p.w + 1
	return table[(y+wh)*w1+(x+ww)] -
		table[y*w1+(x+ww)] -
		table[(y+wh)*w1+x] +
		table[y*w1+x]
}
