// File: internal/actuator/pointer.go

// Package actuator turns resolved coordinates or element handles into pointer
// interactions. Coordinate targets always receive a simulated human movement
// before the click; the move-before-click ordering is a behavioral contract,
// not an optimization.
package actuator

import (
	"context"
	"image"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/xkilldash9x/pinpoint-cli/internal/config"
	"go.uber.org/zap"
)

// Pointer simulates a human hand on a virtual mouse: Fitts's-law timing, a
// bezier path, low-frequency Perlin drift and high-frequency Gaussian tremor.
type Pointer struct {
	cfg    config.ActuatorConfig
	driver Driver
	logger *zap.Logger

	mu         sync.Mutex
	currentPos Vector2D
	rng        *rand.Rand

	noiseX *perlin.Perlin
	noiseY *perlin.Perlin
}

// New creates a pointer seeded from the wall clock.
func New(cfg config.ActuatorConfig, driver Driver, logger *zap.Logger) *Pointer {
	seed := time.Now().UnixNano()
	return NewWithRand(cfg, driver, logger, rand.New(rand.NewSource(seed)), seed)
}

// NewWithRand creates a pointer with an injected RNG and noise seed, which
// keeps tests deterministic.
func NewWithRand(cfg config.ActuatorConfig, driver Driver, logger *zap.Logger, rng *rand.Rand, seed int64) *Pointer {
	// Standard Perlin parameters.
	alpha, beta, n := 2.0, 2.0, int32(3)
	return &Pointer{
		cfg:    cfg,
		driver: driver,
		logger: logger.Named("actuator"),
		rng:    rng,
		noiseX: perlin.NewPerlin(alpha, beta, n, seed),
		noiseY: perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// MoveAndClick moves the pointer to the coordinate and clicks it. Click
// failures are reported, never retried here: a repeated click risks
// double-submission side effects.
func (p *Pointer) MoveAndClick(ctx context.Context, pt image.Point) error {
	target := Vector2D{X: float64(pt.X), Y: float64(pt.Y)}
	if err := p.MoveTo(ctx, target); err != nil {
		return err
	}
	return p.Click(ctx)
}

// ClickElement clicks a resolved element handle directly through the page
// capability.
func (p *Pointer) ClickElement(ctx context.Context, selector string) error {
	p.logger.Debug("Clicking element", zap.String("selector", selector))
	return p.driver.ClickSelector(ctx, selector)
}

// MoveTo traverses a human-like path from the current position to target,
// dispatching intermediate move events along the way.
func (p *Pointer) MoveTo(ctx context.Context, target Vector2D) error {
	p.mu.Lock()
	start := p.currentPos
	p.mu.Unlock()

	dist := start.Dist(target)
	duration := p.movementDuration(dist)
	numSteps := int(duration.Seconds() * 100)
	if numSteps < 2 {
		numSteps = 2
	}

	path := p.bezierPath(start, target, numSteps)

	startTime := time.Now()
	for i, waypoint := range path {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Ease time, not space: the cursor accelerates and decelerates along
		// the fixed path.
		t := float64(i) / float64(len(path)-1)
		easedT := easeInOutCubic(t)

		stepDeadline := startTime.Add(time.Duration(easedT * float64(duration)))
		if wait := time.Until(stepDeadline); wait > 0 {
			if err := p.driver.Sleep(ctx, wait); err != nil {
				return err
			}
		}

		pos := p.perturb(waypoint, time.Since(startTime).Seconds())
		ev := MouseEvent{
			Type:   MouseMove,
			X:      pos.X,
			Y:      pos.Y,
			Button: ButtonNone,
		}
		if err := p.driver.DispatchMouseEvent(ctx, ev); err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("Failed to dispatch pointer move", zap.Error(err))
			}
			return err
		}

		p.mu.Lock()
		p.currentPos = pos
		p.mu.Unlock()
	}

	// Land exactly on the target so the click coordinate matches the
	// resolution.
	final := MouseEvent{Type: MouseMove, X: target.X, Y: target.Y, Button: ButtonNone}
	if err := p.driver.DispatchMouseEvent(ctx, final); err != nil {
		return err
	}
	p.mu.Lock()
	p.currentPos = target
	p.mu.Unlock()
	return nil
}

// Click presses and releases the left button at the current position, holding
// for a randomized human-scale interval.
func (p *Pointer) Click(ctx context.Context) error {
	p.mu.Lock()
	pos := p.currentPos
	holdRange := p.cfg.ClickHoldMaxMs - p.cfg.ClickHoldMinMs
	holdMs := p.cfg.ClickHoldMinMs
	if holdRange > 0 {
		holdMs += p.rng.Intn(holdRange + 1)
	}
	p.mu.Unlock()

	press := MouseEvent{
		Type:       MousePress,
		X:          pos.X,
		Y:          pos.Y,
		Button:     ButtonLeft,
		ClickCount: 1,
		Buttons:    1,
	}
	if err := p.driver.DispatchMouseEvent(ctx, press); err != nil {
		return err
	}

	if err := p.driver.Sleep(ctx, time.Duration(holdMs)*time.Millisecond); err != nil {
		return err
	}

	release := MouseEvent{
		Type:       MouseRelease,
		X:          pos.X,
		Y:          pos.Y,
		Button:     ButtonLeft,
		ClickCount: 1,
		Buttons:    0,
	}
	return p.driver.DispatchMouseEvent(ctx, release)
}

// Position returns the pointer's current coordinate.
func (p *Pointer) Position() Vector2D {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentPos
}

// movementDuration applies Fitts's Law: MT = A + B * log2(1 + D/W), with a
// slight randomization so repeated movements do not look mechanical.
func (p *Pointer) movementDuration(distance float64) time.Duration {
	const targetWidth = 30.0

	id := math.Log2(1.0 + distance/targetWidth)

	p.mu.Lock()
	mt := p.cfg.FittsA + p.cfg.FittsB*id
	mt += mt * (p.rng.Float64()*0.3 - 0.15)
	p.mu.Unlock()

	if mt < 0 {
		mt = 0
	}
	return time.Duration(mt) * time.Millisecond
}

// bezierPath generates a cubic bezier from start to end whose control points
// are nudged perpendicular to the direct line, producing a gentle arc.
func (p *Pointer) bezierPath(start, end Vector2D, numSteps int) []Vector2D {
	mainVec := end.Sub(start)
	dist := mainVec.Mag()
	if dist < 1.0 || numSteps <= 1 {
		return []Vector2D{end}
	}

	dir := mainVec.Normalize()
	normal := Vector2D{X: -dir.Y, Y: dir.X}

	p.mu.Lock()
	arc1 := (p.rng.Float64() - 0.5) * dist * 0.25
	arc2 := (p.rng.Float64() - 0.5) * dist * 0.25
	p.mu.Unlock()

	p1 := start.Add(dir.Mul(dist / 3.0)).Add(normal.Mul(arc1))
	p2 := start.Add(dir.Mul(dist * 2.0 / 3.0)).Add(normal.Mul(arc2))

	path := make([]Vector2D, numSteps)
	for i := 0; i < numSteps; i++ {
		t := float64(i) / float64(numSteps-1)
		omt := 1.0 - t
		omt2 := omt * omt
		omt3 := omt2 * omt
		t2 := t * t
		t3 := t2 * t

		path[i] = start.Mul(omt3).
			Add(p1.Mul(3 * omt2 * t)).
			Add(p2.Mul(3 * omt * t2)).
			Add(end.Mul(t3))
	}
	return path
}

// perturb layers Perlin drift and Gaussian tremor onto a waypoint.
func (p *Pointer) perturb(point Vector2D, elapsed float64) Vector2D {
	const perlinFrequency = 0.8

	p.mu.Lock()
	defer p.mu.Unlock()

	drift := Vector2D{
		X: p.noiseX.Noise1D(elapsed*perlinFrequency) * p.cfg.PerlinAmplitude,
		Y: p.noiseY.Noise1D(elapsed*perlinFrequency) * p.cfg.PerlinAmplitude,
	}
	tremor := Vector2D{
		X: p.rng.NormFloat64() * p.cfg.TremorStrength,
		Y: p.rng.NormFloat64() * p.cfg.TremorStrength,
	}
	return point.Add(drift).Add(tremor)
}

// easeInOutCubic provides a smooth acceleration and deceleration profile.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}
