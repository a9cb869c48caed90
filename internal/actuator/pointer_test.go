// File: internal/actuator/pointer_test.go
package actuator_test

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pinpoint-cli/internal/actuator"
	"github.com/xkilldash9x/pinpoint-cli/internal/config"
)

// fakeDriver records every dispatched event and sleeps without waiting, so
// pointer behavior is observable and fast.
type fakeDriver struct {
	events      []actuator.MouseEvent
	sleeps      []time.Duration
	clicked     []string
	dispatchErr error
}

func (d *fakeDriver) DispatchMouseEvent(ctx context.Context, ev actuator.MouseEvent) error {
	if d.dispatchErr != nil {
		return d.dispatchErr
	}
	d.events = append(d.events, ev)
	return nil
}

func (d *fakeDriver) ClickSelector(ctx context.Context, selector string) error {
	d.clicked = append(d.clicked, selector)
	return nil
}

func (d *fakeDriver) Sleep(ctx context.Context, dur time.Duration) error {
	d.sleeps = append(d.sleeps, dur)
	return ctx.Err()
}

func testActuatorConfig() config.ActuatorConfig {
	return config.ActuatorConfig{
		FittsA:          100,
		FittsB:          150,
		PerlinAmplitude: 2.0,
		TremorStrength:  0.5,
		ClickHoldMinMs:  40,
		ClickHoldMaxMs:  120,
	}
}

func newTestPointer(drv actuator.Driver) *actuator.Pointer {
	return actuator.NewWithRand(testActuatorConfig(), drv, zap.NewNop(), rand.New(rand.NewSource(42)), 42)
}

func TestMoveAndClick_MovesBeforeClicking(t *testing.T) {
	drv := &fakeDriver{}
	p := newTestPointer(drv)

	err := p.MoveAndClick(context.Background(), image.Pt(400, 300))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(drv.events), 4, "expected intermediate moves plus press and release")

	// Every event before the press must be a move; the press must come
	// before the release.
	var pressIdx, releaseIdx = -1, -1
	for i, ev := range drv.events {
		switch ev.Type {
		case actuator.MousePress:
			pressIdx = i
		case actuator.MouseRelease:
			releaseIdx = i
		case actuator.MouseMove:
			assert.Equal(t, -1, pressIdx, "no move events may follow the press")
		}
	}
	require.NotEqual(t, -1, pressIdx)
	require.NotEqual(t, -1, releaseIdx)
	assert.Greater(t, releaseIdx, pressIdx)
	assert.Greater(t, pressIdx, 1, "the pointer must travel before it clicks")

	// The click lands exactly on the resolved coordinate.
	press := drv.events[pressIdx]
	assert.Equal(t, 400.0, press.X)
	assert.Equal(t, 300.0, press.Y)
	assert.Equal(t, actuator.ButtonLeft, press.Button)
	assert.Equal(t, 1, press.ClickCount)
	assert.EqualValues(t, 1, press.Buttons)

	release := drv.events[releaseIdx]
	assert.Equal(t, 400.0, release.X)
	assert.Equal(t, 300.0, release.Y)
	assert.EqualValues(t, 0, release.Buttons)
}

func TestMoveTo_LandsExactlyOnTarget(t *testing.T) {
	drv := &fakeDriver{}
	p := newTestPointer(drv)

	target := actuator.Vector2D{X: 123, Y: 456}
	require.NoError(t, p.MoveTo(context.Background(), target))

	last := drv.events[len(drv.events)-1]
	assert.Equal(t, actuator.MouseMove, last.Type)
	assert.Equal(t, target.X, last.X)
	assert.Equal(t, target.Y, last.Y)
	assert.Equal(t, target, p.Position())
}

func TestMoveTo_PathIsNotAStraightJump(t *testing.T) {
	drv := &fakeDriver{}
	p := newTestPointer(drv)

	require.NoError(t, p.MoveTo(context.Background(), actuator.Vector2D{X: 800, Y: 600}))

	moves := 0
	for _, ev := range drv.events {
		if ev.Type == actuator.MouseMove {
			moves++
		}
	}
	assert.Greater(t, moves, 5, "a long traversal must emit intermediate waypoints")
}

func TestClick_HoldDurationWithinConfiguredWindow(t *testing.T) {
	drv := &fakeDriver{}
	p := newTestPointer(drv)

	require.NoError(t, p.Click(context.Background()))
	require.Len(t, drv.sleeps, 1)
	hold := drv.sleeps[0]
	assert.GreaterOrEqual(t, hold, 40*time.Millisecond)
	assert.LessOrEqual(t, hold, 120*time.Millisecond)
}

func TestClickElement_DelegatesToDriver(t *testing.T) {
	drv := &fakeDriver{}
	p := newTestPointer(drv)

	require.NoError(t, p.ClickElement(context.Background(), "#add-to-cart"))
	assert.Equal(t, []string{"#add-to-cart"}, drv.clicked)
	assert.Empty(t, drv.events, "element clicks bypass the simulated pointer")
}

func TestMoveAndClick_CancelledContextDispatchesNothing(t *testing.T) {
	drv := &fakeDriver{}
	p := newTestPointer(drv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.MoveAndClick(ctx, image.Pt(100, 100))
	require.ErrorIs(t, err, context.Canceled)
	for _, ev := range drv.events {
		assert.NotEqual(t, actuator.MousePress, ev.Type, "a cancelled movement must never reach the click")
	}
}

func TestMoveAndClick_DispatchFailureIsReportedNotRetried(t *testing.T) {
	cause := errors.New("session detached")
	drv := &fakeDriver{dispatchErr: cause}
	p := newTestPointer(drv)

	err := p.MoveAndClick(context.Background(), image.Pt(50, 50))
	require.ErrorIs(t, err, cause)
	assert.Empty(t, drv.events, "no further events may follow a dispatch failure")
}
