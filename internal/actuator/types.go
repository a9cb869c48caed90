// File: internal/actuator/types.go
package actuator

import (
	"context"
	"time"
)

// MouseEventType mirrors the event type strings of common automation
// protocols.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
)

// MouseButton identifies a pointer button.
type MouseButton string

const (
	ButtonNone MouseButton = "none"
	ButtonLeft MouseButton = "left"
)

// MouseEvent holds the data required to dispatch one pointer event. It is an
// agnostic structure so the actuator stays independent of the automation
// backend.
type MouseEvent struct {
	Type MouseEventType
	X    float64
	Y    float64
	// Button that was pressed or released (Press/Release events only).
	Button MouseButton
	// ClickCount is the number of consecutive clicks.
	ClickCount int
	// Buttons is a bitfield of buttons currently held (1: left).
	Buttons int64
}

// Driver is the slice of the page capability the actuator needs: raw pointer
// events, direct element clicks, and context-aware pauses.
type Driver interface {
	DispatchMouseEvent(ctx context.Context, ev MouseEvent) error
	ClickSelector(ctx context.Context, selector string) error
	Sleep(ctx context.Context, d time.Duration) error
}
