package overlay

import "image"

// Event is a platform input event delivered to Overlay.Handle.
type Event interface {
	event()
}

// PointerDown is a primary-button press at a window-local position.
type PointerDown struct{ Pos image.Point }

// PointerMove is a pointer movement at a window-local position.
type PointerMove struct{ Pos image.Point }

// PointerUp is a primary-button release at a window-local position.
type PointerUp struct{ Pos image.Point }

// Key identifies the keys the overlay reacts to.
type Key int

const (
	KeyOther Key = iota
	KeyEscape
)

// KeyPress is a key going down while the overlay has focus.
type KeyPress struct{ Key Key }

// CloseRequested is a user attempt to close the overlay window (Alt+F4,
// window manager close). It hides the overlay instead of destroying it.
type CloseRequested struct{}

// Exposed asks for r to be drawn again, e.g. after the window was uncovered.
type Exposed struct{ Rect image.Rectangle }

func (PointerDown) event()    {}
func (PointerMove) event()    {}
func (PointerUp) event()      {}
func (KeyPress) event()       {}
func (CloseRequested) event() {}
func (Exposed) event()        {}
