// Package overlay implements the drag-to-select overlay shown over a
// freshly captured screenshot.
//
// An Overlay is not safe for concurrent use. It is owned by the event loop
// goroutine, which feeds it platform input as Event values.
package overlay

import (
	"image"

	"winshifts/src/screenshot"
)

// Surface is the platform window the overlay draws into. Implementations
// cover exactly the bounds passed to Show, borderless and above all other
// windows.
type Surface interface {
	// Show positions the window at bounds (virtual-desktop coordinates) and
	// makes it visible and focused.
	Show(bounds image.Rectangle) error
	// Hide makes the window invisible and drops any presentation buffers.
	// The window itself survives for the next session.
	Hide()
	// Present copies r of canvas to the screen. canvas is in window-local
	// coordinates and matches the size passed to Show.
	Present(canvas *image.RGBA, r image.Rectangle)
	// Events delivers input for the loop that owns the overlay.
	Events() <-chan Event
	// Close destroys the window for good.
	Close() error
}

// Publisher receives the cropped selection. It takes ownership of the buffer.
type Publisher interface {
	Publish(fb *screenshot.FrameBuffer) error
}
