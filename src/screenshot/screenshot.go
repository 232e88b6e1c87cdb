package screenshot

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/kbinani/screenshot"
)

var (
	// ErrCaptureUnavailable is returned when no snapshot could be taken.
	ErrCaptureUnavailable = errors.New("screen capture unavailable")
	// ErrNoDisplays is returned when no display surface is attached.
	ErrNoDisplays = fmt.Errorf("%w: no active displays found", ErrCaptureUnavailable)
)

// Capturer produces a snapshot of the whole virtual desktop.
type Capturer interface {
	Capture() (*FrameBuffer, error)
}

// Screen captures through github.com/kbinani/screenshot.
type Screen struct {
	numDisplays   func() int
	displayBounds func(int) image.Rectangle
	captureRect   func(image.Rectangle) (*image.RGBA, error)
}

// NewScreen returns a Capturer backed by the active displays.
func NewScreen() *Screen {
	return &Screen{
		numDisplays:   screenshot.NumActiveDisplays,
		displayBounds: screenshot.GetDisplayBounds,
		captureRect:   screenshot.CaptureRect,
	}
}

// VirtualDesktop returns the union of all display bounds. The origin may be
// negative when a display extends left of or above the primary one.
func (s *Screen) VirtualDesktop() (image.Rectangle, error) {
	n := s.numDisplays()
	if n == 0 {
		return image.Rectangle{}, ErrNoDisplays
	}
	union := s.displayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(s.displayBounds(i))
	}
	if union.Empty() {
		return image.Rectangle{}, ErrNoDisplays
	}
	return union, nil
}

// Capture takes one snapshot of the virtual desktop.
func (s *Screen) Capture() (*FrameBuffer, error) {
	union, err := s.VirtualDesktop()
	if err != nil {
		return nil, err
	}

	img, err := s.captureRect(union)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	if img == nil || img.Bounds().Dx() != union.Dx() || img.Bounds().Dy() != union.Dy() {
		return nil, fmt.Errorf("%w: snapshot size does not match desktop %v", ErrCaptureUnavailable, union)
	}

	log.Printf("screenshot: captured virtual desktop %v", union)
	return FromRGBA(img, union.Min), nil
}
