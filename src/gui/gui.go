// Package gui provides the native overlay window for each platform.
//
// NewSurface returns an overlay.Surface backed by a topmost Win32 popup on
// Windows and an override-redirect X11 window on Linux. The window is created
// once, hidden, and reused by every capture session.
package gui

import (
	"errors"
	"image"

	"winshifts/src/overlay"
)

// ErrUnsupported is returned by NewSurface on platforms without an overlay
// implementation.
var ErrUnsupported = errors.New("overlay window not supported on this platform")

const eventQueueSize = 64

// eventQueue carries input from the window thread to the event loop.
type eventQueue struct {
	ch   chan overlay.Event
	done chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		ch:   make(chan overlay.Event, eventQueueSize),
		done: make(chan struct{}),
	}
}

// post delivers ev. Pointer moves are dropped when the loop is behind since
// the next move or release carries a fresher position. Everything else
// blocks until delivered or the queue is closed.
func (q *eventQueue) post(ev overlay.Event) {
	if _, ok := ev.(overlay.PointerMove); ok {
		select {
		case q.ch <- ev:
		default:
		}
		return
	}
	select {
	case q.ch <- ev:
	case <-q.done:
	}
}

// close unblocks pending posts. The channel itself stays open so a select
// on it never spins.
func (q *eventQueue) close() {
	select {
	case <-q.done:
	default:
		close(q.done)
	}
}

// showGate holds back a window's first appearance until its back buffer
// contains a frame, so a new session never flashes an unpainted window.
type showGate struct {
	pending bool
}

// arm marks a window that was asked to show but has nothing to paint yet.
func (g *showGate) arm() { g.pending = true }

// disarm drops a pending show, e.g. when the window is hidden first.
func (g *showGate) disarm() { g.pending = false }

// framePresented reports whether this frame is the first since arm and the
// window should be shown now.
func (g *showGate) framePresented() bool {
	if !g.pending {
		return false
	}
	g.pending = false
	return true
}

// copyBGRX converts r of src into a 32-bit little-endian BGRX buffer whose
// origin matches src's origin. Both GDI DIB sections and 24/32-bit X11
// ZPixmaps use this layout.
func copyBGRX(dst []byte, dstStride int, src *image.RGBA, r image.Rectangle) {
	r = r.Intersect(src.Bounds())
	if r.Empty() {
		return
	}
	b := src.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		in := src.Pix[src.PixOffset(r.Min.X, y):]
		out := dst[(y-b.Min.Y)*dstStride+(r.Min.X-b.Min.X)*4:]
		for x := 0; x < r.Dx(); x++ {
			out[x*4] = in[x*4+2]
			out[x*4+1] = in[x*4+1]
			out[x*4+2] = in[x*4]
			out[x*4+3] = 0xff
		}
	}
}
