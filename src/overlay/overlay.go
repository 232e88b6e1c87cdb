package overlay

import (
	"fmt"
	"image"
	"log"

	"winshifts/src/screenshot"
)

// State is the overlay's position in the selection state machine.
type State int

const (
	// Idle: hidden, no screenshot owned.
	Idle State = iota
	// Armed: visible, whole screenshot dimmed, waiting for a drag.
	Armed
	// Dragging: visible, live selection tracked.
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Outcome describes what an event did to the session.
type Outcome int

const (
	// OutcomeNone: the event changed nothing visible to the caller.
	OutcomeNone Outcome = iota
	// OutcomeEmpty: a zero-width or zero-height drag was discarded.
	OutcomeEmpty
	// OutcomeCancelled: the session ended without a crop.
	OutcomeCancelled
	// OutcomePublished: the selection was cropped and handed to the publisher.
	OutcomePublished
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeEmpty:
		return "empty"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomePublished:
		return "published"
	default:
		return "unknown"
	}
}

// Result reports the effect of one handled event.
type Result struct {
	Outcome Outcome
	// Selection is the published rectangle, in screenshot-local coordinates.
	Selection screenshot.Region
	// Err is set when publishing failed. The session still ended.
	Err error
}

// Overlay is the selection state machine. It owns the screenshot while
// visible and releases it on every transition back to Idle.
type Overlay struct {
	surface   Surface
	publisher Publisher
	style     Style

	state  State
	frame  *screenshot.FrameBuffer
	canvas *image.RGBA
	drag   DragState
}

// New returns an idle overlay drawing into surface.
func New(surface Surface, publisher Publisher, style Style) *Overlay {
	return &Overlay{
		surface:   surface,
		publisher: publisher,
		style:     style,
	}
}

// State returns the current state.
func (o *Overlay) State() State { return o.state }

// Drag returns a copy of the current drag endpoints.
func (o *Overlay) Drag() DragState { return o.drag }

// Show starts a session over fb, taking ownership of it. An active session
// is torn down first so at most one screenshot is alive.
func (o *Overlay) Show(fb *screenshot.FrameBuffer) error {
	o.Dismiss()
	if fb.Released() || fb.Bounds().Empty() {
		fb.Release()
		return fmt.Errorf("show overlay: %w", screenshot.ErrCaptureUnavailable)
	}

	o.frame = fb
	o.canvas = image.NewRGBA(fb.Bounds())
	o.drag = DragState{}
	o.state = Armed

	if err := o.surface.Show(fb.DesktopBounds()); err != nil {
		o.teardown()
		return fmt.Errorf("show overlay: %w", err)
	}
	log.Printf("overlay: armed over %v", fb.DesktopBounds())
	o.repaint(o.canvas.Bounds())
	return nil
}

// Dismiss ends any active session without cropping.
func (o *Overlay) Dismiss() {
	if o.state != Idle {
		log.Printf("overlay: dismissing %s session", o.state)
		o.teardown()
	}
}

// Shutdown ends any session and destroys the surface. Used on application exit.
func (o *Overlay) Shutdown() error {
	o.Dismiss()
	return o.surface.Close()
}

// Handle applies one input event.
func (o *Overlay) Handle(ev Event) Result {
	switch ev := ev.(type) {
	case PointerDown:
		o.pointerDown(ev.Pos)
	case PointerMove:
		o.pointerMove(ev.Pos)
	case PointerUp:
		return o.pointerUp(ev.Pos)
	case KeyPress:
		if ev.Key == KeyEscape {
			return o.cancel("escape")
		}
	case CloseRequested:
		return o.cancel("close requested")
	case Exposed:
		if o.state != Idle {
			o.repaint(ev.Rect)
		}
	}
	return Result{}
}

func (o *Overlay) pointerDown(p image.Point) {
	if o.state != Armed {
		return
	}
	p = o.clamp(p)
	o.drag = DragState{Dragging: true, Start: p, End: p}
	o.state = Dragging
	o.repaint(Expanded(o.drag.Selection()))
}

func (o *Overlay) pointerMove(p image.Point) {
	if o.state != Dragging {
		return
	}
	old := o.drag.Selection()
	o.drag.End = o.clamp(p)
	o.repaint(DamageRegion(old, o.drag.Selection()))
}

func (o *Overlay) pointerUp(p image.Point) Result {
	if o.state != Dragging {
		return Result{}
	}
	old := o.drag.Selection()
	o.drag.End = o.clamp(p)
	sel := o.drag.Selection()

	if sel.Empty() {
		o.drag = DragState{}
		o.state = Armed
		o.repaint(DamageRegion(old, sel))
		return Result{Outcome: OutcomeEmpty}
	}

	crop, err := screenshot.Extract(o.frame, sel)
	if err != nil {
		o.teardown()
		return Result{Outcome: OutcomeCancelled, Err: fmt.Errorf("crop selection: %w", err)}
	}
	pubErr := o.publisher.Publish(crop)
	o.teardown()

	res := Result{Outcome: OutcomePublished, Selection: sel}
	if pubErr != nil {
		res.Err = fmt.Errorf("publish %dx%d selection: %w", sel.Width, sel.Height, pubErr)
	}
	log.Printf("overlay: published selection %+v (err=%v)", sel, pubErr)
	return res
}

func (o *Overlay) cancel(reason string) Result {
	if o.state == Idle {
		return Result{}
	}
	log.Printf("overlay: cancelled by %s", reason)
	o.teardown()
	return Result{Outcome: OutcomeCancelled}
}

// teardown is the single way back to Idle: drop the screenshot, reset the
// drag and hide the surface.
func (o *Overlay) teardown() {
	o.frame.Release()
	o.frame = nil
	o.canvas = nil
	o.drag = DragState{}
	o.state = Idle
	o.surface.Hide()
}

// repaint renders r into the canvas and asks the surface to present it.
func (o *Overlay) repaint(r image.Rectangle) {
	if o.canvas == nil {
		return
	}
	r = r.Intersect(o.canvas.Bounds())
	if r.Empty() {
		return
	}
	Render(o.canvas, o.frame, o.drag, o.style, r)
	o.surface.Present(o.canvas, r)
}

// clamp keeps p within the screenshot; pointer capture can report
// positions outside the window.
func (o *Overlay) clamp(p image.Point) image.Point {
	b := o.frame.Bounds()
	return image.Pt(min(max(p.X, b.Min.X), b.Max.X), min(max(p.Y, b.Min.Y), b.Max.Y))
}
