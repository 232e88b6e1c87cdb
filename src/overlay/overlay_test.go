package overlay

import (
	"errors"
	"image"
	"testing"

	"winshifts/src/screenshot"
)

type fakeSurface struct {
	visible   bool
	bounds    image.Rectangle
	shows     int
	hides     int
	closed    bool
	presented []image.Rectangle
	showErr   error
	events    chan Event
}

func (s *fakeSurface) Show(bounds image.Rectangle) error {
	if s.showErr != nil {
		return s.showErr
	}
	s.visible = true
	s.bounds = bounds
	s.shows++
	return nil
}

func (s *fakeSurface) Hide() {
	s.visible = false
	s.hides++
}

func (s *fakeSurface) Present(canvas *image.RGBA, r image.Rectangle) {
	s.presented = append(s.presented, r)
}

func (s *fakeSurface) Events() <-chan Event { return s.events }

func (s *fakeSurface) Close() error {
	s.closed = true
	return nil
}

type fakePublisher struct {
	published []*screenshot.FrameBuffer
	err       error
}

func (p *fakePublisher) Publish(fb *screenshot.FrameBuffer) error {
	p.published = append(p.published, fb)
	return p.err
}

func newTestOverlay() (*Overlay, *fakeSurface, *fakePublisher) {
	s := &fakeSurface{}
	p := &fakePublisher{}
	return New(s, p, DefaultStyle()), s, p
}

func TestDragReleasePublishesCrop(t *testing.T) {
	o, s, p := newTestOverlay()
	fb := testFrame(1920, 1080)
	src := testFrame(1920, 1080)

	if err := o.Show(fb); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if o.State() != Armed || !s.visible {
		t.Fatalf("after Show: state=%s visible=%v", o.State(), s.visible)
	}
	if s.bounds != image.Rect(0, 0, 1920, 1080) {
		t.Errorf("surface bounds = %v", s.bounds)
	}

	o.Handle(PointerDown{Pos: image.Pt(100, 100)})
	if o.State() != Dragging {
		t.Fatalf("after down: state=%s", o.State())
	}
	o.Handle(PointerMove{Pos: image.Pt(300, 250)})
	res := o.Handle(PointerUp{Pos: image.Pt(300, 250)})

	if res.Outcome != OutcomePublished || res.Err != nil {
		t.Fatalf("result = %+v", res)
	}
	if len(p.published) != 1 {
		t.Fatalf("published %d buffers, want 1", len(p.published))
	}
	crop := p.published[0]
	if crop.Width != 200 || crop.Height != 150 {
		t.Fatalf("crop size = %dx%d, want 200x150", crop.Width, crop.Height)
	}
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			if got, want := original(crop, x, y), original(src, 100+x, 100+y); got != want {
				t.Fatalf("crop pixel (%d,%d) = %#v, want %#v", x, y, got, want)
			}
		}
	}
	if o.State() != Idle || s.visible {
		t.Errorf("after publish: state=%s visible=%v", o.State(), s.visible)
	}
	if !fb.Released() {
		t.Error("screenshot not released after publish")
	}
}

func TestClickWithoutMoveStaysArmed(t *testing.T) {
	o, s, p := newTestOverlay()
	fb := testFrame(200, 100)
	if err := o.Show(fb); err != nil {
		t.Fatalf("Show: %v", err)
	}

	o.Handle(PointerDown{Pos: image.Pt(50, 50)})
	res := o.Handle(PointerUp{Pos: image.Pt(50, 50)})

	if res.Outcome != OutcomeEmpty {
		t.Errorf("outcome = %s, want empty", res.Outcome)
	}
	if len(p.published) != 0 {
		t.Error("empty selection was published")
	}
	if o.State() != Armed || !s.visible {
		t.Errorf("state=%s visible=%v, want armed and visible", o.State(), s.visible)
	}
	if fb.Released() {
		t.Error("screenshot released on empty selection")
	}
	if o.Drag() != (DragState{}) {
		t.Errorf("drag not reset: %+v", o.Drag())
	}
}

func TestZeroAxisDragNeverPublishes(t *testing.T) {
	ends := []image.Point{{50, 90}, {90, 50}}
	for _, end := range ends {
		o, _, p := newTestOverlay()
		if err := o.Show(testFrame(100, 100)); err != nil {
			t.Fatalf("Show: %v", err)
		}
		o.Handle(PointerDown{Pos: image.Pt(50, 50)})
		o.Handle(PointerMove{Pos: end})
		if res := o.Handle(PointerUp{Pos: end}); res.Outcome != OutcomeEmpty {
			t.Errorf("end %v: outcome = %s, want empty", end, res.Outcome)
		}
		if len(p.published) != 0 || o.State() != Armed {
			t.Errorf("end %v: published=%d state=%s", end, len(p.published), o.State())
		}
	}
}

func TestEscapeIsIdempotent(t *testing.T) {
	o, s, p := newTestOverlay()
	fb := testFrame(50, 50)
	if err := o.Show(fb); err != nil {
		t.Fatalf("Show: %v", err)
	}

	if res := o.Handle(KeyPress{Key: KeyEscape}); res.Outcome != OutcomeCancelled {
		t.Errorf("first escape outcome = %s", res.Outcome)
	}
	if res := o.Handle(KeyPress{Key: KeyEscape}); res.Outcome != OutcomeNone {
		t.Errorf("second escape outcome = %s", res.Outcome)
	}
	if o.State() != Idle || s.visible || !fb.Released() {
		t.Errorf("state=%s visible=%v released=%v", o.State(), s.visible, fb.Released())
	}
	if len(p.published) != 0 {
		t.Error("escape published a selection")
	}
}

func TestEscapeDuringDragDiscards(t *testing.T) {
	o, _, p := newTestOverlay()
	if err := o.Show(testFrame(50, 50)); err != nil {
		t.Fatalf("Show: %v", err)
	}
	o.Handle(PointerDown{Pos: image.Pt(5, 5)})
	o.Handle(PointerMove{Pos: image.Pt(30, 30)})
	o.Handle(KeyPress{Key: KeyEscape})
	o.Handle(PointerUp{Pos: image.Pt(30, 30)})

	if len(p.published) != 0 || o.State() != Idle {
		t.Errorf("published=%d state=%s", len(p.published), o.State())
	}
}

func TestOtherKeysPassThrough(t *testing.T) {
	o, _, _ := newTestOverlay()
	if err := o.Show(testFrame(50, 50)); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if res := o.Handle(KeyPress{Key: KeyOther}); res.Outcome != OutcomeNone || o.State() != Armed {
		t.Errorf("outcome=%s state=%s", res.Outcome, o.State())
	}
}

func TestCloseRequestedHidesAndRetainsWindow(t *testing.T) {
	o, s, _ := newTestOverlay()
	fb := testFrame(50, 50)
	if err := o.Show(fb); err != nil {
		t.Fatalf("Show: %v", err)
	}
	o.Handle(PointerDown{Pos: image.Pt(1, 1)})

	res := o.Handle(CloseRequested{})
	if res.Outcome != OutcomeCancelled || o.State() != Idle {
		t.Errorf("outcome=%s state=%s", res.Outcome, o.State())
	}
	if s.closed {
		t.Error("close request destroyed the surface")
	}
	if !fb.Released() {
		t.Error("screenshot not released")
	}

	// The same overlay can run another session.
	if err := o.Show(testFrame(50, 50)); err != nil {
		t.Fatalf("second Show: %v", err)
	}
	if s.shows != 2 {
		t.Errorf("shows = %d, want 2", s.shows)
	}
}

func TestShowWhileDraggingTearsDownFirst(t *testing.T) {
	o, s, p := newTestOverlay()
	first := testFrame(80, 60)
	if err := o.Show(first); err != nil {
		t.Fatalf("Show: %v", err)
	}
	o.Handle(PointerDown{Pos: image.Pt(10, 10)})
	o.Handle(PointerMove{Pos: image.Pt(40, 40)})

	second := testFrame(80, 60)
	s.presented = nil
	if err := o.Show(second); err != nil {
		t.Fatalf("re-Show: %v", err)
	}

	if !first.Released() {
		t.Error("previous screenshot not released")
	}
	if second.Released() {
		t.Error("new screenshot released")
	}
	if o.State() != Armed || o.Drag() != (DragState{}) {
		t.Errorf("state=%s drag=%+v", o.State(), o.Drag())
	}
	if len(s.presented) != 1 || s.presented[0] != image.Rect(0, 0, 80, 60) {
		t.Errorf("presented = %v, want one full repaint", s.presented)
	}
	// No residual rectangle: the former interior is dimmed now.
	style := DefaultStyle()
	if got, want := o.canvas.RGBAAt(20, 20), dimmed(style, original(second, 20, 20)); got != want {
		t.Errorf("pixel (20,20) = %#v, want dimmed %#v", got, want)
	}
	if len(p.published) != 0 {
		t.Error("re-trigger published a selection")
	}
}

func TestMoveRepaintsOnlyDamage(t *testing.T) {
	o, s, _ := newTestOverlay()
	if err := o.Show(testFrame(500, 400)); err != nil {
		t.Fatalf("Show: %v", err)
	}
	o.Handle(PointerDown{Pos: image.Pt(100, 100)})
	o.Handle(PointerMove{Pos: image.Pt(150, 120)})

	s.presented = nil
	o.Handle(PointerMove{Pos: image.Pt(160, 130)})

	want := image.Rect(99, 99, 161, 131)
	if len(s.presented) != 1 || s.presented[0] != want {
		t.Errorf("presented = %v, want [%v]", s.presented, want)
	}
}

func TestPointerClampedToScreenshot(t *testing.T) {
	o, _, p := newTestOverlay()
	if err := o.Show(testFrame(100, 80)); err != nil {
		t.Fatalf("Show: %v", err)
	}
	o.Handle(PointerDown{Pos: image.Pt(60, 40)})
	res := o.Handle(PointerUp{Pos: image.Pt(500, -30)})

	if res.Outcome != OutcomePublished {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	want := screenshot.Region{X: 60, Y: 0, Width: 40, Height: 40}
	if res.Selection != want {
		t.Errorf("selection = %+v, want %+v", res.Selection, want)
	}
	if len(p.published) != 1 {
		t.Fatalf("published %d", len(p.published))
	}
}

func TestPublishFailureStillEndsSession(t *testing.T) {
	o, s, p := newTestOverlay()
	p.err = errors.New("clipboard locked")
	fb := testFrame(100, 100)
	if err := o.Show(fb); err != nil {
		t.Fatalf("Show: %v", err)
	}
	o.Handle(PointerDown{Pos: image.Pt(10, 10)})
	res := o.Handle(PointerUp{Pos: image.Pt(20, 20)})

	if res.Outcome != OutcomePublished || !errors.Is(res.Err, p.err) {
		t.Errorf("result = %+v", res)
	}
	if o.State() != Idle || s.visible || !fb.Released() {
		t.Errorf("state=%s visible=%v released=%v", o.State(), s.visible, fb.Released())
	}
}

func TestPointerIgnoredWhenIdle(t *testing.T) {
	o, s, p := newTestOverlay()
	o.Handle(PointerDown{Pos: image.Pt(1, 1)})
	o.Handle(PointerMove{Pos: image.Pt(5, 5)})
	res := o.Handle(PointerUp{Pos: image.Pt(5, 5)})

	if res.Outcome != OutcomeNone || o.State() != Idle {
		t.Errorf("outcome=%s state=%s", res.Outcome, o.State())
	}
	if len(s.presented) != 0 || len(p.published) != 0 {
		t.Error("idle overlay painted or published")
	}
}

func TestShowFailureReleasesScreenshot(t *testing.T) {
	o, s, _ := newTestOverlay()
	s.showErr = errors.New("no window")
	fb := testFrame(10, 10)

	if err := o.Show(fb); !errors.Is(err, s.showErr) {
		t.Fatalf("Show error = %v", err)
	}
	if o.State() != Idle || !fb.Released() {
		t.Errorf("state=%s released=%v", o.State(), fb.Released())
	}
}

func TestShutdownClosesSurface(t *testing.T) {
	o, s, _ := newTestOverlay()
	fb := testFrame(10, 10)
	if err := o.Show(fb); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if err := o.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !s.closed || !fb.Released() || o.State() != Idle {
		t.Errorf("closed=%v released=%v state=%s", s.closed, fb.Released(), o.State())
	}
}
