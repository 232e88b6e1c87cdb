//go:build linux

package gui

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/gen2brain/shm"
	"github.com/jezek/xgb"
	mshm "github.com/jezek/xgb/shm"
	"github.com/jezek/xgb/xinerama"
	"github.com/jezek/xgb/xproto"

	"winshifts/src/overlay"
)

const (
	keysymEscape xproto.Keysym = 0xff1b

	// XC_crosshair from the standard cursor font; the mask glyph follows it.
	cursorCrosshair = 34

	// Stays below the core protocol request limit (4 * 65535 bytes).
	putImageChunkBytes = 240 * 1024
)

type x11Surface struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	window xproto.Window
	gc     xproto.Gcontext
	queue  *eventQueue

	// primary is the root-window position of the primary xinerama screen.
	// Capture coordinates are relative to it.
	primary     image.Point
	escape      xproto.Keycode
	deleteAtom  xproto.Atom
	useShm      bool
	eventsEnded chan struct{}

	mu     sync.Mutex
	bounds image.Rectangle
	buf    *backBuffer
}

// backBuffer is the BGRX image the server reads from, either a MIT-SHM
// segment or process memory sent with PutImage.
type backBuffer struct {
	width, height int
	stride        int
	pix           []byte
	shmID         int
	seg           mshm.Seg
	attached      bool
}

// NewSurface connects to the X server and creates the hidden overlay window.
func NewSurface() (overlay.Surface, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("could not connect to X server: %w", err)
	}
	s := &x11Surface{
		conn:        conn,
		queue:       newEventQueue(),
		eventsEnded: make(chan struct{}),
	}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, err
	}
	go s.readEvents()
	log.Printf("OVERLAY: X11 window %d created (shm=%v, primary origin %v)", s.window, s.useShm, s.primary)
	return s, nil
}

func (s *x11Surface) init() error {
	setup := xproto.Setup(s.conn)
	s.screen = setup.DefaultScreen(s.conn)

	if err := checkPixmapFormat(setup, s.screen.RootDepth); err != nil {
		return err
	}

	if err := xinerama.Init(s.conn); err == nil {
		if reply, err := xinerama.QueryScreens(s.conn).Reply(); err == nil && len(reply.ScreenInfo) > 0 {
			s.primary = image.Pt(int(reply.ScreenInfo[0].XOrg), int(reply.ScreenInfo[0].YOrg))
		}
	}
	s.useShm = mshm.Init(s.conn) == nil

	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	mapping, err := xproto.GetKeyboardMapping(s.conn, setup.MinKeycode, count).Reply()
	if err != nil {
		return fmt.Errorf("reading keyboard mapping: %w", err)
	}
	s.escape = findKeycode(setup.MinKeycode, mapping.KeysymsPerKeycode, mapping.Keysyms, keysymEscape)

	cursor, err := s.crosshairCursor()
	if err != nil {
		log.Printf("OVERLAY: could not create crosshair cursor: %v", err)
	}

	if s.window, err = xproto.NewWindowId(s.conn); err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	if err := xproto.CreateWindowChecked(
		s.conn,
		s.screen.RootDepth,
		s.window,
		s.screen.Root,
		0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput,
		s.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask|xproto.CwCursor,
		[]uint32{
			s.screen.BlackPixel,
			1,
			xproto.EventMaskExposure |
				xproto.EventMaskButtonPress |
				xproto.EventMaskButtonRelease |
				xproto.EventMaskPointerMotion |
				xproto.EventMaskKeyPress,
			uint32(cursor),
		},
	).Check(); err != nil {
		return fmt.Errorf("creating window: %w", err)
	}

	if s.gc, err = xproto.NewGcontextId(s.conn); err != nil {
		return fmt.Errorf("could not create graphics context id: %w", err)
	}
	if err := xproto.CreateGCChecked(s.conn, s.gc, xproto.Drawable(s.window), 0, []uint32{}).Check(); err != nil {
		return fmt.Errorf("could not create gccontext: %w", err)
	}

	s.setProperties()
	return nil
}

// checkPixmapFormat accepts only 32 bits per pixel, least significant byte
// first, which is BGRX in memory.
func checkPixmapFormat(setup *xproto.SetupInfo, depth byte) error {
	if setup.ImageByteOrder != xproto.ImageOrderLSBFirst {
		return errors.New("unsupported X server image byte order")
	}
	for _, f := range setup.PixmapFormats {
		if f.Depth == depth {
			if f.BitsPerPixel != 32 {
				return fmt.Errorf("unsupported pixmap format: depth %d at %d bpp", depth, f.BitsPerPixel)
			}
			return nil
		}
	}
	return fmt.Errorf("no pixmap format for depth %d", depth)
}

// findKeycode returns the first keycode whose mapping contains want, or 0.
func findKeycode(first xproto.Keycode, perCode byte, syms []xproto.Keysym, want xproto.Keysym) xproto.Keycode {
	if perCode == 0 {
		return 0
	}
	n := int(perCode)
	for i := 0; i*n < len(syms); i++ {
		end := min((i+1)*n, len(syms))
		for _, sym := range syms[i*n : end] {
			if sym == want {
				return first + xproto.Keycode(i)
			}
		}
	}
	return 0
}

func (s *x11Surface) crosshairCursor() (xproto.Cursor, error) {
	font, err := xproto.NewFontId(s.conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.OpenFontChecked(s.conn, font, uint16(len("cursor")), "cursor").Check(); err != nil {
		return 0, err
	}
	defer xproto.CloseFont(s.conn, font)

	cursor, err := xproto.NewCursorId(s.conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.CreateGlyphCursorChecked(s.conn, cursor, font, font,
		cursorCrosshair, cursorCrosshair+1, 0, 0, 0, 0xffff, 0xffff, 0xffff).Check(); err != nil {
		return 0, err
	}
	return cursor, nil
}

func (s *x11Surface) intern(name string) (xproto.Atom, error) {
	r, err := xproto.InternAtom(s.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("interning %s: %w", name, err)
	}
	return r.Atom, nil
}

// setProperties names the window and opts into WM_DELETE_WINDOW so a close
// request arrives as a client message instead of killing the connection.
func (s *x11Surface) setProperties() {
	title := "WinShiftS"
	xproto.ChangeProperty(s.conn, xproto.PropModeReplace, s.window,
		xproto.AtomWmName, xproto.AtomString, 8, uint32(len(title)), []byte(title))

	protocols, err := s.intern("WM_PROTOCOLS")
	if err != nil {
		log.Printf("OVERLAY: %v", err)
		return
	}
	if s.deleteAtom, err = s.intern("WM_DELETE_WINDOW"); err != nil {
		log.Printf("OVERLAY: %v", err)
		return
	}
	buf := make([]byte, 4)
	xgb.Put32(buf, uint32(s.deleteAtom))
	xproto.ChangeProperty(s.conn, xproto.PropModeReplace, s.window,
		protocols, xproto.AtomAtom, 32, 1, buf)
}

func (s *x11Surface) Show(bounds image.Rectangle) error {
	buf, err := s.newBackBuffer(bounds.Dx(), bounds.Dy())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.releaseBuffer()
	s.buf = buf
	s.bounds = bounds
	s.mu.Unlock()

	pos := bounds.Min.Add(s.primary)
	xproto.ConfigureWindow(s.conn, s.window,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{uint32(int32(pos.X)), uint32(int32(pos.Y)), uint32(bounds.Dx()), uint32(bounds.Dy()), xproto.StackModeAbove})
	if err := xproto.MapWindowChecked(s.conn, s.window).Check(); err != nil {
		return fmt.Errorf("mapping overlay window: %w", err)
	}
	s.grab()
	return nil
}

// grab takes the pointer and keyboard so the overlay sees the whole drag and
// Escape even though an override-redirect window never gets focus from a
// window manager.
func (s *x11Surface) grab() {
	ptr, err := xproto.GrabPointer(s.conn, false, s.window,
		xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease|xproto.EventMaskPointerMotion,
		xproto.GrabModeAsync, xproto.GrabModeAsync, xproto.WindowNone, xproto.CursorNone, xproto.TimeCurrentTime).Reply()
	if err != nil || ptr.Status != xproto.GrabStatusSuccess {
		log.Printf("OVERLAY: pointer grab failed: %v", err)
	}
	kbd, err := xproto.GrabKeyboard(s.conn, false, s.window, xproto.TimeCurrentTime,
		xproto.GrabModeAsync, xproto.GrabModeAsync).Reply()
	if err != nil || kbd.Status != xproto.GrabStatusSuccess {
		log.Printf("OVERLAY: keyboard grab failed: %v", err)
		xproto.SetInputFocus(s.conn, xproto.InputFocusParent, s.window, xproto.TimeCurrentTime)
	}
}

func (s *x11Surface) Hide() {
	xproto.UngrabPointer(s.conn, xproto.TimeCurrentTime)
	xproto.UngrabKeyboard(s.conn, xproto.TimeCurrentTime)
	xproto.UnmapWindow(s.conn, s.window)
	s.conn.Sync()

	s.mu.Lock()
	s.releaseBuffer()
	s.bounds = image.Rectangle{}
	s.mu.Unlock()
}

func (s *x11Surface) Present(canvas *image.RGBA, r image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf == nil {
		return
	}
	r = r.Intersect(canvas.Bounds()).Intersect(image.Rect(0, 0, s.buf.width, s.buf.height))
	if r.Empty() {
		return
	}

	if s.buf.attached {
		copyBGRX(s.buf.pix, s.buf.stride, canvas, r)
		mshm.PutImage(s.conn, xproto.Drawable(s.window), s.gc,
			uint16(s.buf.width), uint16(s.buf.height),
			uint16(r.Min.X), uint16(r.Min.Y), uint16(r.Dx()), uint16(r.Dy()),
			int16(r.Min.X), int16(r.Min.Y),
			s.screen.RootDepth, xproto.ImageFormatZPixmap, 0, s.buf.seg, 0)
		return
	}

	rowBytes := r.Dx() * 4
	rows := max(1, putImageChunkBytes/rowBytes)
	for y := r.Min.Y; y < r.Max.Y; y += rows {
		chunk := image.Rect(r.Min.X, y, r.Max.X, min(y+rows, r.Max.Y))
		data := s.buf.pix[:rowBytes*chunk.Dy()]
		copyBGRX(data, rowBytes, canvas.SubImage(chunk).(*image.RGBA), chunk)
		xproto.PutImage(s.conn, xproto.ImageFormatZPixmap, xproto.Drawable(s.window), s.gc,
			uint16(chunk.Dx()), uint16(chunk.Dy()), int16(chunk.Min.X), int16(chunk.Min.Y),
			0, s.screen.RootDepth, data)
	}
}

func (s *x11Surface) Events() <-chan overlay.Event { return s.queue.ch }

func (s *x11Surface) Close() error {
	s.queue.close()
	s.Hide()
	xproto.FreeGC(s.conn, s.gc)
	xproto.DestroyWindow(s.conn, s.window)
	s.conn.Sync()
	s.conn.Close()
	<-s.eventsEnded
	return nil
}

// newBackBuffer prefers a shared memory segment the server reads directly
// and falls back to a chunk buffer for PutImage.
func (s *x11Surface) newBackBuffer(w, h int) (*backBuffer, error) {
	if w <= 0 || h <= 0 || w > 0x7fff || h > 0x7fff {
		return nil, fmt.Errorf("invalid overlay size %dx%d", w, h)
	}
	b := &backBuffer{width: w, height: h, stride: w * 4}
	if s.useShm {
		err := b.attach(s.conn)
		if err == nil {
			return b, nil
		}
		log.Printf("OVERLAY: shared memory unavailable, using PutImage: %v", err)
	}
	b.pix = make([]byte, max(b.stride, min(b.stride*h, putImageChunkBytes)))
	return b, nil
}

func (b *backBuffer) attach(conn *xgb.Conn) error {
	id, err := shm.Get(shm.IPC_PRIVATE, b.stride*b.height, shm.IPC_CREAT|0600)
	if err != nil {
		return err
	}
	data, err := shm.At(id, 0, 0)
	if err != nil {
		_ = shm.Rm(id)
		return err
	}
	seg, err := mshm.NewSegId(conn)
	if err != nil {
		_ = shm.Dt(data)
		_ = shm.Rm(id)
		return err
	}
	if err := mshm.AttachChecked(conn, seg, uint32(id), true).Check(); err != nil {
		_ = shm.Dt(data)
		_ = shm.Rm(id)
		return err
	}
	b.shmID, b.seg, b.pix, b.attached = id, seg, data, true
	return nil
}

// releaseBuffer frees the current back buffer. Callers hold s.mu.
func (s *x11Surface) releaseBuffer() {
	b := s.buf
	s.buf = nil
	if b == nil || !b.attached {
		return
	}
	mshm.Detach(s.conn, b.seg)
	s.conn.Sync()
	_ = shm.Dt(b.pix)
	_ = shm.Rm(b.shmID)
}

func (s *x11Surface) readEvents() {
	defer close(s.eventsEnded)
	for {
		ev, err := s.conn.WaitForEvent()
		if ev == nil && err == nil {
			return
		}
		if err != nil {
			log.Printf("OVERLAY: X error: %v", err)
			continue
		}
		if translated := s.translate(ev); translated != nil {
			s.queue.post(translated)
		}
	}
}

func (s *x11Surface) translate(ev xgb.Event) overlay.Event {
	switch ev := ev.(type) {
	case xproto.ButtonPressEvent:
		if ev.Detail == xproto.ButtonIndex1 {
			return overlay.PointerDown{Pos: image.Pt(int(ev.EventX), int(ev.EventY))}
		}
	case xproto.ButtonReleaseEvent:
		if ev.Detail == xproto.ButtonIndex1 {
			return overlay.PointerUp{Pos: image.Pt(int(ev.EventX), int(ev.EventY))}
		}
	case xproto.MotionNotifyEvent:
		return overlay.PointerMove{Pos: image.Pt(int(ev.EventX), int(ev.EventY))}
	case xproto.KeyPressEvent:
		if s.escape != 0 && ev.Detail == s.escape {
			return overlay.KeyPress{Key: overlay.KeyEscape}
		}
		return overlay.KeyPress{Key: overlay.KeyOther}
	case xproto.ExposeEvent:
		return overlay.Exposed{Rect: image.Rect(int(ev.X), int(ev.Y), int(ev.X)+int(ev.Width), int(ev.Y)+int(ev.Height))}
	case xproto.ClientMessageEvent:
		if s.deleteAtom != 0 && ev.Format == 32 && xproto.Atom(ev.Data.Data32[0]) == s.deleteAtom {
			return overlay.CloseRequested{}
		}
	}
	return nil
}
