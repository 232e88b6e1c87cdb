//go:build windows

package gui

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"

	"winshifts/src/overlay"
)

// Commands posted from the event loop to the window thread.
const (
	wmShow = win.WM_APP + 1 + iota
	wmHide
	wmInvalidate
	wmClose
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")

	wndProcCallback = syscall.NewCallback(wndProc)

	// There is one overlay window per process; wndProc routes to it.
	current *windowsSurface
)

type windowsSurface struct {
	queue  *eventQueue
	hwnd   win.HWND
	cursor win.HCURSOR
	ready  chan error
	exited chan struct{}

	// captured is only touched on the window thread.
	captured bool

	mu     sync.Mutex
	bounds image.Rectangle
	memDC  win.HDC
	bitmap win.HBITMAP
	oldBmp win.HGDIOBJ
	pix    []byte
	stride int
	dirty  image.Rectangle
	// gate defers wmShow until Present has filled the DIB.
	gate showGate
}

// NewSurface creates the hidden overlay window and starts its message loop
// on a dedicated OS thread.
func NewSurface() (overlay.Surface, error) {
	s := &windowsSurface{
		queue:  newEventQueue(),
		cursor: win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
		ready:  make(chan error, 1),
		exited: make(chan struct{}),
	}
	go s.run()
	if err := <-s.ready; err != nil {
		return nil, err
	}
	log.Printf("OVERLAY: window created, hwnd=%v", s.hwnd)
	return s, nil
}

func (s *windowsSurface) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.exited)

	hInst := win.GetModuleHandle(nil)
	className := syscall.StringToUTF16Ptr("WinShiftSOverlay")
	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   wndProcCallback,
		HInstance:     hInst,
		HCursor:       s.cursor,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wc) == 0 {
		s.ready <- errors.New("failed to register overlay window class")
		return
	}
	defer win.UnregisterClass(className)

	current = s
	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className,
		syscall.StringToUTF16Ptr("WinShiftS"),
		win.WS_POPUP,
		0, 0, 0, 0,
		0, 0, hInst, nil,
	)
	if hwnd == 0 {
		current = nil
		s.ready <- errors.New("failed to create overlay window")
		return
	}
	s.hwnd = hwnd
	s.ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 { // WM_QUIT
			break
		}
		if ret == -1 {
			log.Printf("OVERLAY: GetMessage error")
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	current = nil
	log.Printf("OVERLAY: message loop exited")
}

func (s *windowsSurface) Show(bounds image.Rectangle) error {
	s.mu.Lock()
	s.freeBuffer()
	err := s.allocBuffer(bounds.Dx(), bounds.Dy())
	if err == nil {
		s.bounds = bounds
		s.dirty = image.Rectangle{}
		s.gate.arm()
	}
	s.mu.Unlock()
	return err
}

func (s *windowsSurface) Hide() {
	s.mu.Lock()
	s.freeBuffer()
	s.gate.disarm()
	s.mu.Unlock()
	win.PostMessage(s.hwnd, wmHide, 0, 0)
}

func (s *windowsSurface) Present(canvas *image.RGBA, r image.Rectangle) {
	s.mu.Lock()
	if s.pix == nil {
		s.mu.Unlock()
		return
	}
	copyBGRX(s.pix, s.stride, canvas, r)
	if s.gate.framePresented() {
		// onShow repaints the whole window.
		s.dirty = image.Rectangle{}
		s.mu.Unlock()
		win.PostMessage(s.hwnd, wmShow, 0, 0)
		return
	}
	wasClean := s.dirty.Empty()
	s.dirty = s.dirty.Union(r)
	s.mu.Unlock()
	if wasClean {
		win.PostMessage(s.hwnd, wmInvalidate, 0, 0)
	}
}

func (s *windowsSurface) Events() <-chan overlay.Event { return s.queue.ch }

func (s *windowsSurface) Close() error {
	s.queue.close()
	win.PostMessage(s.hwnd, wmClose, 0, 0)
	<-s.exited
	s.mu.Lock()
	s.freeBuffer()
	s.mu.Unlock()
	return nil
}

// allocBuffer creates a top-down 32-bit DIB section selected into a memory
// DC. Callers hold s.mu.
func (s *windowsSurface) allocBuffer(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid overlay size %dx%d", w, h)
	}
	dc := win.CreateCompatibleDC(0)
	if dc == 0 {
		return errors.New("failed to create memory DC")
	}
	header := win.BITMAPINFOHEADER{
		BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
		BiWidth:       int32(w),
		BiHeight:      -int32(h), // Negative for top-down
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	var bits unsafe.Pointer
	bmp := win.CreateDIBSection(dc, &header, win.DIB_RGB_COLORS, &bits, 0, 0)
	if bmp == 0 || bits == nil {
		win.DeleteDC(dc)
		return fmt.Errorf("failed to create %dx%d DIB section", w, h)
	}
	s.oldBmp = win.SelectObject(dc, win.HGDIOBJ(bmp))
	s.memDC = dc
	s.bitmap = bmp
	s.stride = w * 4
	s.pix = unsafe.Slice((*byte)(bits), s.stride*h)
	return nil
}

// freeBuffer releases the back buffer. Callers hold s.mu.
func (s *windowsSurface) freeBuffer() {
	if s.memDC == 0 {
		return
	}
	win.SelectObject(s.memDC, s.oldBmp)
	win.DeleteObject(win.HGDIOBJ(s.bitmap))
	win.DeleteDC(s.memDC)
	s.memDC, s.bitmap, s.oldBmp = 0, 0, 0
	s.pix = nil
	s.stride = 0
	s.dirty = image.Rectangle{}
}

func (s *windowsSurface) onShow(hwnd win.HWND) {
	s.mu.Lock()
	b := s.bounds
	s.mu.Unlock()

	win.SetWindowPos(hwnd, win.HWND_TOPMOST,
		int32(b.Min.X), int32(b.Min.Y), int32(b.Dx()), int32(b.Dy()),
		win.SWP_SHOWWINDOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(hwnd)
	win.BringWindowToTop(hwnd)
	win.SetFocus(hwnd)
	win.InvalidateRect(hwnd, nil, false)
}

func (s *windowsSurface) onHide(hwnd win.HWND) {
	if s.captured {
		s.captured = false
		win.ReleaseCapture()
	}
	win.ShowWindow(hwnd, win.SW_HIDE)
}

func (s *windowsSurface) onInvalidate(hwnd win.HWND) {
	s.mu.Lock()
	d := s.dirty
	s.dirty = image.Rectangle{}
	s.mu.Unlock()
	if d.Empty() {
		return
	}
	rc := win.RECT{Left: int32(d.Min.X), Top: int32(d.Min.Y), Right: int32(d.Max.X), Bottom: int32(d.Max.Y)}
	win.InvalidateRect(hwnd, &rc, false)
}

func (s *windowsSurface) onPaint(hwnd win.HWND) {
	var ps win.PAINTSTRUCT
	hdc := win.BeginPaint(hwnd, &ps)
	rc := ps.RcPaint
	s.mu.Lock()
	if s.memDC != 0 {
		win.BitBlt(hdc, rc.Left, rc.Top, rc.Right-rc.Left, rc.Bottom-rc.Top, s.memDC, rc.Left, rc.Top, win.SRCCOPY)
	}
	s.mu.Unlock()
	win.EndPaint(hwnd, &ps)
}

// pointFromLParam decodes signed client coordinates; with the mouse
// captured they can be negative.
func pointFromLParam(lParam uintptr) image.Point {
	return image.Pt(int(int16(win.LOWORD(uint32(lParam)))), int(int16(win.HIWORD(uint32(lParam)))))
}

func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	s := current
	if s == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case wmShow:
		s.onShow(hwnd)
		return 0
	case wmHide:
		s.onHide(hwnd)
		return 0
	case wmInvalidate:
		s.onInvalidate(hwnd)
		return 0
	case wmClose:
		win.DestroyWindow(hwnd)
		return 0

	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		s.captured = true
		s.queue.post(overlay.PointerDown{Pos: pointFromLParam(lParam)})
		return 0
	case win.WM_MOUSEMOVE:
		if s.captured {
			s.queue.post(overlay.PointerMove{Pos: pointFromLParam(lParam)})
		}
		return 0
	case win.WM_LBUTTONUP:
		if s.captured {
			s.captured = false
			win.ReleaseCapture()
		}
		s.queue.post(overlay.PointerUp{Pos: pointFromLParam(lParam)})
		return 0

	case win.WM_KEYDOWN:
		key := overlay.KeyOther
		if wParam == win.VK_ESCAPE {
			key = overlay.KeyEscape
		}
		s.queue.post(overlay.KeyPress{Key: key})
		return 0

	case win.WM_CLOSE:
		// Alt+F4 hides the overlay through the loop; the window survives.
		s.queue.post(overlay.CloseRequested{})
		return 0

	case win.WM_PAINT:
		s.onPaint(hwnd)
		return 0
	case win.WM_ERASEBKGND:
		return 1
	case win.WM_SETCURSOR:
		win.SetCursor(s.cursor)
		return 1
	case win.WM_NCHITTEST:
		// Force all points to be client area so the window receives mouse events
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}
