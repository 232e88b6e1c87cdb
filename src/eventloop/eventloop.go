package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"winshifts/src/clipboard"
	"winshifts/src/hotkey"
	"winshifts/src/overlay"
	"winshifts/src/screenshot"
	"winshifts/src/singleinstance"
	"winshifts/src/tray"
)

// DefaultSettleDelay gives the window system time to remove a dismissed
// overlay from the screen before the next capture.
const DefaultSettleDelay = 150 * time.Millisecond

// Notifier reports session results to the user.
type Notifier interface {
	Notify(message string)
	Alert(title, message string)
}

// Options wires a Loop.
type Options struct {
	Capturer  screenshot.Capturer
	Surface   overlay.Surface
	Publisher overlay.Publisher
	Style     overlay.Style
	// Notifier is optional; without one results are only logged.
	Notifier Notifier
	// Server is optional; when set the loop owns it and turns delegated
	// CAPTURE requests into triggers.
	Server       singleinstance.Server
	NotifyOnCopy bool
	// OneShot makes Run return once the first session has ended.
	OneShot bool
	// SettleDelay overrides DefaultSettleDelay. Negative disables it.
	SettleDelay time.Duration
}

// Loop is the single-threaded coordinator for capture triggers and overlay
// input. The overlay, its screenshot and its drag state are only touched
// from the goroutine running Run.
type Loop struct {
	capturer     screenshot.Capturer
	surface      overlay.Surface
	overlay      *overlay.Overlay
	notifier     Notifier
	srv          singleinstance.Server
	triggerCh    chan struct{}
	notifyOnCopy bool
	oneShot      bool
	settle       time.Duration

	// done and lastErr are only used in one-shot mode.
	done    bool
	lastErr error
}

// New creates a loop around an idle overlay.
func New(opts Options) *Loop {
	settle := opts.SettleDelay
	switch {
	case settle == 0:
		settle = DefaultSettleDelay
	case settle < 0:
		settle = 0
	}
	return &Loop{
		capturer:     opts.Capturer,
		surface:      opts.Surface,
		overlay:      overlay.New(opts.Surface, opts.Publisher, opts.Style),
		notifier:     opts.Notifier,
		srv:          opts.Server,
		triggerCh:    make(chan struct{}, 1),
		notifyOnCopy: opts.NotifyOnCopy,
		oneShot:      opts.OneShot,
		settle:       settle,
	}
}

// Trigger requests a capture. It never blocks; triggers arriving faster
// than the loop handles them are coalesced.
func (l *Loop) Trigger() {
	select {
	case l.triggerCh <- struct{}{}:
	default:
	}
}

// StartHotkey registers a global hotkey and posts events into the loop.
func (l *Loop) StartHotkey(combo string) error {
	if combo == "" {
		return nil
	}
	return hotkey.Listen(combo, l.Trigger)
}

// Run processes triggers, overlay input and delegated requests until ctx
// is cancelled, then destroys the overlay window.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.overlay.Shutdown(); err != nil {
			log.Printf("overlay shutdown: %v", err)
		}
	}()

	var reqCh chan singleinstance.Conn
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			return fmt.Errorf("start single-instance server: %w", err)
		}
		defer l.srv.Close()
		// Update tray About with port info
		if p := l.srv.Port(); p > 0 {
			log.Printf("Resident listening on 127.0.0.1:%d", p)
			tray.SetAboutExtra(fmt.Sprintf("Resident TCP port: %d", p))
		}

		// Accept loop in background so input handling never waits on clients
		reqCh = make(chan singleinstance.Conn, 4)
		go l.accept(ctx, reqCh)
	}

	events := l.surface.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.triggerCh:
			l.handleTrigger()
		case ev := <-events:
			l.handleEvent(ev)
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.handleConn(ctx, conn)
		}
		if l.done {
			return l.lastErr
		}
	}
}

// accept hands delegated connections to Run until the server stops or ctx
// ends. A connection Run can no longer take is closed here.
func (l *Loop) accept(ctx context.Context, reqCh chan<- singleinstance.Conn) {
	defer close(reqCh)
	for {
		conn, err := l.srv.Next(ctx)
		if err != nil {
			return
		}
		select {
		case reqCh <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

// handleConn answers a delegated request before acting on it, so the other
// process never waits for the user to finish a selection.
func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	defer conn.Close()
	cmd := conn.Request().Command
	log.Printf("handleConn: delegated %s request", cmd)

	var refusal string
	switch {
	case ctx.Err() != nil:
		refusal = "shutting down"
	case cmd != singleinstance.CommandCapture:
		refusal = fmt.Sprintf("unsupported command %q", cmd)
	}
	if refusal != "" {
		if err := conn.RespondError(refusal); err != nil {
			log.Printf("handleConn: respond: %v", err)
		}
		return
	}

	if err := conn.RespondSuccess(); err != nil {
		log.Printf("handleConn: respond: %v", err)
	}
	l.handleTrigger()
}

// handleTrigger ends any active session, captures the desktop and arms the
// overlay over the new screenshot.
func (l *Loop) handleTrigger() {
	log.Printf("handleTrigger: called (overlay %s)", l.overlay.State())
	if l.overlay.State() != overlay.Idle {
		l.overlay.Dismiss()
		if l.settle > 0 {
			time.Sleep(l.settle)
		}
	}

	fb, err := l.capturer.Capture()
	if err != nil {
		if errors.Is(err, screenshot.ErrNoDisplays) {
			log.Printf("handleTrigger: %v; nothing to capture", err)
		} else {
			log.Printf("handleTrigger: capture failed: %v", err)
			l.alert("Screen capture failed", err.Error())
		}
		l.finish(err)
		return
	}

	if err := l.overlay.Show(fb); err != nil {
		log.Printf("handleTrigger: show overlay: %v", err)
		l.alert("Screen capture failed", err.Error())
		l.finish(err)
	}
}

func (l *Loop) handleEvent(ev overlay.Event) {
	res := l.overlay.Handle(ev)
	switch res.Outcome {
	case overlay.OutcomePublished:
		if res.Err != nil {
			log.Printf("handleEvent: %v", res.Err)
			if errors.Is(res.Err, clipboard.ErrClipboardUnavailable) {
				l.alert("Clipboard unavailable", res.Err.Error())
			} else {
				l.alert("Copy failed", res.Err.Error())
			}
		} else if l.notifyOnCopy && l.notifier != nil {
			l.notifier.Notify(fmt.Sprintf("Copied %d×%d to clipboard", res.Selection.Width, res.Selection.Height))
		}
		l.finish(res.Err)
	case overlay.OutcomeCancelled:
		if res.Err != nil {
			log.Printf("handleEvent: %v", res.Err)
			l.alert("Copy failed", res.Err.Error())
		}
		l.finish(res.Err)
	case overlay.OutcomeEmpty:
		log.Printf("handleEvent: empty selection ignored")
	}
}

func (l *Loop) alert(title, message string) {
	if l.notifier != nil {
		l.notifier.Alert(title, message)
	}
}

// finish records the end of a session for one-shot mode.
func (l *Loop) finish(err error) {
	if l.oneShot {
		l.done = true
		l.lastErr = err
	}
}
