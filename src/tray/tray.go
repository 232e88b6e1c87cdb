// Package tray runs the system tray icon: a Capture/About/Exit menu plus
// short status messages shown in the icon tooltip.
package tray

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// DefaultStatusDuration is how long a Notify message stays in the tooltip.
const DefaultStatusDuration = 5 * time.Second

var (
	aboutMu     sync.Mutex
	aboutHotkey string
	aboutExtra  string
)

// SetAboutHotkey sets the shortcut shown in the About dialog.
func SetAboutHotkey(hotkey string) {
	aboutMu.Lock()
	defer aboutMu.Unlock()
	aboutHotkey = hotkey
}

// SetAboutExtra appends a line (e.g. the resident port) to the About dialog.
func SetAboutExtra(extra string) {
	aboutMu.Lock()
	defer aboutMu.Unlock()
	aboutExtra = extra
}

func aboutText(title string) string {
	aboutMu.Lock()
	defer aboutMu.Unlock()
	text := fmt.Sprintf("%s\n\nPress %s, then drag to copy a screen region to the clipboard.\nPress Escape to cancel.", title, aboutHotkey)
	if aboutExtra != "" {
		text += "\n\n" + aboutExtra
	}
	return text
}

// Config configures the tray icon.
type Config struct {
	Title     string
	Tooltip   string
	OnCapture func()
	OnExit    func()
	// StatusDuration overrides DefaultStatusDuration.
	StatusDuration time.Duration
}

// Tray is the running tray icon. Its methods are safe to call from any
// goroutine, before or after the icon is ready.
type Tray struct {
	cfg Config

	// Replaced in tests; default to the systray calls.
	setTooltip func(string)
	messageBox func(title, message string, isError bool)

	mu      sync.Mutex
	ready   bool
	status  string
	revert  *time.Timer
	closing bool
}

// New prepares a tray icon. Call Run to show it.
func New(cfg Config) (*Tray, error) {
	if cfg.Title == "" {
		return nil, fmt.Errorf("tray title is required")
	}
	if cfg.Tooltip == "" {
		cfg.Tooltip = cfg.Title
	}
	if cfg.StatusDuration <= 0 {
		cfg.StatusDuration = DefaultStatusDuration
	}
	return &Tray{
		cfg:        cfg,
		setTooltip: systray.SetTooltip,
		messageBox: showMessageBox,
	}, nil
}

// Run shows the icon and blocks until Destroy is called or Exit is chosen.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Destroy removes the icon.
func (t *Tray) Destroy() {
	t.mu.Lock()
	if t.closing {
		t.mu.Unlock()
		return
	}
	t.closing = true
	if t.revert != nil {
		t.revert.Stop()
	}
	t.mu.Unlock()
	systray.Quit()
}

func (t *Tray) onReady() {
	if icon := iconBytes(); len(icon) > 0 {
		systray.SetIcon(icon)
	}
	systray.SetTitle(t.cfg.Title)

	mCapture := systray.AddMenuItem("Capture", "Capture a screen region")
	mAbout := systray.AddMenuItem("About", "About "+t.cfg.Title)
	systray.AddSeparator()
	mExit := systray.AddMenuItem("Exit", "Exit the application")

	t.mu.Lock()
	t.ready = true
	t.applyTooltipLocked()
	t.mu.Unlock()
	log.Printf("Tray ready")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mAbout.ClickedCh:
				go t.messageBox("About "+t.cfg.Title, aboutText(t.cfg.Title), false)
			case <-mExit.ClickedCh:
				log.Printf("Exit selected from tray")
				if t.cfg.OnExit != nil {
					t.cfg.OnExit()
				}
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.mu.Lock()
	t.ready = false
	t.mu.Unlock()
}

// UpdateTooltip replaces the idle tooltip.
func (t *Tray) UpdateTooltip(tooltip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.Tooltip = tooltip
	t.applyTooltipLocked()
}

// Notify shows message in the tooltip for the status duration, then
// restores the idle tooltip.
func (t *Tray) Notify(message string) {
	log.Printf("Tray status: %s", message)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing {
		return
	}
	t.status = message
	t.applyTooltipLocked()
	if t.revert != nil {
		t.revert.Stop()
	}
	t.revert = time.AfterFunc(t.cfg.StatusDuration, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.status == message {
			t.status = ""
			t.applyTooltipLocked()
		}
	})
}

// Alert shows message in the tooltip and in a dialog that does not block
// the caller.
func (t *Tray) Alert(title, message string) {
	t.Notify(message)
	go t.messageBox(title, message, true)
}

func (t *Tray) applyTooltipLocked() {
	if !t.ready {
		return
	}
	if t.status != "" {
		t.setTooltip(t.cfg.Title + " - " + t.status)
		return
	}
	t.setTooltip(t.cfg.Tooltip)
}
