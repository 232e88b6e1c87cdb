package hotkey

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Default is the shortcut that starts a capture.
const Default = "Win+Shift+S"

var (
	mu      sync.Mutex
	running bool
)

// Listen starts the global keyboard hook and calls callback each time the
// combination goes down. The callback runs on the hook goroutine and must
// not block.
func Listen(combo string, callback func()) error {
	tracker, err := newComboTracker(combo)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if running {
		return errors.New("hotkey listener already running")
	}

	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start() returned nil channel")
	}
	running = true
	log.Printf("Hotkey listener configured for: %s", combo)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		for ev := range evChan {
			if tracker.handle(ev.Kind, ev.Rawcode) {
				log.Printf("HOTKEY COMBINATION DETECTED! %s", combo)
				if callback != nil {
					callback()
				}
			}
		}
		log.Printf("Event channel closed")
	}()
	return nil
}

// Stop removes the keyboard hook. It is safe to call when not listening.
func Stop() {
	mu.Lock()
	defer mu.Unlock()
	if !running {
		return
	}
	running = false
	gohook.End()
	log.Printf("Hotkey listener stopped")
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// comboTracker turns raw key transitions into combination presses. A
// combination fires once per press; auto-repeat does not fire it again until
// one of its keys is released.
type comboTracker struct {
	mu    sync.Mutex
	keys  []keyState
	fired bool
}

func newComboTracker(combo string) (*comboTracker, error) {
	names := parseHotkey(combo)
	if len(names) == 0 {
		return nil, fmt.Errorf("empty hotkey %q", combo)
	}
	t := &comboTracker{}
	for _, name := range names {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("cannot map key %q in hotkey %q", name, combo)
		}
		t.keys = append(t.keys, keyState{name: name, rawcodes: codes})
	}
	return t, nil
}

// handle applies one hook event and reports whether the combination just
// went down.
func (t *comboTracker) handle(kind uint8, rawcode uint16) bool {
	var down bool
	switch kind {
	case gohook.KeyDown, gohook.KeyHold:
		down = true
	case gohook.KeyUp:
	default:
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.keys {
		if t.keys[i].matches(rawcode) {
			t.keys[i].pressed = down
			if !down {
				t.fired = false
			}
		}
	}
	if !down || t.fired {
		return false
	}
	for i := range t.keys {
		if !t.keys[i].pressed {
			return false
		}
	}
	t.fired = true
	return true
}

func (k keyState) matches(rawcode uint16) bool {
	for _, c := range k.rawcodes {
		if c == rawcode {
			return true
		}
	}
	return false
}

// parseHotkey converts a hotkey string like "Win+Shift+S" to normalized key names
func parseHotkey(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "win", "cmd", "super", "meta":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

// keyNameToRawcodes maps a key name to the hook's rawcodes for this platform.
// Modifiers map to both the left and right variants.
func keyNameToRawcodes(name string) []uint16 {
	switch name {
	case "ctrl":
		return rawCtrl
	case "alt":
		return rawAlt
	case "shift":
		return rawShift
	case "cmd":
		return rawSuper
	case "esc", "escape":
		return []uint16{rawEscape}
	}
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'a' && c <= 'z':
			return letterRawcodes(uint16(c - 'a'))
		case c >= '0' && c <= '9':
			return []uint16{rawDigit0 + uint16(c-'0')}
		}
	}
	if rest, ok := strings.CutPrefix(name, "f"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 24 && rest[0] != '0' {
			return []uint16{rawF1 + uint16(n-1)}
		}
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", name)
	return nil
}
