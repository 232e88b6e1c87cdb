package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"log"
	"sync"

	"golang.design/x/clipboard"

	"winshifts/src/screenshot"
)

// ErrClipboardUnavailable is returned when the system clipboard cannot be
// reached. Callers treat it as non-fatal.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

var (
	writeMu sync.Mutex
	initErr error
	inited  bool
)

// Init prepares the system clipboard. It is safe to call more than once;
// the first result is remembered.
func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !inited {
		inited = true
		if err := clipboard.Init(); err != nil {
			initErr = fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
		}
	}
	return initErr
}

// Publisher places crops on the clipboard as images. The zero value writes
// to the system clipboard.
type Publisher struct {
	// write replaces the system clipboard in tests.
	write func(data []byte) error
}

// NewPublisher returns a Publisher backed by the system clipboard.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish encodes fb as PNG and replaces the clipboard contents with it.
// fb is released afterwards regardless of the outcome.
func (p *Publisher) Publish(fb *screenshot.FrameBuffer) error {
	defer fb.Release()
	if fb.Released() || fb.Bounds().Empty() {
		return fmt.Errorf("publish: %w", screenshot.ErrInvalidRegion)
	}

	data, err := Encode(fb)
	if err != nil {
		return err
	}

	write := p.write
	if write == nil {
		write = writeSystem
	}
	if err := write(data); err != nil {
		return err
	}
	log.Printf("clipboard: wrote %dx%d image (%d bytes)", fb.Width, fb.Height, len(data))
	return nil
}

// Encode returns fb as PNG bytes, the format clipboard.FmtImage expects.
func Encode(fb *screenshot.FrameBuffer) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, fb); err != nil {
		return nil, fmt.Errorf("encode clipboard image: %w", err)
	}
	return buf.Bytes(), nil
}

// writeSystem performs a mutex-guarded clipboard write to prevent corruption
// under parallel writes.
func writeSystem(data []byte) error {
	if err := Init(); err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	if changed := clipboard.Write(clipboard.FmtImage, data); changed == nil {
		return fmt.Errorf("%w: image write rejected", ErrClipboardUnavailable)
	}
	return nil
}
