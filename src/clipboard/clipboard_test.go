package clipboard

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"winshifts/src/screenshot"
)

func sample(w, h int) *screenshot.FrameBuffer {
	fb := screenshot.NewFrameBuffer(image.Pt(-10, 5), w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fb.SetRGB(x, y, uint8(x), uint8(y), 0x80)
		}
	}
	return fb
}

func TestEncodeRoundTripsPixels(t *testing.T) {
	fb := sample(6, 4)
	data, err := Encode(fb)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 6, 4) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	r, g, b, a := img.At(5, 3).RGBA()
	if r>>8 != 5 || g>>8 != 3 || b>>8 != 0x80 || a>>8 != 0xff {
		t.Errorf("pixel (5,3) = %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestPublishWritesAndReleases(t *testing.T) {
	var got []byte
	p := &Publisher{write: func(data []byte) error {
		got = data
		return nil
	}}
	fb := sample(3, 2)

	if err := p.Publish(fb); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("nothing written")
	}
	if !fb.Released() {
		t.Error("crop not released after publish")
	}
}

func TestPublishFailures(t *testing.T) {
	writeErr := errors.New("locked")
	tests := []struct {
		name    string
		fb      *screenshot.FrameBuffer
		write   func([]byte) error
		wantErr error
	}{
		{"empty crop", screenshot.NewFrameBuffer(image.Point{}, 0, 5), nil, screenshot.ErrInvalidRegion},
		{"released crop", func() *screenshot.FrameBuffer { fb := sample(2, 2); fb.Release(); return fb }(), nil, screenshot.ErrInvalidRegion},
		{"write error", sample(2, 2), func([]byte) error { return writeErr }, writeErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Publisher{write: tt.write}
			err := p.Publish(tt.fb)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if !tt.fb.Released() {
				t.Error("crop not released on failure")
			}
		})
	}
}
