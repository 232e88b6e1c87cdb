package screenshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func patterned(w, h int) *FrameBuffer {
	fb := NewFrameBuffer(image.Pt(0, 0), w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fb.SetRGB(x, y, uint8(x), uint8(y), uint8(x^y))
		}
	}
	return fb
}

func TestFrameBufferImage(t *testing.T) {
	fb := patterned(4, 3)
	if got := fb.At(2, 1); got != (color.RGBA{R: 2, G: 1, B: 3, A: 255}) {
		t.Errorf("At(2,1) = %#v", got)
	}
	if got := fb.At(9, 9); got != (color.RGBA{}) {
		t.Errorf("At out of bounds = %#v, want zero", got)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, fb); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if decoded.Bounds() != fb.Bounds() {
		t.Errorf("decoded bounds = %v, want %v", decoded.Bounds(), fb.Bounds())
	}
}

func TestCopyToClipsAndSetsAlpha(t *testing.T) {
	fb := patterned(8, 8)
	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))

	fb.CopyTo(dst, image.Rect(6, 6, 20, 20))

	if got := dst.RGBAAt(7, 7); got != (color.RGBA{R: 7, G: 7, B: 0, A: 255}) {
		t.Errorf("copied pixel = %#v", got)
	}
	if got := dst.RGBAAt(5, 5); got != (color.RGBA{}) {
		t.Errorf("pixel outside r was written: %#v", got)
	}
}

func TestRelease(t *testing.T) {
	fb := patterned(4, 4)
	fb.Release()
	if !fb.Released() {
		t.Fatal("expected buffer to be released")
	}
	if !fb.Bounds().Empty() {
		t.Errorf("released bounds = %v, want empty", fb.Bounds())
	}
	// Releasing twice must be harmless.
	fb.Release()

	var nilFB *FrameBuffer
	nilFB.Release()
	if !nilFB.Released() {
		t.Error("nil buffer should report released")
	}
}
