package screenshot

import (
	"image"
	"image/color"
)

// BytesPerPixel is the size of one FrameBuffer pixel (R, G, B; no alpha).
const BytesPerPixel = 3

// Region represents a rectangle in FrameBuffer-local coordinates.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// FrameBuffer is an owned 24-bit RGB snapshot of (part of) the virtual desktop.
// Pixel (x, y) starts at Pix[y*Stride+x*3].
type FrameBuffer struct {
	// Origin is the position of the buffer's top-left pixel on the virtual desktop.
	Origin image.Point
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// NewFrameBuffer allocates a zeroed (black) buffer.
func NewFrameBuffer(origin image.Point, width, height int) *FrameBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := width * BytesPerPixel
	return &FrameBuffer{
		Origin: origin,
		Width:  width,
		Height: height,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}
}

// FromRGBA copies img into a new FrameBuffer, dropping the alpha channel.
func FromRGBA(img *image.RGBA, origin image.Point) *FrameBuffer {
	b := img.Bounds()
	fb := NewFrameBuffer(origin, b.Dx(), b.Dy())
	for y := 0; y < fb.Height; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := fb.Pix[y*fb.Stride : (y+1)*fb.Stride]
		for x := 0; x < fb.Width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return fb
}

// Bounds returns the buffer-local bounds, (0,0)-(Width,Height).
func (fb *FrameBuffer) Bounds() image.Rectangle {
	if fb == nil || fb.Pix == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// DesktopBounds returns the area the buffer covers on the virtual desktop.
func (fb *FrameBuffer) DesktopBounds() image.Rectangle {
	return fb.Bounds().Add(fb.Origin)
}

func (fb *FrameBuffer) ColorModel() color.Model { return color.RGBAModel }

func (fb *FrameBuffer) At(x, y int) color.Color {
	if !image.Pt(x, y).In(fb.Bounds()) {
		return color.RGBA{}
	}
	r, g, b := fb.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// RGBAt returns the pixel at (x, y). The caller guarantees (x, y) is in bounds.
func (fb *FrameBuffer) RGBAt(x, y int) (r, g, b uint8) {
	i := y*fb.Stride + x*BytesPerPixel
	return fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2]
}

// SetRGB sets the pixel at (x, y). The caller guarantees (x, y) is in bounds.
func (fb *FrameBuffer) SetRGB(x, y int, r, g, b uint8) {
	i := y*fb.Stride + x*BytesPerPixel
	fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2] = r, g, b
}

// Opaque always holds; the format has no alpha channel.
func (fb *FrameBuffer) Opaque() bool { return true }

// CopyTo writes the pixels of r into dst at the same coordinates.
// r is clipped to both the buffer and dst.
func (fb *FrameBuffer) CopyTo(dst *image.RGBA, r image.Rectangle) {
	r = r.Intersect(fb.Bounds()).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := fb.Pix[y*fb.Stride+r.Min.X*BytesPerPixel:]
		out := dst.Pix[dst.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			out[x*4] = src[x*3]
			out[x*4+1] = src[x*3+1]
			out[x*4+2] = src[x*3+2]
			out[x*4+3] = 0xff
		}
	}
}

// Release drops the pixel storage. A released buffer has empty bounds.
func (fb *FrameBuffer) Release() {
	if fb == nil {
		return
	}
	fb.Pix = nil
	fb.Width, fb.Height, fb.Stride = 0, 0, 0
}

// Released reports whether Release has been called.
func (fb *FrameBuffer) Released() bool {
	return fb == nil || fb.Pix == nil
}
