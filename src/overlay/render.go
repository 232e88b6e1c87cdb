package overlay

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"winshifts/src/screenshot"
)

// Style controls how the overlay tints the screenshot.
type Style struct {
	// Dim is blended over everything outside the selection.
	Dim color.NRGBA
	// Highlight is the colour of the 1px ring around the selection.
	Highlight color.RGBA
}

// DefaultDimOpacity is the alpha of the white dimming tint.
const DefaultDimOpacity = 128

// DefaultStyle returns a half-transparent white tint and a blue ring.
func DefaultStyle() Style {
	return Style{
		Dim:       color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: DefaultDimOpacity},
		Highlight: color.RGBA{R: 0x00, G: 0x78, B: 0xd7, A: 0xff},
	}
}

// Render draws the overlay into dst, touching only pixels inside clip.
//
// The screenshot is copied first. Without a drag the whole clip is dimmed.
// During a drag the four bands around the selection are dimmed (left and
// right span the full height, above and below span the selection width, so
// they never overlap) and a ring is drawn just outside the selection edge.
// Pixels inside the selection keep their original values.
func Render(dst *image.RGBA, fb *screenshot.FrameBuffer, drag DragState, style Style, clip image.Rectangle) {
	clip = clip.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}
	fb.CopyTo(dst, clip)

	dim := image.NewUniform(style.Dim)
	if !drag.Dragging {
		xdraw.Draw(dst, clip, dim, image.Point{}, xdraw.Over)
		return
	}

	b := dst.Bounds()
	sel := drag.Selection().Rect()
	bands := [...]image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, sel.Min.X, b.Max.Y),     // left of
		image.Rect(sel.Max.X, b.Min.Y, b.Max.X, b.Max.Y),     // right of
		image.Rect(sel.Min.X, b.Min.Y, sel.Max.X, sel.Min.Y), // above
		image.Rect(sel.Min.X, sel.Max.Y, sel.Max.X, b.Max.Y), // below
	}
	for _, band := range bands {
		if r := band.Intersect(clip); !r.Empty() {
			xdraw.Draw(dst, r, dim, image.Point{}, xdraw.Over)
		}
	}

	highlight := image.NewUniform(style.Highlight)
	for _, edge := range ring(sel) {
		if r := edge.Intersect(clip); !r.Empty() {
			xdraw.Draw(dst, r, highlight, image.Point{}, xdraw.Src)
		}
	}
}

// ring returns the four 1px strips surrounding sel.
func ring(sel image.Rectangle) [4]image.Rectangle {
	x0, y0, x1, y1 := sel.Min.X-1, sel.Min.Y-1, sel.Max.X+1, sel.Max.Y+1
	return [4]image.Rectangle{
		image.Rect(x0, y0, x1, sel.Min.Y),
		image.Rect(x0, sel.Max.Y, x1, y1),
		image.Rect(x0, sel.Min.Y, sel.Min.X, sel.Max.Y),
		image.Rect(sel.Max.X, sel.Min.Y, x1, sel.Max.Y),
	}
}
