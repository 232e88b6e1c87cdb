package overlay

import (
	"image"

	"winshifts/src/screenshot"
)

// DragState holds the raw, unordered endpoints of the current drag.
type DragState struct {
	Dragging bool
	Start    image.Point
	End      image.Point
}

// Selection returns the normalized rectangle between the drag endpoints.
func (d DragState) Selection() screenshot.Region {
	return DragCoordsToRectangle(d.Start, d.End)
}

// DragCoordsToRectangle normalizes two drag endpoints into a rectangle whose
// width and height are never negative. The result does not depend on which
// endpoint is the start.
func DragCoordsToRectangle(start, end image.Point) screenshot.Region {
	left := min(start.X, end.X)
	top := min(start.Y, end.Y)
	return screenshot.Region{
		X:      left,
		Y:      top,
		Width:  max(start.X, end.X) - left,
		Height: max(start.Y, end.Y) - top,
	}
}

// Expanded grows r by one pixel on every side so that it covers the
// highlight ring drawn around the selection.
func Expanded(r screenshot.Region) image.Rectangle {
	return image.Rect(r.X-1, r.Y-1, r.X+r.Width+1, r.Y+r.Height+1)
}

// DamageRegion is the area to repaint when the selection changes from old
// to cur: the bounding box of both expanded rectangles.
func DamageRegion(old, cur screenshot.Region) image.Rectangle {
	return Expanded(old).Union(Expanded(cur))
}
