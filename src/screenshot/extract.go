package screenshot

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidRegion is returned by Extract for empty or out-of-bounds regions.
var ErrInvalidRegion = errors.New("invalid region")

// Extract copies region out of fb into a new, independently owned buffer.
// The result's Origin is the region's position on the virtual desktop.
func Extract(fb *FrameBuffer, region Region) (*FrameBuffer, error) {
	if fb.Released() {
		return nil, fmt.Errorf("%w: source buffer released", ErrInvalidRegion)
	}
	if region.Empty() {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidRegion, region.Width, region.Height)
	}
	r := region.Rect()
	if !r.In(fb.Bounds()) {
		return nil, fmt.Errorf("%w: %v outside %v", ErrInvalidRegion, r, fb.Bounds())
	}

	out := NewFrameBuffer(fb.Origin.Add(image.Pt(region.X, region.Y)), region.Width, region.Height)
	rowBytes := region.Width * BytesPerPixel
	for y := 0; y < region.Height; y++ {
		srcStart := (region.Y+y)*fb.Stride + region.X*BytesPerPixel
		dstStart := y * out.Stride
		copy(out.Pix[dstStart:dstStart+rowBytes], fb.Pix[srcStart:srcStart+rowBytes])
	}
	return out, nil
}
