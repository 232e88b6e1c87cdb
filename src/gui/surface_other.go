//go:build !windows && !linux

package gui

import "winshifts/src/overlay"

// NewSurface reports ErrUnsupported on this platform.
func NewSurface() (overlay.Surface, error) {
	return nil, ErrUnsupported
}
