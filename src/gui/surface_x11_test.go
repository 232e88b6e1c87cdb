//go:build linux

package gui

import (
	"testing"

	"github.com/jezek/xgb/xproto"
)

func TestFindKeycode(t *testing.T) {
	// Three keysyms per keycode starting at keycode 8.
	syms := []xproto.Keysym{
		0x61, 0x41, 0, // 8: a A
		0xff0d, 0, 0, // 9: Return
		0xffe1, 0xff1b, 0, // 10: Shift_L with Escape in a later column
		0xff1b, 0, 0, // 11: Escape
	}
	tests := []struct {
		name    string
		perCode byte
		want    xproto.Keysym
		code    xproto.Keycode
	}{
		{"first column", 3, 0x61, 8},
		{"later column wins by keycode order", 3, keysymEscape, 10},
		{"missing", 3, 0x1234, 0},
		{"no keysyms per keycode", 0, keysymEscape, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findKeycode(8, tt.perCode, syms, tt.want); got != tt.code {
				t.Errorf("findKeycode = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestCheckPixmapFormat(t *testing.T) {
	tests := []struct {
		name    string
		setup   xproto.SetupInfo
		wantErr bool
	}{
		{"bgrx", xproto.SetupInfo{ImageByteOrder: xproto.ImageOrderLSBFirst, PixmapFormats: []xproto.Format{{Depth: 24, BitsPerPixel: 32}}}, false},
		{"packed 24bpp", xproto.SetupInfo{ImageByteOrder: xproto.ImageOrderLSBFirst, PixmapFormats: []xproto.Format{{Depth: 24, BitsPerPixel: 24}}}, true},
		{"big endian", xproto.SetupInfo{ImageByteOrder: xproto.ImageOrderMSBFirst, PixmapFormats: []xproto.Format{{Depth: 24, BitsPerPixel: 32}}}, true},
		{"missing depth", xproto.SetupInfo{ImageByteOrder: xproto.ImageOrderLSBFirst}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPixmapFormat(&tt.setup, 24)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
