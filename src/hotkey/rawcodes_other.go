//go:build !windows

package hotkey

// X11 keysyms, which is what the hook reports as rawcode under X.
var (
	rawCtrl  = []uint16{0xffe3, 0xffe4} // Control_L, Control_R
	rawAlt   = []uint16{0xffe9, 0xffea} // Alt_L, Alt_R
	rawShift = []uint16{0xffe1, 0xffe2} // Shift_L, Shift_R
	rawSuper = []uint16{0xffeb, 0xffec} // Super_L, Super_R
)

const (
	rawEscape uint16 = 0xff1b
	rawDigit0 uint16 = 0x30 // XK_0
	rawF1     uint16 = 0xffbe
)

// letterRawcodes returns both cases for the i-th letter; with Shift held the
// hook reports the shifted keysym.
func letterRawcodes(i uint16) []uint16 {
	return []uint16{'a' + i, 'A' + i}
}
