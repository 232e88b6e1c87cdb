//go:build windows

package hotkey

// Windows virtual-key codes as reported by the low-level keyboard hook.
var (
	rawCtrl  = []uint16{162, 163} // VK_LCONTROL, VK_RCONTROL
	rawAlt   = []uint16{164, 165} // VK_LMENU, VK_RMENU
	rawShift = []uint16{160, 161} // VK_LSHIFT, VK_RSHIFT
	rawSuper = []uint16{91, 92}   // VK_LWIN, VK_RWIN
)

const (
	rawEscape uint16 = 27  // VK_ESCAPE
	rawDigit0 uint16 = 48  // '0'
	rawF1     uint16 = 112 // VK_F1
)

// letterRawcodes returns the code for the i-th letter key. Virtual-key
// codes for letters are the uppercase ASCII values.
func letterRawcodes(i uint16) []uint16 {
	return []uint16{'A' + i}
}
