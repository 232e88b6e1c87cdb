//go:build !windows

package tray

import "log"

// showMessageBox logs the message; there is no portable modal dialog.
func showMessageBox(title, message string, isError bool) {
	if isError {
		log.Printf("ERROR: %s: %s", title, message)
		return
	}
	log.Printf("%s: %s", title, message)
}
