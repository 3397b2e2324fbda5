package bluez

import "errors"

// Domain errors for the bluez package.
// Check with errors.Is() in calling code.
var (
	// ErrNotPresent is returned when org.bluez does not own a name on the
	// system bus, i.e. bluetoothd is not running.
	ErrNotPresent = errors.New("bluez: org.bluez not found on system bus (is bluetooth.service running?)")

	// ErrConnectionFailed is returned when the system bus connection fails.
	ErrConnectionFailed = errors.New("bluez: system bus connection failed")
)
