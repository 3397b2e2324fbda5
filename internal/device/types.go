package device

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Device is one remote Bluetooth device tracked by the registry.
//
// The address is the natural key; the object path is an opaque handle into
// BlueZ's object tree and may change when a device is rediscovered.
type Device struct {
	// Address is the MAC address as delivered by BlueZ (usually upper-case).
	Address string

	// Name is the display name. Falls back to the address when the device
	// has not yet resolved a name.
	Name string

	// Path is the BlueZ object path, e.g. /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF.
	Path dbus.ObjectPath

	// RSSI is the signal strength observed at ingestion time, if any.
	// Only signal-derived observations of nearby devices carry one.
	RSSI *int16
}

// Display returns the human-readable "Name (Address)" form used by frontends.
func (d Device) Display() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Address)
}
