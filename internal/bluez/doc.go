// Package bluez is the control-bus client for blueland.
//
// It wraps a system D-Bus connection and gives every other component a
// single gateway to BlueZ: property get/set, method calls on device and
// adapter objects, full object-tree enumeration (GetManagedObjects),
// InterfacesAdded signal ingestion, introspection, and pairing-agent
// registration.
//
// The package holds no device state of its own; the device registry caches
// what this client reports.
package bluez
