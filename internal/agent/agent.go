package agent

import (
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"

	"github.com/blueland/blueland/internal/device"
)

// Logger defines the logging interface used by the agent.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Resolver turns a bus object path back into a cached device so prompts can
// name the device instead of showing a raw path.
type Resolver interface {
	LookupByPath(path dbus.ObjectPath) (device.Device, bool)
}

// Agent implements the org.bluez.Agent1 interface.
//
// Every exported method is a bus handler invoked by bluetoothd; keep any
// other behavior on package functions so exporting the struct does not leak
// extra methods onto the bus.
type Agent struct {
	resolver Resolver
	prompter Prompter
	logger   Logger
}

// New creates a pairing agent. A nil logger disables logging.
func New(resolver Resolver, prompter Prompter, logger Logger) *Agent {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Agent{resolver: resolver, prompter: prompter, logger: logger}
}

// Export publishes the agent's handlers at path under the given interface
// name. Registration with the agent manager is a separate step.
func Export(conn *dbus.Conn, a *Agent, path dbus.ObjectPath, iface string) error {
	if err := conn.Export(a, path, iface); err != nil {
		return fmt.Errorf("exporting pairing agent: %w", err)
	}
	return nil
}

// Release is called by bluetoothd when the agent is unregistered.
func (a *Agent) Release() *dbus.Error {
	a.logger.Info("pairing agent released")
	return nil
}

// RequestConfirmation asks the user to confirm that the passkey shown on
// the remote device matches.
func (a *Agent) RequestConfirmation(devicePath dbus.ObjectPath, passkey uint32) *dbus.Error {
	text := fmt.Sprintf("Confirm pairing with passkey: %d", passkey)
	if d, ok := a.resolver.LookupByPath(devicePath); ok {
		text = fmt.Sprintf("Confirm pairing with %s\nPasskey: %06d", d.Display(), passkey)
	}

	if !a.prompter.Confirm(text) {
		a.logger.Info("pairing rejected by user", "device", devicePath)
		return rejected(ErrUserRejected)
	}
	a.logger.Info("pairing confirmed", "device", devicePath, "passkey", passkey)
	return nil
}

// RequestAuthorization asks the user to allow an incoming pairing that
// carries no passkey of its own.
func (a *Agent) RequestAuthorization(devicePath dbus.ObjectPath) *dbus.Error {
	text := fmt.Sprintf("Authorize pairing with device at %s?", devicePath)
	if d, ok := a.resolver.LookupByPath(devicePath); ok {
		text = fmt.Sprintf("Authorize pairing with %s?", d.Display())
	}

	if !a.prompter.Confirm(text) {
		a.logger.Info("authorization rejected by user", "device", devicePath)
		return rejected(ErrUserRejected)
	}
	return nil
}

// RequestPinCode collects a legacy PIN from the user.
func (a *Agent) RequestPinCode(devicePath dbus.ObjectPath) (string, *dbus.Error) {
	pin, err := a.prompter.Ask("Enter PIN")
	if err != nil {
		a.logger.Info("pin entry abandoned", "device", devicePath)
		return "", rejected(ErrUserRejected)
	}
	return pin, nil
}

// RequestPasskey collects a numeric passkey from the user.
func (a *Agent) RequestPasskey(devicePath dbus.ObjectPath) (uint32, *dbus.Error) {
	answer, err := a.prompter.Ask("Enter Passkey")
	if err != nil {
		a.logger.Info("passkey entry abandoned", "device", devicePath)
		return 0, rejected(ErrUserRejected)
	}

	// Passkeys are at most six decimal digits.
	passkey, err := strconv.ParseUint(answer, 10, 32)
	if err != nil || passkey > 999999 {
		a.logger.Warn("passkey entry not numeric", "device", devicePath, "input", answer)
		return 0, rejected(ErrInvalidInput)
	}
	return uint32(passkey), nil
}

// AuthorizeService asks the user to allow a paired device to use one of the
// host's bluetooth services, named through the profile UUID table.
func (a *Agent) AuthorizeService(devicePath dbus.ObjectPath, uuid string) *dbus.Error {
	service := ServiceName(uuid)

	text := fmt.Sprintf("Allow device to use:\n%s", service)
	if d, ok := a.resolver.LookupByPath(devicePath); ok {
		text = fmt.Sprintf("Allow %s to use:\n%s", d.Display(), service)
	}

	if !a.prompter.Confirm(text) {
		a.logger.Info("service authorization denied", "device", devicePath, "uuid", uuid)
		return rejected(ErrServiceDenied)
	}
	a.logger.Info("service authorized", "device", devicePath, "service", service)
	return nil
}

// Cancel is called by bluetoothd when an outstanding request is aborted.
func (a *Agent) Cancel() *dbus.Error {
	a.logger.Info("pairing cancelled")
	return nil
}
