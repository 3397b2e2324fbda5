package control

import (
	"context"
	"fmt"
	"slices"

	"github.com/godbus/dbus/v5"

	"github.com/blueland/blueland/internal/bluez"
	"github.com/blueland/blueland/internal/device"
)

// Logger defines the logging interface used by the Controller.
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

// Bus is the slice of the bluetooth bus client the controller needs.
type Bus interface {
	DeviceInterfaces(path dbus.ObjectPath) ([]string, error)
	GetProperty(path dbus.ObjectPath, iface, prop string) (dbus.Variant, error)
	GetBool(path dbus.ObjectPath, iface, prop string) (bool, error)
	SetProperty(path dbus.ObjectPath, iface, prop string, value any) error
	CallWithContext(ctx context.Context, path dbus.ObjectPath, method string, args ...any) error
	RemoveDevice(devicePath dbus.ObjectPath) error
}

// Store resolves MAC addresses to cached devices.
type Store interface {
	LookupByAddress(address string) (device.Device, bool)
}

// Controller performs device lifecycle operations against the bus.
type Controller struct {
	bus    Bus
	store  Store
	logger Logger
}

// NewController creates a controller over the given bus and device store.
func NewController(bus Bus, store Store) *Controller {
	return &Controller{
		bus:    bus,
		store:  store,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// PairAndConnect pairs with a device if needed, marks it trusted and
// connects to it.
//
// Both steps are idempotent: an already paired device is not re-paired and
// an already connected device is not re-connected. A device whose bus
// object has lost its Device1 interface gets a soft "not available" status
// rather than an error, since that state usually clears on the next scan.
func (c *Controller) PairAndConnect(ctx context.Context, mac string) (string, error) {
	d, ok := c.store.LookupByAddress(mac)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDevice, mac)
	}

	ifaces, err := c.bus.DeviceInterfaces(d.Path)
	if err != nil {
		c.logger.Warn("device object not introspectable", "device", d.Display(), "error", err)
		return fmt.Sprintf("%s is not available right now.", d.Name), nil
	}
	if !slices.Contains(ifaces, bluez.DeviceInterface) {
		c.logger.Warn("device object lost its device interface", "device", d.Display())
		return fmt.Sprintf("%s is not available right now.", d.Name), nil
	}

	paired, err := c.bus.GetBool(d.Path, bluez.DeviceInterface, "Paired")
	if err != nil {
		return "", fmt.Errorf("reading paired state of %s: %w", d.Name, err)
	}

	if paired {
		c.logger.Info("already paired, skipping", "device", d.Display())
	} else {
		if err := c.bus.CallWithContext(ctx, d.Path, bluez.DeviceInterface+".Pair"); err != nil {
			return "", fmt.Errorf("pairing with %s: %w", d.Name, err)
		}
		if err := c.bus.SetProperty(d.Path, bluez.DeviceInterface, "Trusted", true); err != nil {
			return "", fmt.Errorf("trusting %s: %w", d.Name, err)
		}
		c.logger.Info("paired and trusted", "device", d.Display())
	}

	connected, err := c.bus.GetBool(d.Path, bluez.DeviceInterface, "Connected")
	if err != nil {
		// Unreadable state is treated as disconnected; Connect on a
		// connected device is harmless.
		connected = false
	}
	if !connected {
		if err := c.bus.CallWithContext(ctx, d.Path, bluez.DeviceInterface+".Connect"); err != nil {
			return "", fmt.Errorf("connecting to %s: %w", d.Name, err)
		}
	}

	c.logger.Info("device connected", "device", d.Display())
	return fmt.Sprintf("Connected to %s", d.Name), nil
}

// Disconnect drops the connection to a device. Failures come back as a
// status line, not an error; the device stays paired either way.
func (c *Controller) Disconnect(ctx context.Context, mac string) (string, error) {
	d, ok := c.store.LookupByAddress(mac)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDevice, mac)
	}

	if err := c.bus.CallWithContext(ctx, d.Path, bluez.DeviceInterface+".Disconnect"); err != nil {
		c.logger.Warn("disconnect failed", "device", d.Display(), "error", err)
		return fmt.Sprintf("Failed to disconnect %s: %v", d.Name, err), nil
	}
	c.logger.Info("device disconnected", "device", d.Display())
	return fmt.Sprintf("Device %s disconnected.", d.Name), nil
}

// Remove unpairs a device and discards its link keys through the adapter.
// Like Disconnect, failure is a status line rather than an error.
func (c *Controller) Remove(mac string) (string, error) {
	d, ok := c.store.LookupByAddress(mac)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDevice, mac)
	}

	if err := c.bus.RemoveDevice(d.Path); err != nil {
		c.logger.Warn("remove failed", "device", d.Display(), "error", err)
		return fmt.Sprintf("Failed to remove %s: %v", d.Name, err), nil
	}
	c.logger.Info("device removed", "device", d.Display())
	return fmt.Sprintf("Device %s removed from known devices.", d.Name), nil
}

// Snapshot reads the reportable properties of a device one by one.
//
// The result is partial on purpose: a property the device does not carry
// right now, such as RSSI outside a scan, is skipped silently instead of
// failing the whole read.
func (c *Controller) Snapshot(mac string) (map[string]dbus.Variant, error) {
	d, ok := c.store.LookupByAddress(mac)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, mac)
	}

	state := make(map[string]dbus.Variant, len(bluez.SnapshotProperties))
	for _, prop := range bluez.SnapshotProperties {
		v, err := c.bus.GetProperty(d.Path, bluez.DeviceInterface, prop)
		if err != nil {
			c.logger.Debug("property unavailable", "device", d.Display(), "property", prop)
			continue
		}
		state[prop] = v
	}
	return state, nil
}
