package bluez

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/blueland/blueland/internal/device"
)

// Logger defines the logging interface used by the Client.
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

// Client wraps a system D-Bus connection for BlueZ operations.
//
// It is the single gateway every other component uses for object, method,
// signal and property access to the hardware-control stack. All methods are
// safe for concurrent use; godbus serialises the underlying socket writes.
type Client struct {
	conn        *dbus.Conn
	adapterPath dbus.ObjectPath
	logger      Logger
}

// Connect opens the system bus and verifies that BlueZ is present on it.
//
// Parameters:
//   - adapter: local adapter name, e.g. "hci0"
func Connect(adapter string) (*Client, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// Quick check that BlueZ owns its name before anything else depends on it.
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("listing bus names: %w", err)
	}
	found := false
	for _, n := range names {
		if n == BusName {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotPresent
	}

	return &Client{
		conn:        conn,
		adapterPath: dbus.ObjectPath(AdapterRoot + adapter),
		logger:      noopLogger{},
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Close releases the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Conn exposes the underlying connection for exporting agent objects.
func (c *Client) Conn() *dbus.Conn {
	return c.conn
}

// AdapterPath returns the object path of the configured local adapter.
func (c *Client) AdapterPath() dbus.ObjectPath {
	return c.adapterPath
}

// --- property helpers ---

// GetProperty reads a single property from an object.
func (c *Client) GetProperty(path dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	err := c.conn.Object(BusName, path).Call(propertiesInterface+".Get", 0, iface, prop).Store(&v)
	return v, err
}

// SetProperty writes a single property on an object.
func (c *Client) SetProperty(path dbus.ObjectPath, iface, prop string, value any) error {
	return c.conn.Object(BusName, path).Call(propertiesInterface+".Set", 0, iface, prop, dbus.MakeVariant(value)).Err
}

// GetBool reads a boolean property.
func (c *Client) GetBool(path dbus.ObjectPath, iface, prop string) (bool, error) {
	v, err := c.GetProperty(path, iface, prop)
	if err != nil {
		return false, err
	}
	b, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property %s is not a bool", prop)
	}
	return b, nil
}

// --- method calls ---

// Call invokes a method on an object. The method name is fully qualified,
// e.g. "org.bluez.Device1.Connect".
func (c *Client) Call(path dbus.ObjectPath, method string, args ...any) error {
	return c.conn.Object(BusName, path).Call(method, 0, args...).Err
}

// CallWithContext is Call bounded by a context. Pairing and connecting can
// block for the remote device's whole timeout, so callers that hold a
// context should use this form.
func (c *Client) CallWithContext(ctx context.Context, path dbus.ObjectPath, method string, args ...any) error {
	return c.conn.Object(BusName, path).CallWithContext(ctx, method, 0, args...).Err
}

// --- adapter operations ---

// StartDiscovery puts the adapter into active-scan mode.
func (c *Client) StartDiscovery() error {
	return c.Call(c.adapterPath, AdapterInterface+".StartDiscovery")
}

// StopDiscovery ends an active scan.
func (c *Client) StopDiscovery() error {
	return c.Call(c.adapterPath, AdapterInterface+".StopDiscovery")
}

// RemoveDevice removes a device and its pairing information. Removal is an
// adapter-level operation: the call targets the adapter, not the device.
func (c *Client) RemoveDevice(devicePath dbus.ObjectPath) error {
	return c.Call(c.adapterPath, AdapterInterface+".RemoveDevice", devicePath)
}

// --- object-tree enumeration ---

// ManagedObjects returns BlueZ's full object tree.
func (c *Client) ManagedObjects(ctx context.Context) (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, error) {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	err := c.conn.Object(BusName, "/").
		CallWithContext(ctx, objectManagerInterface+".GetManagedObjects", 0).
		Store(&objects)
	if err != nil {
		return nil, fmt.Errorf("getting managed objects: %w", err)
	}
	return objects, nil
}

// DeviceObjects enumerates every object exposing org.bluez.Device1.
// This is the registry's reconciliation source.
func (c *Client) DeviceObjects(ctx context.Context) ([]device.Device, error) {
	objects, err := c.ManagedObjects(ctx)
	if err != nil {
		return nil, err
	}

	var devices []device.Device
	for path, ifaces := range objects {
		props, ok := ifaces[DeviceInterface]
		if !ok {
			continue
		}
		devices = append(devices, deviceFromProperties(path, props))
	}
	return devices, nil
}

// DeviceInterfaces introspects an object and returns the names of the
// interfaces it currently exposes. A device can vanish between discovery and
// a later operation; callers use this to detect a missing Device1 interface
// without tripping a hard error.
func (c *Client) DeviceInterfaces(path dbus.ObjectPath) ([]string, error) {
	node, err := introspect.Call(c.conn.Object(BusName, path))
	if err != nil {
		return nil, fmt.Errorf("introspecting %s: %w", path, err)
	}
	names := make([]string, 0, len(node.Interfaces))
	for _, iface := range node.Interfaces {
		names = append(names, iface.Name)
	}
	return names, nil
}

// --- agent registration ---

// RegisterAgent registers an already-exported pairing agent with BlueZ and
// makes it the default agent for incoming requests.
func (c *Client) RegisterAgent(path dbus.ObjectPath, capability string) error {
	manager := c.conn.Object(BusName, RootPath)
	if err := manager.Call(AgentManagerInterface+".RegisterAgent", 0, path, capability).Err; err != nil {
		return fmt.Errorf("registering agent: %w", err)
	}
	if err := manager.Call(AgentManagerInterface+".RequestDefaultAgent", 0, path).Err; err != nil {
		return fmt.Errorf("requesting default agent: %w", err)
	}
	c.logger.Info("pairing agent registered", "path", string(path), "capability", capability)
	return nil
}

// deviceFromProperties builds a device record from Device1 properties.
// Missing names are left empty; the registry falls back to the address.
func deviceFromProperties(path dbus.ObjectPath, props map[string]dbus.Variant) device.Device {
	d := device.Device{
		Address: variantString(props, "Address"),
		Name:    variantString(props, "Name"),
		Path:    path,
	}
	if v, ok := props["RSSI"]; ok {
		if rssi, ok := v.Value().(int16); ok {
			d.RSSI = &rssi
		}
	}
	return d
}

// variantString extracts a string property, or "" when absent or not a string.
func variantString(props map[string]dbus.Variant, key string) string {
	v, ok := props[key]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}
