package bluez

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/blueland/blueland/internal/device"
)

// signalBufferSize bounds the raw signal channel. BlueZ bursts
// InterfacesAdded signals during a discovery window.
const signalBufferSize = 32

// WatchDeviceAdded subscribes to ObjectManager.InterfacesAdded and invokes
// handle for every new object that exposes org.bluez.Device1. The watch loop
// runs in its own goroutine until ctx is cancelled.
//
// The handler runs on the watch goroutine; it must not block for long or
// signal delivery stalls (godbus drops signals when the channel is full).
func (c *Client) WatchDeviceAdded(ctx context.Context, handle func(device.Device)) error {
	if err := c.conn.AddMatchSignal(
		dbus.WithMatchInterface(objectManagerInterface),
		dbus.WithMatchMember("InterfacesAdded"),
		dbus.WithMatchSender(BusName),
	); err != nil {
		return fmt.Errorf("adding signal match: %w", err)
	}

	ch := make(chan *dbus.Signal, signalBufferSize)
	c.conn.Signal(ch)

	go func() {
		defer c.conn.RemoveSignal(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-ch:
				if !ok {
					return
				}
				d, ok := ParseInterfacesAdded(sig)
				if !ok {
					continue
				}
				c.logger.Debug("device signal received",
					"address", d.Address,
					"path", string(d.Path),
				)
				handle(d)
			}
		}
	}()

	return nil
}

// ParseInterfacesAdded extracts a device record from an InterfacesAdded
// signal. The second return is false when the signal is not an
// InterfacesAdded for a Device1 object.
//
// Signal body: [object_path, map[interface]map[property]variant]
func ParseInterfacesAdded(sig *dbus.Signal) (device.Device, bool) {
	if sig == nil || sig.Name != interfacesAddedSignal || len(sig.Body) < 2 {
		return device.Device{}, false
	}

	path, ok := sig.Body[0].(dbus.ObjectPath)
	if !ok {
		return device.Device{}, false
	}
	ifaces, ok := sig.Body[1].(map[string]map[string]dbus.Variant)
	if !ok {
		return device.Device{}, false
	}
	props, ok := ifaces[DeviceInterface]
	if !ok {
		return device.Device{}, false
	}

	return deviceFromProperties(path, props), true
}
