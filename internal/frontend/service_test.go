package frontend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/blueland/blueland/internal/control"
	"github.com/blueland/blueland/internal/device"
)

const headsetMAC = "AA:BB:CC:DD:EE:FF"

// mockRegistry serves fixed devices and counts reconciles.
type mockRegistry struct {
	devices      []device.Device
	reconcileErr error
	reconciles   int
}

func (m *mockRegistry) Reconcile(context.Context) error {
	m.reconciles++
	return m.reconcileErr
}

func (m *mockRegistry) All() []device.Device { return m.devices }
func (m *mockRegistry) Count() int           { return len(m.devices) }

// mockScanner records scan windows.
type mockScanner struct {
	err  error
	runs int
}

func (m *mockScanner) Run(context.Context) error {
	m.runs++
	return m.err
}

// mockController scripts lifecycle operations.
type mockController struct {
	status   string
	snapshot map[string]dbus.Variant
	err      error
}

func (m *mockController) PairAndConnect(context.Context, string) (string, error) {
	return m.status, m.err
}

func (m *mockController) Disconnect(context.Context, string) (string, error) {
	return m.status, m.err
}

func (m *mockController) Remove(string) (string, error) {
	return m.status, m.err
}

func (m *mockController) Snapshot(string) (map[string]dbus.Variant, error) {
	return m.snapshot, m.err
}

// mockSender scripts file transfers.
type mockSender struct {
	status string
	err    error
}

func (m *mockSender) Send(context.Context, string, string) (string, error) {
	return m.status, m.err
}

func cachedRegistry() *mockRegistry {
	return &mockRegistry{devices: []device.Device{
		{Address: headsetMAC, Name: "Headset", Path: "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"},
	}}
}

func newTestService(reg *mockRegistry, scanner *mockScanner, ctrl *mockController, sender FileSender) *Service {
	return NewService(context.Background(), Options{
		Registry:   reg,
		Scanner:    scanner,
		Controller: ctrl,
		Sender:     sender,
		SocketPath: "/run/user/1000/blueland/blueland.sock",
	})
}

func TestDiscoverDevices(t *testing.T) {
	t.Run("lists devices and the socket pointer", func(t *testing.T) {
		reg := cachedRegistry()
		scanner := &mockScanner{}
		s := newTestService(reg, scanner, &mockController{}, nil)

		result, dberr := s.DiscoverDevices()
		if dberr != nil {
			t.Fatalf("DiscoverDevices() error = %v", dberr)
		}
		if len(result) != 2 {
			t.Fatalf("result = %v, want device line plus socket pointer", result)
		}
		if result[0] != "Headset (AA:BB:CC:DD:EE:FF)" {
			t.Errorf("result[0] = %q", result[0])
		}
		want := "Live devices feed is available via unix socket at /run/user/1000/blueland/blueland.sock"
		if result[1] != want {
			t.Errorf("result[1] = %q, want %q", result[1], want)
		}
		if scanner.runs != 1 {
			t.Errorf("scan windows = %d, want 1", scanner.runs)
		}
		if reg.reconciles != 2 {
			t.Errorf("reconciles = %d, want one before and one after the window", reg.reconciles)
		}
	})

	t.Run("scan failure is an error", func(t *testing.T) {
		s := newTestService(cachedRegistry(), &mockScanner{err: errors.New("org.bluez.Error.InProgress")}, &mockController{}, nil)

		if _, dberr := s.DiscoverDevices(); dberr == nil {
			t.Fatal("expected a bus error")
		}
	})

	t.Run("reconcile failure does not abort the window", func(t *testing.T) {
		reg := cachedRegistry()
		reg.reconcileErr = errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
		scanner := &mockScanner{}
		s := newTestService(reg, scanner, &mockController{}, nil)

		if _, dberr := s.DiscoverDevices(); dberr != nil {
			t.Fatalf("DiscoverDevices() error = %v", dberr)
		}
		if scanner.runs != 1 {
			t.Errorf("scan windows = %d, want 1", scanner.runs)
		}
	})
}

func TestDeviceState(t *testing.T) {
	t.Run("returns the snapshot", func(t *testing.T) {
		ctrl := &mockController{snapshot: map[string]dbus.Variant{
			"Name":   dbus.MakeVariant("Headset"),
			"Paired": dbus.MakeVariant(true),
		}}
		s := newTestService(cachedRegistry(), &mockScanner{}, ctrl, nil)

		state, dberr := s.DeviceState(headsetMAC)
		if dberr != nil {
			t.Fatalf("DeviceState() error = %v", dberr)
		}
		if len(state) != 2 {
			t.Errorf("state = %v", state)
		}
	})

	t.Run("unknown mac yields an empty map", func(t *testing.T) {
		ctrl := &mockController{err: fmt.Errorf("%w: 00:00:00:00:00:00", control.ErrUnknownDevice)}
		s := newTestService(cachedRegistry(), &mockScanner{}, ctrl, nil)

		state, dberr := s.DeviceState("00:00:00:00:00:00")
		if dberr != nil {
			t.Fatalf("DeviceState() error = %v", dberr)
		}
		if len(state) != 0 {
			t.Errorf("state = %v, want empty", state)
		}
	})
}

func TestPairConnDevice(t *testing.T) {
	t.Run("relays the status", func(t *testing.T) {
		ctrl := &mockController{status: "Connected to Headset"}
		s := newTestService(cachedRegistry(), &mockScanner{}, ctrl, nil)

		status, dberr := s.PairConnDevice(headsetMAC)
		if dberr != nil {
			t.Fatalf("PairConnDevice() error = %v", dberr)
		}
		if status != "Connected to Headset" {
			t.Errorf("status = %q", status)
		}
	})

	t.Run("empty cache is rejected", func(t *testing.T) {
		s := newTestService(&mockRegistry{}, &mockScanner{}, &mockController{}, nil)

		_, dberr := s.PairConnDevice(headsetMAC)
		if dberr == nil {
			t.Fatal("expected a bus error")
		}
		if got := fmt.Sprint(dberr.Body[0]); got != "No devices cached. Please run DiscoverDevices first." {
			t.Errorf("error body = %q", got)
		}
	})

	t.Run("unknown mac is a hard error", func(t *testing.T) {
		ctrl := &mockController{err: fmt.Errorf("%w: 00:00:00:00:00:00", control.ErrUnknownDevice)}
		s := newTestService(cachedRegistry(), &mockScanner{}, ctrl, nil)

		_, dberr := s.PairConnDevice("00:00:00:00:00:00")
		if dberr == nil {
			t.Fatal("expected a bus error")
		}
		if got := fmt.Sprint(dberr.Body[0]); got != "Device with MAC 00:00:00:00:00:00 not found" {
			t.Errorf("error body = %q", got)
		}
	})

	t.Run("connect failure is a hard error", func(t *testing.T) {
		ctrl := &mockController{err: errors.New("connecting to Headset: le-connection-abort-by-local")}
		s := newTestService(cachedRegistry(), &mockScanner{}, ctrl, nil)

		if _, dberr := s.PairConnDevice(headsetMAC); dberr == nil {
			t.Fatal("expected a bus error")
		}
	})
}

func TestDisconnectDevice(t *testing.T) {
	t.Run("relays the status", func(t *testing.T) {
		ctrl := &mockController{status: "Device Headset disconnected."}
		s := newTestService(cachedRegistry(), &mockScanner{}, ctrl, nil)

		status, dberr := s.DisconnectDevice(headsetMAC)
		if dberr != nil {
			t.Fatalf("DisconnectDevice() error = %v", dberr)
		}
		if status != "Device Headset disconnected." {
			t.Errorf("status = %q", status)
		}
	})

	t.Run("unknown mac is a soft status", func(t *testing.T) {
		ctrl := &mockController{err: fmt.Errorf("%w: 00:00:00:00:00:00", control.ErrUnknownDevice)}
		s := newTestService(cachedRegistry(), &mockScanner{}, ctrl, nil)

		status, dberr := s.DisconnectDevice("00:00:00:00:00:00")
		if dberr != nil {
			t.Fatalf("DisconnectDevice() error = %v", dberr)
		}
		if status != "Device 00:00:00:00:00:00 not found" {
			t.Errorf("status = %q", status)
		}
	})

	t.Run("empty cache is rejected", func(t *testing.T) {
		s := newTestService(&mockRegistry{}, &mockScanner{}, &mockController{}, nil)
		if _, dberr := s.DisconnectDevice(headsetMAC); dberr == nil {
			t.Fatal("expected a bus error")
		}
	})
}

func TestRemoveDevice(t *testing.T) {
	t.Run("relays the status", func(t *testing.T) {
		ctrl := &mockController{status: "Device Headset removed from known devices."}
		s := newTestService(cachedRegistry(), &mockScanner{}, ctrl, nil)

		status, dberr := s.RemoveDevice(headsetMAC)
		if dberr != nil {
			t.Fatalf("RemoveDevice() error = %v", dberr)
		}
		if !strings.Contains(status, "removed") {
			t.Errorf("status = %q", status)
		}
	})

	t.Run("unknown mac is a soft status", func(t *testing.T) {
		ctrl := &mockController{err: fmt.Errorf("%w: 00:00:00:00:00:00", control.ErrUnknownDevice)}
		s := newTestService(cachedRegistry(), &mockScanner{}, ctrl, nil)

		status, dberr := s.RemoveDevice("00:00:00:00:00:00")
		if dberr != nil {
			t.Fatalf("RemoveDevice() error = %v", dberr)
		}
		if status != "Device 00:00:00:00:00:00 not found" {
			t.Errorf("status = %q", status)
		}
	})
}

func TestSendFiles(t *testing.T) {
	t.Run("relays the status", func(t *testing.T) {
		sender := &mockSender{status: "File photo.jpg sent to Headset (AA:BB:CC:DD:EE:FF)."}
		s := newTestService(cachedRegistry(), &mockScanner{}, &mockController{}, sender)

		status, dberr := s.SendFiles(headsetMAC, "/home/user/photo.jpg")
		if dberr != nil {
			t.Fatalf("SendFiles() error = %v", dberr)
		}
		if !strings.HasPrefix(status, "File photo.jpg sent") {
			t.Errorf("status = %q", status)
		}
	})

	t.Run("disabled transfer is rejected", func(t *testing.T) {
		s := newTestService(cachedRegistry(), &mockScanner{}, &mockController{}, nil)
		if _, dberr := s.SendFiles(headsetMAC, "/tmp/f"); dberr == nil {
			t.Fatal("expected a bus error")
		}
	})

	t.Run("unknown mac is a soft status", func(t *testing.T) {
		sender := &mockSender{err: fmt.Errorf("%w: 00:00:00:00:00:00", control.ErrUnknownDevice)}
		s := newTestService(cachedRegistry(), &mockScanner{}, &mockController{}, sender)

		status, dberr := s.SendFiles("00:00:00:00:00:00", "/tmp/f")
		if dberr != nil {
			t.Fatalf("SendFiles() error = %v", dberr)
		}
		if status != "Device 00:00:00:00:00:00 not found" {
			t.Errorf("status = %q", status)
		}
	})
}
