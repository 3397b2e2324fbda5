package obex

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/blueland/blueland/internal/control"
	"github.com/blueland/blueland/internal/device"
)

const (
	phoneMAC    = "AA:BB:CC:DD:EE:FF"
	sessionPath = dbus.ObjectPath("/org/bluez/obex/client/session0")
)

// mockSessionClient scripts obexd interactions and records teardown.
type mockSessionClient struct {
	createErr error
	sendErr   error
	removed   []dbus.ObjectPath
}

func (m *mockSessionClient) CreateSession(_ context.Context, _ string) (dbus.ObjectPath, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	return sessionPath, nil
}

func (m *mockSessionClient) SendFile(_ context.Context, _ dbus.ObjectPath, _ string) (dbus.ObjectPath, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	return sessionPath + "/transfer0", nil
}

func (m *mockSessionClient) RemoveSession(session dbus.ObjectPath) error {
	m.removed = append(m.removed, session)
	return nil
}

// mockStore serves a single phone device.
type mockStore struct{}

func (mockStore) LookupByAddress(address string) (device.Device, bool) {
	if !strings.EqualFold(address, phoneMAC) {
		return device.Device{}, false
	}
	return device.Device{
		Address: phoneMAC,
		Name:    "Phone",
		Path:    "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF",
	}, true
}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("sends and tears the session down", func(t *testing.T) {
		client := &mockSessionClient{}
		s := NewSender(client, mockStore{})

		status, err := s.Send(ctx, phoneMAC, "/home/user/photo.jpg")
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		want := "File photo.jpg sent to Phone (AA:BB:CC:DD:EE:FF)."
		if status != want {
			t.Errorf("status = %q, want %q", status, want)
		}
		if len(client.removed) != 1 || client.removed[0] != sessionPath {
			t.Errorf("removed sessions = %v", client.removed)
		}
	})

	t.Run("session failure becomes a status line", func(t *testing.T) {
		client := &mockSessionClient{createErr: errors.New("org.bluez.obex.Error.Failed")}
		s := NewSender(client, mockStore{})

		status, err := s.Send(ctx, phoneMAC, "/home/user/photo.jpg")
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if !strings.HasPrefix(status, "Failed to create OBEX session with AA:BB:CC:DD:EE:FF:") {
			t.Errorf("status = %q", status)
		}
		if len(client.removed) != 0 {
			t.Errorf("removed a session that never opened: %v", client.removed)
		}
	})

	t.Run("transfer failure still tears the session down", func(t *testing.T) {
		client := &mockSessionClient{sendErr: errors.New("org.bluez.obex.Error.Rejected")}
		s := NewSender(client, mockStore{})

		status, err := s.Send(ctx, phoneMAC, "/home/user/photo.jpg")
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if !strings.HasPrefix(status, "Failed to send file to Phone:") {
			t.Errorf("status = %q", status)
		}
		if len(client.removed) != 1 {
			t.Errorf("removed sessions = %v, want 1", client.removed)
		}
	})

	t.Run("unknown mac", func(t *testing.T) {
		s := NewSender(&mockSessionClient{}, mockStore{})
		_, err := s.Send(ctx, "00:00:00:00:00:00", "/tmp/f")
		if !errors.Is(err, control.ErrUnknownDevice) {
			t.Fatalf("error = %v, want ErrUnknownDevice", err)
		}
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := retry(ctx, 5, time.Millisecond, noopLogger{}, func() error {
			calls++
			if calls < 3 {
				return errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("retry() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		calls := 0
		err := retry(ctx, 3, time.Millisecond, noopLogger{}, func() error {
			calls++
			return errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
		})
		if !errors.Is(err, ErrRegistrationFailed) {
			t.Fatalf("error = %v, want ErrRegistrationFailed", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		calls := 0
		err := retry(cancelled, 5, time.Hour, noopLogger{}, func() error {
			calls++
			return errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}
