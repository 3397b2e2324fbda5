package obex

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/godbus/dbus/v5"

	"github.com/blueland/blueland/internal/control"
	"github.com/blueland/blueland/internal/device"
)

// SessionClient is the slice of the obexd client the sender needs.
type SessionClient interface {
	CreateSession(ctx context.Context, address string) (dbus.ObjectPath, error)
	SendFile(ctx context.Context, session dbus.ObjectPath, filePath string) (dbus.ObjectPath, error)
	RemoveSession(session dbus.ObjectPath) error
}

// Store resolves MAC addresses to cached devices.
type Store interface {
	LookupByAddress(address string) (device.Device, bool)
}

// Sender pushes files to remote devices over Object Push sessions.
type Sender struct {
	client SessionClient
	store  Store
	logger Logger
}

// NewSender creates a sender over the given obexd client and device store.
func NewSender(client SessionClient, store Store) *Sender {
	return &Sender{
		client: client,
		store:  store,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the sender.
func (s *Sender) SetLogger(logger Logger) {
	s.logger = logger
}

// Send pushes one file to the device with the given MAC.
//
// Session and transfer failures come back as status lines; the single hard
// error is an unknown MAC. The session is torn down again whether or not
// the transfer succeeded.
func (s *Sender) Send(ctx context.Context, mac, filePath string) (string, error) {
	d, ok := s.store.LookupByAddress(mac)
	if !ok {
		return "", fmt.Errorf("%w: %s", control.ErrUnknownDevice, mac)
	}

	session, err := s.client.CreateSession(ctx, d.Address)
	if err != nil {
		s.logger.Warn("obex session failed", "device", d.Display(), "error", err)
		return fmt.Sprintf("Failed to create OBEX session with %s: %v", d.Address, err), nil
	}
	defer func() {
		if err := s.client.RemoveSession(session); err != nil {
			s.logger.Warn("removing obex session failed", "session", session, "error", err)
		}
	}()

	if _, err := s.client.SendFile(ctx, session, filePath); err != nil {
		s.logger.Warn("file transfer failed", "device", d.Display(), "file", filePath, "error", err)
		return fmt.Sprintf("Failed to send file to %s: %v", d.Name, err), nil
	}

	s.logger.Info("file sent", "device", d.Display(), "file", filePath)
	return fmt.Sprintf("File %s sent to %s (%s).", filepath.Base(filePath), d.Name, d.Address), nil
}
