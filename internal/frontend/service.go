package frontend

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/blueland/blueland/internal/control"
	"github.com/blueland/blueland/internal/device"
)

// Bus identity of the frontend service.
const (
	BusName    = "org.blueland.Frontend"
	ObjectPath = dbus.ObjectPath("/org/blueland/Frontend")
	Interface  = "org.blueland.Frontend"
)

// Logger defines the logging interface used by the Service.
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

// Registry is the slice of the device registry the frontend needs.
type Registry interface {
	Reconcile(ctx context.Context) error
	All() []device.Device
	Count() int
}

// Scanner runs one bounded discovery window.
type Scanner interface {
	Run(ctx context.Context) error
}

// Controller performs lifecycle operations on cached devices.
type Controller interface {
	PairAndConnect(ctx context.Context, mac string) (string, error)
	Disconnect(ctx context.Context, mac string) (string, error)
	Remove(mac string) (string, error)
	Snapshot(mac string) (map[string]dbus.Variant, error)
}

// FileSender pushes files to cached devices.
type FileSender interface {
	Send(ctx context.Context, mac, filePath string) (string, error)
}

// Service implements the org.blueland.Frontend interface.
//
// Every exported method is a bus handler; anything else lives on package
// functions or unexported methods. Handlers run on godbus's dispatch
// goroutines, so everything the service touches must be concurrency-safe.
type Service struct {
	ctx        context.Context
	registry   Registry
	scanner    Scanner
	controller Controller
	sender     FileSender
	socketPath string
	logger     Logger
}

// Options collects the service's collaborators. Sender may be nil when
// file transfer is disabled, and a nil Logger disables logging.
type Options struct {
	Registry   Registry
	Scanner    Scanner
	Controller Controller
	Sender     FileSender
	SocketPath string
	Logger     Logger
}

// NewService creates the frontend service. ctx is the daemon's root
// context; handlers inherit it so a shutdown aborts in-flight bus calls.
func NewService(ctx context.Context, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Service{
		ctx:        ctx,
		registry:   opts.Registry,
		scanner:    opts.Scanner,
		controller: opts.Controller,
		sender:     opts.Sender,
		socketPath: opts.SocketPath,
		logger:     logger,
	}
}

// Export claims the well-known bus name and publishes the service.
func Export(conn *dbus.Conn, s *Service) error {
	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%s is already taken, is another instance running?", BusName)
	}
	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		return fmt.Errorf("exporting frontend: %w", err)
	}
	return nil
}

// DiscoverDevices reconciles the registry against the bluetooth service,
// runs one scan window and returns one display line per known device plus
// a pointer at the live event socket.
//
// Already-known devices surface immediately through the reconcile, live
// sightings stream onto the socket while the window runs, and the closing
// reconcile folds the window's findings into the returned list.
func (s *Service) DiscoverDevices() ([]string, *dbus.Error) {
	if err := s.registry.Reconcile(s.ctx); err != nil {
		// Known devices just surface a window later; keep scanning.
		s.logger.Warn("pre-scan reconcile failed", "error", err)
	}

	if err := s.scanner.Run(s.ctx); err != nil {
		s.logger.Error("discovery window failed", "error", err)
		return nil, dbus.MakeFailedError(err)
	}

	if err := s.registry.Reconcile(s.ctx); err != nil {
		s.logger.Warn("post-scan reconcile failed", "error", err)
	}

	devices := s.registry.All()
	result := make([]string, 0, len(devices)+1)
	for _, d := range devices {
		result = append(result, d.Display())
	}
	result = append(result, fmt.Sprintf("Live devices feed is available via unix socket at %s", s.socketPath))

	s.logger.Info("discovery finished", "devices", len(devices))
	return result, nil
}

// DeviceState returns a live property snapshot for one device. An unknown
// MAC yields an empty map, mirroring an absent device's lack of state.
func (s *Service) DeviceState(mac string) (map[string]dbus.Variant, *dbus.Error) {
	state, err := s.controller.Snapshot(mac)
	if err != nil {
		if errors.Is(err, control.ErrUnknownDevice) {
			return map[string]dbus.Variant{}, nil
		}
		return nil, dbus.MakeFailedError(err)
	}
	return state, nil
}

// PairConnDevice pairs with and connects to one device. Unlike the softer
// operations below, an unknown MAC here is a hard error: pairing with a
// device nobody has seen cannot mean anything.
func (s *Service) PairConnDevice(mac string) (string, *dbus.Error) {
	if dberr := s.requireCache(); dberr != nil {
		return "", dberr
	}

	status, err := s.controller.PairAndConnect(s.ctx, mac)
	if err != nil {
		if errors.Is(err, control.ErrUnknownDevice) {
			return "", dbus.MakeFailedError(fmt.Errorf("Device with MAC %s not found", mac))
		}
		return "", dbus.MakeFailedError(err)
	}
	return status, nil
}

// DisconnectDevice drops the connection to one device.
func (s *Service) DisconnectDevice(mac string) (string, *dbus.Error) {
	if dberr := s.requireCache(); dberr != nil {
		return "", dberr
	}

	status, err := s.controller.Disconnect(s.ctx, mac)
	if err != nil {
		if errors.Is(err, control.ErrUnknownDevice) {
			return fmt.Sprintf("Device %s not found", mac), nil
		}
		return "", dbus.MakeFailedError(err)
	}
	return status, nil
}

// RemoveDevice unpairs one device and forgets its link keys.
func (s *Service) RemoveDevice(mac string) (string, *dbus.Error) {
	if dberr := s.requireCache(); dberr != nil {
		return "", dberr
	}

	status, err := s.controller.Remove(mac)
	if err != nil {
		if errors.Is(err, control.ErrUnknownDevice) {
			return fmt.Sprintf("Device %s not found", mac), nil
		}
		return "", dbus.MakeFailedError(err)
	}
	return status, nil
}

// SendFiles pushes one file to one device over Object Push.
func (s *Service) SendFiles(mac, filepath string) (string, *dbus.Error) {
	if s.sender == nil {
		return "", dbus.MakeFailedError(errors.New("file transfer is disabled"))
	}
	if dberr := s.requireCache(); dberr != nil {
		return "", dberr
	}

	status, err := s.sender.Send(s.ctx, mac, filepath)
	if err != nil {
		if errors.Is(err, control.ErrUnknownDevice) {
			return fmt.Sprintf("Device %s not found", mac), nil
		}
		return "", dbus.MakeFailedError(err)
	}
	return status, nil
}

// requireCache rejects device operations before any discovery has run.
// Without a cache every MAC would be "not found", which reads like the
// device is gone when really nobody has looked yet.
func (s *Service) requireCache() *dbus.Error {
	if s.registry.Count() == 0 {
		return dbus.MakeFailedError(errors.New("No devices cached. Please run DiscoverDevices first."))
	}
	return nil
}
