package obex

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

// Logger defines the logging interface used by this package.
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

// Client talks to obexd over the session bus.
type Client struct {
	conn   *dbus.Conn
	logger Logger
}

// NewClient wraps an established session bus connection. The connection is
// shared with the frontend; Client never closes it.
func NewClient(conn *dbus.Conn) *Client {
	return &Client{conn: conn, logger: noopLogger{}}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// CreateSession opens an Object Push session to the device at the given
// address and returns the session's object path.
func (c *Client) CreateSession(ctx context.Context, address string) (dbus.ObjectPath, error) {
	args := map[string]dbus.Variant{"Target": dbus.MakeVariant(oppTarget)}

	var session dbus.ObjectPath
	err := c.conn.Object(BusName, RootPath).
		CallWithContext(ctx, clientInterface+".CreateSession", 0, address, args).
		Store(&session)
	if err != nil {
		return "", fmt.Errorf("creating obex session with %s: %w", address, err)
	}
	c.logger.Debug("obex session created", "address", address, "session", session)
	return session, nil
}

// SendFile pushes a local file over an open session and returns the
// transfer's object path.
func (c *Client) SendFile(ctx context.Context, session dbus.ObjectPath, filePath string) (dbus.ObjectPath, error) {
	var transfer dbus.ObjectPath
	var props map[string]dbus.Variant
	err := c.conn.Object(BusName, session).
		CallWithContext(ctx, objectPushInterface+".SendFile", 0, filePath).
		Store(&transfer, &props)
	if err != nil {
		return "", fmt.Errorf("sending %s: %w", filePath, err)
	}
	return transfer, nil
}

// RemoveSession tears an Object Push session down again.
func (c *Client) RemoveSession(session dbus.ObjectPath) error {
	return c.conn.Object(BusName, RootPath).
		Call(clientInterface+".RemoveSession", 0, session).Err
}

// TransferProperties reads the file name and size of an incoming transfer.
func (c *Client) TransferProperties(path dbus.ObjectPath) (string, uint64, error) {
	obj := c.conn.Object(BusName, path)

	var nameVar dbus.Variant
	if err := obj.Call(propertiesInterface+".Get", 0, transferInterface, "Name").Store(&nameVar); err != nil {
		return "", 0, fmt.Errorf("reading transfer name: %w", err)
	}
	name, ok := nameVar.Value().(string)
	if !ok {
		return "", 0, fmt.Errorf("transfer name is not a string")
	}

	var sizeVar dbus.Variant
	if err := obj.Call(propertiesInterface+".Get", 0, transferInterface, "Size").Store(&sizeVar); err != nil {
		return "", 0, fmt.Errorf("reading transfer size: %w", err)
	}
	size, ok := sizeVar.Value().(uint64)
	if !ok {
		return "", 0, fmt.Errorf("transfer size is not a uint64")
	}

	return name, size, nil
}

// RegisterAgent announces the agent at agentPath as obexd's authorization
// agent, retrying with doubling delays.
//
// obexd is bus-activated and often is not up yet when the daemon starts,
// so the first attempts routinely time out. attempts and initialDelay come
// from configuration.
func (c *Client) RegisterAgent(ctx context.Context, agentPath dbus.ObjectPath, attempts int, initialDelay time.Duration) error {
	err := retry(ctx, attempts, initialDelay, c.logger, func() error {
		return c.conn.Object(BusName, RootPath).
			CallWithContext(ctx, agentManagerInterface+".RegisterAgent", 0, agentPath).Err
	})
	if err != nil {
		return err
	}
	c.logger.Info("obex agent registered", "path", agentPath)
	return nil
}

// retry runs fn up to attempts times, doubling the delay between failures.
func retry(ctx context.Context, attempts int, initialDelay time.Duration, logger Logger, fn func() error) error {
	delay := initialDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		logger.Warn("obex agent registration failed", "attempt", attempt, "error", lastErr)

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrRegistrationFailed, attempts, lastErr)
}
