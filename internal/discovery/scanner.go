package discovery

import (
	"context"
	"fmt"
	"time"
)

// Logger defines the logging interface used by the Scanner.
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

// Adapter is the slice of the bluetooth adapter the scanner drives.
type Adapter interface {
	StartDiscovery() error
	StopDiscovery() error
}

// Scanner runs fixed-length discovery windows against an adapter.
//
// A window that started always stops, whether it expires, the context is
// cancelled, or the caller panics out from above. A window that failed to
// start never issues a stop, so an adapter already scanning on behalf of
// another client is left alone.
type Scanner struct {
	adapter Adapter
	window  time.Duration
	logger  Logger
}

// NewScanner creates a scanner with the given window length.
func NewScanner(adapter Adapter, window time.Duration) *Scanner {
	return &Scanner{
		adapter: adapter,
		window:  window,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the scanner.
func (s *Scanner) SetLogger(logger Logger) {
	s.logger = logger
}

// Window returns the configured scan window length.
func (s *Scanner) Window() time.Duration {
	return s.window
}

// Run starts discovery, waits out the window and stops discovery again.
//
// Returns the context's error when cancelled early. A stop failure is
// reported only when nothing else already went wrong.
func (s *Scanner) Run(ctx context.Context) (err error) {
	if startErr := s.adapter.StartDiscovery(); startErr != nil {
		return fmt.Errorf("starting discovery: %w", startErr)
	}
	s.logger.Info("discovery started", "window", s.window)

	defer func() {
		if stopErr := s.adapter.StopDiscovery(); stopErr != nil {
			s.logger.Error("stopping discovery failed", "error", stopErr)
			if err == nil {
				err = fmt.Errorf("stopping discovery: %w", stopErr)
			}
			return
		}
		s.logger.Info("discovery stopped")
	}()

	timer := time.NewTimer(s.window)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
