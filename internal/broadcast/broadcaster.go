package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// writeTimeout bounds a single subscriber write. A slow or dead subscriber
// must not stall delivery to the others.
const writeTimeout = time.Second

// Logger defines the logging interface used by the Broadcaster.
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

// Event is one line-delimited JSON record on the feed, one per newly
// observed device.
type Event struct {
	Name string `json:"name"`
	Mac  string `json:"mac"`
	Path string `json:"path"`
}

// Broadcaster fans device observations out to local subscribers connected
// over a unix socket.
//
// Membership is a set: insertion on connect, removal on disconnect or write
// failure. Delivery is best-effort with isolated failure; no ordering
// guarantee is made across subscribers. Broadcast never returns an error.
type Broadcaster struct {
	path string

	ln net.Listener

	mu   sync.Mutex
	subs map[net.Conn]struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
	logger    Logger
}

// New creates a broadcaster for the given socket path. Call Start to begin
// accepting subscribers.
func New(path string) *Broadcaster {
	return &Broadcaster{
		path:   path,
		subs:   make(map[net.Conn]struct{}),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the broadcaster.
func (b *Broadcaster) SetLogger(logger Logger) {
	b.logger = logger
}

// Path returns the socket's filesystem path, used by the frontend's
// discovery sentinel.
func (b *Broadcaster) Path() string {
	return b.path
}

// Start creates the socket and begins accepting subscribers.
//
// Parent directories are created and a stale socket file from a previous
// run is removed first.
func (b *Broadcaster) Start() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale socket: %w", err)
	}

	ln, err := net.Listen("unix", b.path)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", b.path, err)
	}
	b.ln = ln

	b.wg.Add(1)
	go b.acceptLoop()

	b.logger.Info("event socket listening", "path", b.path)
	return nil
}

// acceptLoop accepts subscriber connections until the listener closes.
func (b *Broadcaster) acceptLoop() {
	defer b.wg.Done()
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			// Listener closed during shutdown.
			if !errors.Is(err, net.ErrClosed) {
				b.logger.Error("accept failed", "error", err)
			}
			return
		}
		b.addSubscriber(conn)
	}
}

// addSubscriber inserts a connection into the set and watches it for
// disconnect. Subscribers never send payload; the read loop exists only to
// notice the close.
func (b *Broadcaster) addSubscriber(conn net.Conn) {
	b.mu.Lock()
	b.subs[conn] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()

	b.logger.Info("subscriber connected", "subscribers", count)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		_, _ = io.Copy(io.Discard, conn)
		b.removeSubscriber(conn)
		b.logger.Info("subscriber disconnected")
	}()
}

// removeSubscriber drops a connection from the set and closes it.
// Safe to call more than once per connection.
func (b *Broadcaster) removeSubscriber(conn net.Conn) {
	b.mu.Lock()
	_, present := b.subs[conn]
	delete(b.subs, conn)
	b.mu.Unlock()

	if present {
		_ = conn.Close()
	}
}

// Broadcast serialises the event and writes it to every current subscriber.
//
// A write failure on one subscriber removes that subscriber but does not
// prevent delivery to the rest, and never surfaces to the caller.
func (b *Broadcaster) Broadcast(ev Event) {
	line, err := json.Marshal(ev)
	if err != nil {
		// Event is three plain strings; this cannot happen in practice.
		b.logger.Error("marshalling event failed", "error", err)
		return
	}
	line = append(line, '\n')

	b.mu.Lock()
	targets := make([]net.Conn, 0, len(b.subs))
	for conn := range b.subs {
		targets = append(targets, conn)
	}
	b.mu.Unlock()

	for _, conn := range targets {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := conn.Write(line); err != nil {
			b.logger.Warn("dropping subscriber after failed write", "error", err)
			b.removeSubscriber(conn)
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close stops accepting, disconnects every subscriber and removes the
// socket's filesystem entry. Safe to call multiple times.
func (b *Broadcaster) Close() error {
	b.closeOnce.Do(func() {
		if b.ln != nil {
			_ = b.ln.Close()
		}

		b.mu.Lock()
		conns := make([]net.Conn, 0, len(b.subs))
		for conn := range b.subs {
			conns = append(conns, conn)
		}
		b.mu.Unlock()
		for _, conn := range conns {
			b.removeSubscriber(conn)
		}

		b.wg.Wait()
		_ = os.Remove(b.path)
		b.logger.Info("event socket closed", "path", b.path)
	})
	return nil
}
