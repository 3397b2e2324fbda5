package device

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
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

// Enumerator lists all device objects currently managed by the control bus.
// Implemented by the bluez client via GetManagedObjects.
type Enumerator interface {
	DeviceObjects(ctx context.Context) ([]Device, error)
}

// Observer is notified of every device observation: each signal-delivered
// ingest and each device seen during a reconciliation pass. Observations are
// the source of the local event feed, so they fire even when the observation
// does not change the cache.
type Observer func(Device)

// Registry is the authoritative in-memory cache of bus-managed devices.
//
// It owns the path→Device mapping and a derived address→path index.
// State is mutated only through Ingest (partial upsert from a signal) and
// Reconcile (bulk replace from a full enumeration); it is rebuilt from the
// stack on every restart and never persisted.
//
// All public methods are thread-safe: signal ingestion, frontend RPC
// handlers and socket connections touch the registry concurrently.
type Registry struct {
	enum Enumerator

	mu     sync.RWMutex
	byPath map[dbus.ObjectPath]Device
	byAddr map[string]dbus.ObjectPath // key: lower-cased address

	observer Observer
	logger   Logger
}

// NewRegistry creates an empty registry backed by the given enumerator.
func NewRegistry(enum Enumerator) *Registry {
	return &Registry{
		enum:   enum,
		byPath: make(map[dbus.ObjectPath]Device),
		byAddr: make(map[string]dbus.ObjectPath),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetObserver registers the observation callback. Must be called during
// wiring, before any ingestion starts. The callback is invoked outside the
// registry lock and must not call back into the registry's mutators.
func (r *Registry) SetObserver(fn Observer) {
	r.observer = fn
}

// Ingest upserts a device from partial signal-delivered fields.
//
// The most recently ingested record for a given path wins. Empty incoming
// fields keep whatever an earlier record at the same path held, so a partial
// property update cannot erase a known name or address. Re-ingesting
// identical fields leaves the cache unchanged but still counts as an
// observation for the event feed.
func (r *Registry) Ingest(path dbus.ObjectPath, address, name string) Device {
	r.mu.Lock()
	current := r.upsertLocked(Device{Address: address, Name: name, Path: path})
	r.mu.Unlock()

	r.logger.Debug("device observed",
		"name", current.Name,
		"address", current.Address,
		"path", string(current.Path),
	)
	r.notify(current)
	return current
}

// IngestObserved is Ingest for a fully-parsed observation, preserving
// signal-only fields such as RSSI.
func (r *Registry) IngestObserved(d Device) Device {
	r.mu.Lock()
	current := r.upsertLocked(d)
	r.mu.Unlock()

	r.logger.Debug("device observed",
		"name", current.Name,
		"address", current.Address,
		"path", string(current.Path),
	)
	r.notify(current)
	return current
}

// upsertLocked merges an incoming record into the cache. Caller holds r.mu.
func (r *Registry) upsertLocked(in Device) Device {
	existing, known := r.byPath[in.Path]
	if known {
		if in.Address == "" {
			in.Address = existing.Address
		}
		if in.Name == "" {
			in.Name = existing.Name
		}
		if in.RSSI == nil {
			in.RSSI = existing.RSSI
		}
	}
	if in.Name == "" {
		in.Name = in.Address
	}

	// A rediscovered device can come back under a new path. The address
	// index always follows the most recent ingest.
	if known && existing.Address != "" && !strings.EqualFold(existing.Address, in.Address) {
		if r.byAddr[strings.ToLower(existing.Address)] == in.Path {
			delete(r.byAddr, strings.ToLower(existing.Address))
		}
	}

	r.byPath[in.Path] = in
	if in.Address != "" {
		r.byAddr[strings.ToLower(in.Address)] = in.Path
	}
	return in
}

// Reconcile replaces the cache with a full enumeration of bus-managed
// device objects. It is authoritative over partial signal-derived state and
// idempotent: reconciling twice against unchanged external state yields an
// unchanged registry. Every enumerated device counts as an observation.
func (r *Registry) Reconcile(ctx context.Context) error {
	devices, err := r.enum.DeviceObjects(ctx)
	if err != nil {
		return fmt.Errorf("enumerating managed devices: %w", err)
	}

	r.mu.Lock()
	r.byPath = make(map[dbus.ObjectPath]Device, len(devices))
	r.byAddr = make(map[string]dbus.ObjectPath, len(devices))
	observed := make([]Device, 0, len(devices))
	for _, d := range devices {
		observed = append(observed, r.upsertLocked(d))
	}
	r.mu.Unlock()

	r.logger.Info("device cache reconciled", "count", len(devices))
	for _, d := range observed {
		r.notify(d)
	}
	return nil
}

// LookupByAddress resolves a device by MAC address, case-insensitively.
// The second return is false when the address is not cached, so callers can
// choose their own failure policy.
func (r *Registry) LookupByAddress(address string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, ok := r.byAddr[strings.ToLower(address)]
	if !ok {
		return Device{}, false
	}
	d, ok := r.byPath[path]
	return d, ok
}

// LookupByPath resolves a device by its bus object path. The pairing agent
// uses this to put a human name on authorization prompts.
func (r *Registry) LookupByPath(path dbus.ObjectPath) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byPath[path]
	return d, ok
}

// All returns one record per known address, sorted by address for stable
// frontend listings.
func (r *Registry) All() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.byAddr))
	for _, path := range r.byAddr {
		devices = append(devices, r.byPath[path])
	}
	sort.Slice(devices, func(i, j int) bool {
		return strings.ToLower(devices[i].Address) < strings.ToLower(devices[j].Address)
	})
	return devices
}

// Count returns the number of cached devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPath)
}

// notify delivers an observation to the observer, if one is registered.
func (r *Registry) notify(d Device) {
	if r.observer != nil {
		r.observer(d)
	}
}
