package device

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
)

// MockEnumerator is a test implementation of Enumerator.
type MockEnumerator struct {
	mu      sync.Mutex
	devices []Device
	err     error
	calls   int
}

func (m *MockEnumerator) DeviceObjects(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Device, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *MockEnumerator) setDevices(devices ...Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = devices
}

func testPath(suffix string) dbus.ObjectPath {
	return dbus.ObjectPath("/org/bluez/hci0/dev_" + suffix)
}

func TestRegistry_IngestAndLookup(t *testing.T) {
	reg := NewRegistry(&MockEnumerator{})

	reg.Ingest(testPath("AA_BB_CC_DD_EE_FF"), "AA:BB:CC:DD:EE:FF", "Headset")

	t.Run("exact address", func(t *testing.T) {
		got, ok := reg.LookupByAddress("AA:BB:CC:DD:EE:FF")
		if !ok {
			t.Fatal("LookupByAddress() ok = false, want true")
		}
		if got.Name != "Headset" {
			t.Errorf("Name = %q, want %q", got.Name, "Headset")
		}
		if got.Path != testPath("AA_BB_CC_DD_EE_FF") {
			t.Errorf("Path = %q, want %q", got.Path, testPath("AA_BB_CC_DD_EE_FF"))
		}
	})

	t.Run("case-insensitive address", func(t *testing.T) {
		got, ok := reg.LookupByAddress("aa:bb:cc:dd:ee:ff")
		if !ok {
			t.Fatal("LookupByAddress() ok = false, want true")
		}
		if got.Address != "AA:BB:CC:DD:EE:FF" {
			t.Errorf("Address = %q, want original casing preserved", got.Address)
		}
	})

	t.Run("unknown address", func(t *testing.T) {
		if _, ok := reg.LookupByAddress("00:00:00:00:00:00"); ok {
			t.Error("LookupByAddress() ok = true for unknown address, want false")
		}
	})
}

func TestRegistry_IngestLastWriteWins(t *testing.T) {
	reg := NewRegistry(&MockEnumerator{})
	path := testPath("AA_BB_CC_DD_EE_FF")

	reg.Ingest(path, "AA:BB:CC:DD:EE:FF", "Headset")
	reg.Ingest(path, "AA:BB:CC:DD:EE:FF", "Headset Pro")

	got, ok := reg.LookupByAddress("AA:BB:CC:DD:EE:FF")
	if !ok {
		t.Fatal("device not found after re-ingest")
	}
	if got.Name != "Headset Pro" {
		t.Errorf("Name = %q, want most recently ingested %q", got.Name, "Headset Pro")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestRegistry_IngestPartialFieldsKeepExisting(t *testing.T) {
	reg := NewRegistry(&MockEnumerator{})
	path := testPath("AA_BB_CC_DD_EE_FF")

	reg.Ingest(path, "AA:BB:CC:DD:EE:FF", "Headset")
	// Partial property update without a name must not erase the known name.
	reg.Ingest(path, "AA:BB:CC:DD:EE:FF", "")

	got, _ := reg.LookupByAddress("AA:BB:CC:DD:EE:FF")
	if got.Name != "Headset" {
		t.Errorf("Name = %q, want retained %q", got.Name, "Headset")
	}
}

func TestRegistry_IngestNameFallsBackToAddress(t *testing.T) {
	reg := NewRegistry(&MockEnumerator{})

	got := reg.Ingest(testPath("11_22_33_44_55_66"), "11:22:33:44:55:66", "")
	if got.Name != "11:22:33:44:55:66" {
		t.Errorf("Name = %q, want address fallback", got.Name)
	}
}

func TestRegistry_IngestRediscoveredUnderNewPath(t *testing.T) {
	reg := NewRegistry(&MockEnumerator{})

	reg.Ingest(testPath("old"), "AA:BB:CC:DD:EE:FF", "Headset")
	reg.Ingest(testPath("new"), "AA:BB:CC:DD:EE:FF", "Headset")

	got, ok := reg.LookupByAddress("AA:BB:CC:DD:EE:FF")
	if !ok {
		t.Fatal("device not found after rediscovery")
	}
	if got.Path != testPath("new") {
		t.Errorf("Path = %q, want most recent path %q", got.Path, testPath("new"))
	}
}

func TestRegistry_Observer(t *testing.T) {
	reg := NewRegistry(&MockEnumerator{})

	var mu sync.Mutex
	var seen []Device
	reg.SetObserver(func(d Device) {
		mu.Lock()
		seen = append(seen, d)
		mu.Unlock()
	})

	reg.Ingest(testPath("AA_BB_CC_DD_EE_FF"), "AA:BB:CC:DD:EE:FF", "Headset")
	// Identical re-ingest is a cache no-op but still an observation.
	reg.Ingest(testPath("AA_BB_CC_DD_EE_FF"), "AA:BB:CC:DD:EE:FF", "Headset")

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("observer called %d times, want 2", len(seen))
	}
	if seen[0].Display() != "Headset (AA:BB:CC:DD:EE:FF)" {
		t.Errorf("Display() = %q, want %q", seen[0].Display(), "Headset (AA:BB:CC:DD:EE:FF)")
	}
}

func TestRegistry_Reconcile(t *testing.T) {
	enum := &MockEnumerator{}
	reg := NewRegistry(enum)

	enum.setDevices(
		Device{Address: "AA:BB:CC:DD:EE:FF", Name: "Headset", Path: testPath("AA_BB_CC_DD_EE_FF")},
		Device{Address: "11:22:33:44:55:66", Name: "Keyboard", Path: testPath("11_22_33_44_55_66")},
	)

	if err := reg.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if reg.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reg.Count())
	}

	t.Run("authoritative over signal-derived state", func(t *testing.T) {
		reg.Ingest(testPath("stale"), "77:88:99:AA:BB:CC", "Ghost")

		if err := reg.Reconcile(context.Background()); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
		if _, ok := reg.LookupByAddress("77:88:99:AA:BB:CC"); ok {
			t.Error("device absent from enumeration survived reconcile")
		}
		if reg.Count() != 2 {
			t.Errorf("Count() = %d, want 2", reg.Count())
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		before := reg.All()
		if err := reg.Reconcile(context.Background()); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
		after := reg.All()

		if len(before) != len(after) {
			t.Fatalf("device count changed: %d -> %d", len(before), len(after))
		}
		for i := range before {
			if before[i] != after[i] {
				t.Errorf("device %d changed: %+v -> %+v", i, before[i], after[i])
			}
		}
	})

	t.Run("propagates enumeration failure", func(t *testing.T) {
		enum.err = errors.New("bus gone")
		defer func() { enum.err = nil }()

		if err := reg.Reconcile(context.Background()); err == nil {
			t.Error("Reconcile() error = nil, want error")
		}
		// Cache keeps its previous contents on failure.
		if reg.Count() != 2 {
			t.Errorf("Count() = %d after failed reconcile, want 2", reg.Count())
		}
	})
}

func TestRegistry_AllSorted(t *testing.T) {
	reg := NewRegistry(&MockEnumerator{})

	reg.Ingest(testPath("b"), "BB:00:00:00:00:00", "B")
	reg.Ingest(testPath("a"), "AA:00:00:00:00:00", "A")

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d devices, want 2", len(all))
	}
	if all[0].Address != "AA:00:00:00:00:00" || all[1].Address != "BB:00:00:00:00:00" {
		t.Errorf("All() not sorted by address: %v", all)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	enum := &MockEnumerator{}
	enum.setDevices(
		Device{Address: "AA:BB:CC:DD:EE:FF", Name: "Headset", Path: testPath("AA_BB_CC_DD_EE_FF")},
	)
	reg := NewRegistry(enum)
	reg.SetObserver(func(Device) {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.Ingest(testPath("AA_BB_CC_DD_EE_FF"), "AA:BB:CC:DD:EE:FF", "Headset")
				reg.LookupByAddress("aa:bb:cc:dd:ee:ff")
				reg.All()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			if err := reg.Reconcile(context.Background()); err != nil {
				t.Errorf("Reconcile() error = %v", err)
				return
			}
		}
	}()
	wg.Wait()
}
