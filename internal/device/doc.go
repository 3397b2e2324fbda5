// Package device provides the in-memory device registry for blueland.
//
// The registry is the authoritative cache of BlueZ-managed remote devices.
// It maps object paths to device records and keeps a derived address→path
// index for frontend lookups. It holds no durable state: everything is
// rebuilt from the control bus on restart.
//
// # Data Flow
//
//	bus signal (InterfacesAdded) ──▶ Registry.Ingest ──▶ Observer ──▶ event feed
//	GetManagedObjects enumeration ──▶ Registry.Reconcile ─┘
//	frontend operation ──▶ Registry.LookupByAddress ──▶ bus call
//
// # Key Types
//
//   - Device: address, display name and BlueZ object path of one remote device
//   - Registry: thread-safe cache mutated only by Ingest and Reconcile
//   - Enumerator: the control-bus dependency used by Reconcile
//   - Observer: per-observation fanout hook feeding the event broadcaster
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Signal ingestion, frontend RPC
// handlers and reconciliation passes may run in parallel; all mutations are
// serialised by an internal mutex, and observers run outside it.
package device
