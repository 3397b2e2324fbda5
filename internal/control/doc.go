// Package control carries out lifecycle operations on cached devices:
// pairing, connecting, disconnecting, removal and state snapshots.
//
// Operations address devices by MAC through the registry, never by raw bus
// path, and return the user-facing status lines the frontend relays
// verbatim. A MAC that is not cached is reported with ErrUnknownDevice so
// each frontend operation can apply its own failure shape.
package control
