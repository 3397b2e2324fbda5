// Package discovery runs bounded device-discovery windows on a bluetooth
// adapter.
//
// The adapter's discovery mode is a shared hardware state, so the scanner's
// contract is strict: one start, one matching stop, no stop without a
// successful start.
package discovery
