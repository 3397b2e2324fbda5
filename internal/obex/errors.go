package obex

import (
	"errors"

	"github.com/godbus/dbus/v5"
)

// rejectedErrorName is the bus error obexd expects when the agent refuses
// an incoming transfer.
const rejectedErrorName = "org.bluez.obex.Error.Rejected"

var (
	// ErrRejectedByPolicy indicates an incoming transfer was refused,
	// either by the user or because prompting was impossible.
	ErrRejectedByPolicy = errors.New("obex: transfer rejected by policy")

	// ErrRegistrationFailed indicates the agent could not be registered
	// with obexd within the configured number of attempts.
	ErrRegistrationFailed = errors.New("obex: agent registration failed")
)

// rejected wraps a refusal in the bus error obexd recognises.
func rejected(err error) *dbus.Error {
	return dbus.NewError(rejectedErrorName, []interface{}{err.Error()})
}
