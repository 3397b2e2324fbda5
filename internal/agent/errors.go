package agent

import (
	"errors"

	"github.com/godbus/dbus/v5"
)

// rejectedErrorName is the bus error BlueZ expects when an agent refuses a
// request. Any other error name aborts pairing with a generic failure.
const rejectedErrorName = "org.bluez.Error.Rejected"

var (
	// ErrUserRejected indicates the user answered no to a pairing prompt.
	ErrUserRejected = errors.New("agent: user rejected pairing")

	// ErrServiceDenied indicates the user refused a service authorization.
	ErrServiceDenied = errors.New("agent: service authorization denied")

	// ErrInvalidInput indicates the user supplied input that cannot satisfy
	// the request, such as a non-numeric passkey.
	ErrInvalidInput = errors.New("agent: invalid input")
)

// rejected wraps a refusal in the bus error BlueZ recognises.
func rejected(err error) *dbus.Error {
	return dbus.NewError(rejectedErrorName, []interface{}{err.Error()})
}
