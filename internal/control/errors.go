package control

import "errors"

// ErrUnknownDevice indicates the requested MAC address is not in the
// registry. Callers decide whether that is a hard error, a soft status
// line or an empty result.
var ErrUnknownDevice = errors.New("control: device not known")
