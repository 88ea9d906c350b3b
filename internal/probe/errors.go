package probe

import "github.com/juju/errors"

// ErrTransport is the sentinel cause for anything that went wrong talking
// to the FT2232H over USB: enumeration failure, a control transfer that
// didn't ACK, a bulk read/write timeout. Callers match it with
// errors.Cause(err) == probe.ErrTransport.
var ErrTransport = errors.New("probe: transport error")

// ErrNoDevice is the cause used when enumeration finds no matching FT2232H.
var ErrNoDevice = errors.New("probe: no matching device found")

func errInvalidFamily(s string) error {
	return errors.Errorf("probe: unknown family %q (want \"leon3\" or \"leon4\")", s)
}
