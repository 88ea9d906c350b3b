package bridge

import (
	"github.com/uviespace/uviemon/internal/probe"
)

// ErrTransport is re-exported from probe so bridge callers can match on a
// single sentinel regardless of which layer the USB failure surfaced at:
// errors.Cause(err) == bridge.ErrTransport.
var ErrTransport = probe.ErrTransport
