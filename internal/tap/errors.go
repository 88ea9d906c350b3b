package tap

import "github.com/juju/errors"

// ErrChainShape is the cause returned when a scan's readback cannot be
// interpreted: a short IDCODE reply in ReadIDCODE, no Capture-IR marker in
// ScanIRLength's readback, or no device answering GetJTAGCount's bypass
// scan. The measured IDCODE, IR length and device count are returned as
// they are; nothing in this package compares them with the GR712 shape.
var ErrChainShape = errors.New("tap: unexpected scan chain shape")
