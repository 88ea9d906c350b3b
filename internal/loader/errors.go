package loader

import "github.com/juju/errors"

// ErrVerifyMismatch is the cause for a Verify call that found the target's
// memory content differs from the reference image.
var ErrVerifyMismatch = errors.New("loader: verify mismatch")

// ErrImageTooSmall is the cause for a Load/Verify call whose file is
// smaller than the 64KiB opaque ELF header prefix every image carries.
var ErrImageTooSmall = errors.New("loader: image smaller than 64KiB header prefix")
