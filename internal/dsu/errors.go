package dsu

import "github.com/juju/errors"

// ErrTarget is the cause for anything that went wrong on the target side of
// a DSU operation: an out-of-range register window, a CPU that refused to
// enter or leave debug mode, a Run that ended CRASHED.
var ErrTarget = errors.New("dsu: target error")
