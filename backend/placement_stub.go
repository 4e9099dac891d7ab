//go:build !linux || tinygo

// placement_stub.go
//
// Portable stand-ins for platforms without thread pinning or naming
// syscalls we bind to.  Both report errUnsupported; the worker treats
// that as a tolerated no-op unless placement was configured mandatory.

package backend

import "errors"

var errUnsupported = errors.New("placement unsupported on this platform")

func setAffinity(cpu int) error { return errUnsupported }

func setThreadName(name string) error { return errUnsupported }
