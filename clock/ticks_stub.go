//go:build !amd64 || noasm

// ticks_stub.go
//
// Portable fall-back for non-amd64 builds or when assembly stubs are
// disabled.  The runtime's monotonic clock stands in for the hardware
// counter; calibration then simply discovers a tick rate of ~1 ns.

package clock

import "time"

var epoch = time.Now()

// ticks returns monotonic nanoseconds since package init.
func ticks() uint64 {
	return uint64(time.Since(epoch))
}
