//go:build amd64 && !noasm

// ticks_amd64.go
//
// Go declaration for the raw counter read on amd64.  The implementation
// lives in ticks_amd64.s and issues a single RDTSC, so a producer-side
// stamp costs a few cycles and never enters the kernel.

package clock

// ticks reads the processor timestamp counter.
//
//go:noescape
func ticks() uint64
