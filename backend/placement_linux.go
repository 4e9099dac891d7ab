//go:build linux && !tinygo

// placement_linux.go
//
// Linux bindings for the two execution-placement capabilities the
// backend thread needs at startup: sched_setaffinity(2) to pin the
// current thread to one logical CPU, and prctl(PR_SET_NAME) to give it
// a stable display name in top/ps/perf output.
//
// Affinity masks for CPUs 0-63 are pre-computed one-word arrays so the
// kernel sees a contiguous 8-byte buffer and the call stays
// allocation-free.  Unlike a best-effort pin, errors are returned:
// startup placement failure is fatal to Run by contract.

package backend

import (
	"errors"
	"syscall"
	"unsafe"
)

// errUnsupported marks capabilities absent on this platform; never
// returned by the Linux implementations.
var errUnsupported = errors.New("placement unsupported on this platform")

// Pre-computed one-word affinity masks for logical CPUs 0-63.
var cpuMasks = [64][1]uintptr{}

func init() {
	for i := range cpuMasks {
		cpuMasks[i][0] = 1 << uint(i)
	}
}

// setAffinity pins the current thread to cpu (0-based).  CPUs ≥ 64 are
// rejected rather than silently ignored.
func setAffinity(cpu int) error {
	if cpu < 0 || cpu >= len(cpuMasks) {
		return errors.New("cpu index out of range")
	}
	mask := &cpuMasks[cpu]
	_, _, errno := syscall.RawSyscall(
		syscall.SYS_SCHED_SETAFFINITY,
		0, // pid 0 → current thread
		uintptr(unsafe.Sizeof(mask[0])),
		uintptr(unsafe.Pointer(mask)),
	)
	if errno != 0 {
		return errno
	}
	return nil
}

const prSetName = 15 // PR_SET_NAME

// setThreadName renames the current thread.  The kernel truncates past
// 15 bytes; we truncate ourselves so the buffer stays NUL-terminated.
func setThreadName(name string) error {
	var buf [16]byte
	copy(buf[:15], name)
	_, _, errno := syscall.RawSyscall(
		syscall.SYS_PRCTL,
		prSetName,
		uintptr(unsafe.Pointer(&buf[0])),
		0,
	)
	if errno != 0 {
		return errno
	}
	return nil
}
