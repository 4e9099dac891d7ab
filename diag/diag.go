// diag.go — self-diagnostics for the logging backend (alloc-light)
//
// The backend cannot log through itself: a sink failure reported into a
// lane would loop straight back into the failing sink.  These helpers
// write directly to stderr instead, with plain concatenation rather than
// fmt, and are meant for cold paths only: sink errors, placement
// failures, dropped-record summaries.
//
// Never invoke in hot loops — use only in failure diagnostics.

package diag

import "unsafe"

// Error writes "prefix: err" to stderr.  err may be nil, in which case
// only the prefix is emitted (tagged warnings, state changes).
func Error(prefix string, err error) {
	if err != nil {
		write(prefix + ": " + err.Error() + "\n")
	} else {
		write(prefix + "\n")
	}
}

// Message writes "prefix: message" to stderr for cold-path diagnostics.
func Message(prefix, message string) {
	write(prefix + ": " + message + "\n")
}

// s2b views a string as a byte slice without an allocation.
// Callee must not mutate the result.
//
//go:nosplit
func s2b(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
