//go:build !unix

// write_stub.go
//
// Portable stderr write for platforms without a usable raw write(2).

package diag

import "os"

func write(msg string) {
	_, _ = os.Stderr.Write(s2b(msg))
}
