//go:build unix

// write_unix.go
//
// fd-direct stderr write, bypassing os.File and its locking.  On unix
// a single write(2) under PIPE_BUF stays atomic, which keeps concurrent
// diagnostics from interleaving mid-line.

package diag

import "syscall"

func write(msg string) {
	_, _ = syscall.Write(2, s2b(msg))
}
