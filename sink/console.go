// console.go
//
// Console sink: renders one line per record into a reused scratch
// buffer and writes it to stderr (or stdout) in a single call.  Being
// backend-thread only, the scratch buffer needs no guard, and the
// steady-state path performs zero allocations once the buffer has grown
// to the working line length.

package sink

import (
	"os"

	"github.com/ItsBasi/quill/record"
)

const consoleTimeLayout = "2006-01-02 15:04:05.000000"

// Console writes human-readable lines to a standard stream.
type Console struct {
	out *os.File
	buf []byte // line scratch, reused across Receive calls
}

// NewConsole returns a sink writing to stderr.
func NewConsole() *Console {
	return &Console{out: os.Stderr, buf: make([]byte, 0, 256)}
}

// NewConsoleStdout returns a sink writing to stdout.
func NewConsoleStdout() *Console {
	return &Console{out: os.Stdout, buf: make([]byte, 0, 256)}
}

// Receive formats "time [origin] LEVEL body" and writes it as one line.
func (c *Console) Receive(e *record.Entry) error {
	b := c.buf[:0]
	b = e.Time.AppendFormat(b, consoleTimeLayout)
	b = append(b, " ["...)
	b = append(b, e.Origin...)
	b = append(b, "] "...)
	b = append(b, e.Level.String()...)
	b = append(b, ' ')
	b = append(b, e.Body...)
	b = append(b, '\n')
	c.buf = b
	_, err := c.out.Write(b)
	return err
}

// Flush is a no-op: lines are written unbuffered.
func (c *Console) Flush() error { return nil }

// Close is a no-op: the sink does not own the stream.
func (c *Console) Close() error { return nil }
