// json.go
//
// JSON-lines sink: one sonnet-marshaled entry per line into any
// io.Writer.  Buffered through bufio so a burst of records costs one
// syscall per flush, not one per line.

package sink

import (
	"bufio"
	"io"

	"github.com/sugawarayuuta/sonnet"

	"github.com/ItsBasi/quill/record"
)

// JSON emits newline-delimited JSON objects.
type JSON struct {
	w  *bufio.Writer
	cl io.Closer // non-nil when the sink owns the destination
}

// NewJSON wraps an existing writer.  The caller keeps ownership of w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: bufio.NewWriterSize(w, 64<<10)}
}

// NewJSONOwned wraps a writer the sink should close on Close.
func NewJSONOwned(w io.WriteCloser) *JSON {
	return &JSON{w: bufio.NewWriterSize(w, 64<<10), cl: w}
}

// Receive marshals the entry and appends it as one line.
func (j *JSON) Receive(e *record.Entry) error {
	out, err := sonnet.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(out); err != nil {
		return err
	}
	return j.w.WriteByte('\n')
}

// Flush drains the line buffer to the destination.
func (j *JSON) Flush() error {
	return j.w.Flush()
}

// Close flushes and, if owned, closes the destination.
func (j *JSON) Close() error {
	if err := j.w.Flush(); err != nil {
		return err
	}
	if j.cl != nil {
		return j.cl.Close()
	}
	return nil
}
