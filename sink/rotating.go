// rotating.go
//
// Size-rotated file sink.  The live file receives the same line format
// as the console sink; when it crosses the size limit it is renamed to
// a timestamped segment, gzip-compressed, and finished with a blake2b
// digest sidecar so shipped archives can be integrity-checked offline.
//
// Rotation work (compress + digest) runs inline on the backend thread.
// That stalls merging for the duration of one segment compression,
// which is the documented trade-off: no second thread, no cross-thread
// file ownership.

package sink

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/crypto/blake2b"

	"github.com/ItsBasi/quill/record"
)

// Rotating writes lines to path, rotating at maxBytes.
type Rotating struct {
	path     string
	maxBytes int64

	f   *os.File
	n   int64
	buf []byte // line scratch, reused across Receive calls
}

// NewRotating opens (or appends to) path.  maxBytes <= 0 disables
// rotation.
func NewRotating(path string, maxBytes int64) (*Rotating, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rotating sink: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("rotating sink: stat %s: %w", path, err)
	}
	return &Rotating{
		path:     path,
		maxBytes: maxBytes,
		f:        f,
		n:        st.Size(),
		buf:      make([]byte, 0, 256),
	}, nil
}

// Receive appends one formatted line, rotating first if the limit was
// already crossed.
func (r *Rotating) Receive(e *record.Entry) error {
	if r.maxBytes > 0 && r.n >= r.maxBytes {
		if err := r.rotate(); err != nil {
			return err
		}
	}
	b := r.buf[:0]
	b = e.Time.AppendFormat(b, consoleTimeLayout)
	b = append(b, " ["...)
	b = append(b, e.Origin...)
	b = append(b, "] "...)
	b = append(b, e.Level.String()...)
	b = append(b, ' ')
	b = append(b, e.Body...)
	b = append(b, '\n')
	r.buf = b
	n, err := r.f.Write(b)
	r.n += int64(n)
	return err
}

// rotate renames the live file to a timestamped segment, reopens a
// fresh one, then compresses the segment and writes its digest sidecar.
func (r *Rotating) rotate() error {
	if err := r.f.Close(); err != nil {
		return err
	}
	seg := r.path + "." + time.Now().UTC().Format("20060102T150405.000000000")
	if err := os.Rename(r.path, seg); err != nil {
		return err
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	r.f, r.n = f, 0
	return compressSegment(seg)
}

// compressSegment gzips seg into seg.gz, writes the blake2b-256 digest
// of the compressed bytes to seg.gz.b2sum, and removes the original.
func compressSegment(seg string) error {
	src, err := os.Open(seg)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(seg+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	sum, err := blake2b.New256(nil)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(io.MultiWriter(dst, sum))
	if _, err := io.Copy(gz, src); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	digest := hex.EncodeToString(sum.Sum(nil)) + "  " + seg + ".gz\n"
	if err := os.WriteFile(seg+".gz.b2sum", []byte(digest), 0o644); err != nil {
		return err
	}
	return os.Remove(seg)
}

// Flush syncs the live file to stable storage.
func (r *Rotating) Flush() error {
	return r.f.Sync()
}

// Close syncs and closes the live file.  No final rotation: the live
// file stays readable in place.
func (r *Rotating) Close() error {
	if err := r.f.Sync(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}
