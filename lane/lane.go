// lane.go
//
// Lock-free single-producer/single-consumer ring buffer holding pending
// log records.  The structure deliberately separates producer and
// consumer fields with full cache-lines to eliminate false-sharing, and
// each slot carries a sequence number so Push and the peek protocol can
// be wait-free without additional atomics.
//
// Unlike a plain pop, the consumer side is a two-phase protocol: Peek
// hands back the head record without removing it, and the backend
// decides afterwards — Commit removes and destroys it, Release leaves
// it in place for the next merge scan.  That lets the merge engine
// compare timestamps across all lanes and remove exactly the one record
// that won the step.
//
// SPSC discipline is a hard contract: one writing goroutine, one
// reading goroutine, ever.  At most one Handle is outstanding per lane
// at a time.

package lane

import "github.com/ItsBasi/quill/record"

// slot couples an in-place record with its sequence stamp.
type slot struct {
	seq uint64 // position in the sequence space
	rec record.Record
}

// Lane is a fixed-capacity circular buffer dedicated to one producer
// and the single backend consumer.
type Lane struct {
	_    [64]byte // producer head isolated on its own cache-line
	head uint64
	//lint:ignore U1000 padding to keep head & tail on different cache-lines
	_pad1 [64]byte
	tail  uint64
	//lint:ignore U1000 padding to keep hot fields from colliding with metadata
	_pad2 [64]byte
	mask  uint64
	step  uint64
	buf   []slot
}

// New allocates a lane whose size must be a power-of-two; otherwise it
// panics so that the bit-masking arithmetic stays valid.
func New(size int) *Lane {
	if size <= 0 || size&(size-1) != 0 {
		panic("lane: size must be >0 and a power of two")
	}
	l := &Lane{
		mask: uint64(size - 1),
		step: uint64(size),
		buf:  make([]slot, size),
	}
	for i := range l.buf {
		l.buf[i].seq = uint64(i)
	}
	return l
}

// Push enqueues a copy of r, returning false if the buffer is full.
// Producer-only.  What to do on a full lane is the caller's policy;
// the lane itself never blocks and never overwrites.
//
//go:nosplit
func (l *Lane) Push(r *record.Record) bool {
	t := l.tail
	s := &l.buf[t&l.mask]
	if loadAcquireUint64(&s.seq) != t {
		return false // consumer has not yet reclaimed the slot
	}
	s.rec = *r
	storeReleaseUint64(&s.seq, t+1)
	l.tail = t + 1
	return true
}

// PushSpin retries Push up to spins times, relaxing the CPU between
// attempts.  Bounded: returns false if the lane stayed full throughout.
//
//go:nosplit
func (l *Lane) PushSpin(r *record.Record, spins int) bool {
	for i := 0; i <= spins; i++ {
		if l.Push(r) {
			return true
		}
		cpuRelax()
	}
	return false
}

// Handle is a transient view of the head record with exactly two
// outcomes: Commit removes and destroys it, Release leaves it queued.
type Handle struct {
	l *Lane
	s *slot
}

// Peek returns a handle on the head record, or ok=false if no written
// slot exists.  Consumer-only.  The record stays in the lane until the
// handle is committed; nothing is reserved past the caller's decision.
//
//go:nosplit
func (l *Lane) Peek() (Handle, bool) {
	h := l.head
	s := &l.buf[h&l.mask]
	if loadAcquireUint64(&s.seq) != h+1 {
		return Handle{}, false // producer has not yet published the slot
	}
	return Handle{l: l, s: s}, true
}

// Empty reports whether the lane has no written slot.  Consumer-only.
func (l *Lane) Empty() bool {
	_, ok := l.Peek()
	return !ok
}

// Stamp returns the head record's counter timestamp without touching
// the rest of the payload.
//
//go:nosplit
func (h Handle) Stamp() uint64 {
	return uint64(h.s.rec.Stamp)
}

// Record exposes the full head record.  Valid until Commit.
func (h Handle) Record() *record.Record {
	return &h.s.rec
}

// Commit removes the head record and recycles the slot.  The record's
// references are dropped before the slot is handed back so the producer
// can never resurrect a stale payload.
//
//go:nosplit
func (h Handle) Commit() {
	l, s := h.l, h.s
	hd := l.head
	s.rec = record.Record{}
	storeReleaseUint64(&s.seq, hd+l.step)
	l.head = hd + 1
}

// Release ends the peek leaving the record in place for the next scan.
// The slot was never mutated, so this is purely a protocol statement:
// a handle must end in exactly one of Commit or Release.
func (h Handle) Release() {}
