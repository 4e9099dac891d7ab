// registry.go
//
// Lane registry: binds live producers to their lanes and hands the
// backend a cheap, registration-ordered snapshot to iterate.
//
// The hot path is the backend's Snapshot call, once per merge step: it
// checks a single atomic dirty flag and, in the common case, returns a
// cached slice with no locking at all.  The mutex guards only the cold
// paths — Register, Close, Reap — so producers pay for synchronization
// exactly once, at their first log call.
//
// Reclamation is deferred: closing a producer only marks it.  The
// backend retires the entry itself (Reap) at a point where it provably
// holds no handle into the lane, and the entry leaves the next snapshot
// rebuild.  Until every stale snapshot slice is replaced the lane stays
// reachable, so a scan in flight can never dereference freed storage.

package registry

import (
	"sync"
	"sync/atomic"

	"github.com/ItsBasi/quill/lane"
)

// Producer binds one lane to the identity of the goroutine that owns
// its write side.
type Producer struct {
	name string
	ln   *lane.Lane
	done uint32 // set by Close; read by the backend during Reap
}

// Name returns the stable display identifier for this producer.
func (p *Producer) Name() string { return p.name }

// Lane returns the producer's ring buffer.
func (p *Producer) Lane() *lane.Lane { return p.ln }

// Close marks the producer as ended.  The lane is not freed here: the
// backend drains whatever is still buffered and retires the entry once
// its snapshot no longer references it.  Idempotent.
func (p *Producer) Close() {
	atomic.StoreUint32(&p.done, 1)
}

func (p *Producer) closed() bool {
	return atomic.LoadUint32(&p.done) != 0
}

// Registry is the process-wide producer→lane collection.
type Registry struct {
	mu   sync.Mutex
	live []*Producer // registration order; guarded by mu

	dirty uint32      // snapshot cache invalid; atomic
	cache []*Producer // backend-owned snapshot; no lock on the hot path

	laneCap int
}

// New creates a registry whose lanes hold laneCap records each.
// laneCap must be a power of two (lane.New enforces it).
func New(laneCap int) *Registry {
	return &Registry{laneCap: laneCap}
}

// Register allocates a lane for a new producer and appends it in
// registration order.  Registration order is a contract: it fixes the
// backend's scan order, and with it the tie-break between records that
// carry equal timestamps.
func (r *Registry) Register(name string) *Producer {
	p := &Producer{name: name, ln: lane.New(r.laneCap)}
	r.mu.Lock()
	r.live = append(r.live, p)
	r.mu.Unlock()
	atomic.StoreUint32(&r.dirty, 1)
	return p
}

// Snapshot returns the current producers in registration order.
// Backend-only.  Staleness is bounded by one call: any registration
// completed before this call is reflected in its result.
func (r *Registry) Snapshot() []*Producer {
	if atomic.LoadUint32(&r.dirty) != 0 {
		r.mu.Lock()
		r.cache = append(r.cache[:0:0], r.live...)
		atomic.StoreUint32(&r.dirty, 0)
		r.mu.Unlock()
	}
	return r.cache
}

// Reap retires producers that are both closed and drained.  Backend-
// only, and only from a point where no lane handle is held — the merge
// loop calls it on idle steps.  Retired entries disappear from the next
// Snapshot; the lane itself stays alive until the last slice that
// references it is replaced.
func (r *Registry) Reap() {
	r.mu.Lock()
	kept := r.live[:0]
	removed := false
	for _, p := range r.live {
		if p.closed() && p.ln.Empty() {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	r.live = kept
	r.mu.Unlock()
	if removed {
		atomic.StoreUint32(&r.dirty, 1)
	}
}

// Len reports the number of live producers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
