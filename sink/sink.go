// sink.go
//
// Sink is the output side of the backend: the merge engine hands every
// finalized record to each active sink, in global timestamp order.
// Sinks run exclusively on the backend thread, so implementations may
// keep unguarded scratch state.
//
// The registry mirrors the lane registry's shape: mutation is cold and
// locked, the backend's Active call is a single atomic pointer load.

package sink

import (
	"sync"
	"sync/atomic"

	"github.com/ItsBasi/quill/record"
)

// Sink consumes finalized records.  Receive may buffer internally;
// Flush forces buffered output down; Close releases resources after a
// final flush.  All three are backend-thread only.
type Sink interface {
	Receive(e *record.Entry) error
	Flush() error
	Close() error
}

// Registry holds the active sink set.
type Registry struct {
	mu     sync.Mutex
	active atomic.Pointer[[]Sink]
}

// NewRegistry creates a registry pre-populated with sinks.
func NewRegistry(sinks ...Sink) *Registry {
	r := &Registry{}
	list := append([]Sink(nil), sinks...)
	r.active.Store(&list)
	return r
}

// Add attaches a sink.  Copy-on-write: readers holding the previous
// list keep a consistent view for the remainder of their step.
func (r *Registry) Add(s Sink) {
	r.mu.Lock()
	old := *r.active.Load()
	list := make([]Sink, 0, len(old)+1)
	list = append(append(list, old...), s)
	r.active.Store(&list)
	r.mu.Unlock()
}

// Active returns the current sinks.  Backend-only hot path; one atomic
// load, no lock.
func (r *Registry) Active() []Sink {
	return *r.active.Load()
}
