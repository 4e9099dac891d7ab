// worker.go
//
// The backend worker: one goroutine on a locked OS thread that merges
// every producer lane into a single globally time-ordered stream and
// dispatches it to the active sinks.
//
// Each merge step peeks the head of every lane, keeps a handle on the
// record with the smallest counter stamp seen so far (strict <, scan in
// registration order, so ties break deterministically toward the
// earlier-registered lane), releases every handle that lost, and only
// commits — removes from its lane — the single record that won the
// step.  Losing records are never touched: peeking is non-destructive.
//
// Lifecycle: NotStarted → Starting → Running → StopRequested →
// Draining → Terminated.  Run is idempotent and returns only after
// startup placement/naming succeeded or failed; Stop is idempotent,
// callable from any thread, and joins the worker after a full drain, so
// every record pushed before the stop request was observed is
// dispatched before Stop returns.

package backend

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ItsBasi/quill/clock"
	"github.com/ItsBasi/quill/config"
	"github.com/ItsBasi/quill/diag"
	"github.com/ItsBasi/quill/lane"
	"github.com/ItsBasi/quill/record"
	"github.com/ItsBasi/quill/registry"
	"github.com/ItsBasi/quill/sink"
)

// Worker states.  Transitions are CAS-guarded so a Stop racing a
// starting worker lands in exactly one of "never ran" or "drained".
const (
	stateNotStarted int32 = iota
	stateStarting
	stateRunning
	stateStopRequested
	stateDraining
	stateTerminated
)

// Worker is the merge engine.  Collaborators are injected; the worker
// owns no global state.
type Worker struct {
	cfg   config.Config
	lanes *registry.Registry
	sinks *sink.Registry
	clk   *clock.Clock

	state     int32
	startOnce sync.Once
	done      chan struct{} // closed on termination
}

// New assembles a worker.  Nothing starts until Run.
func New(cfg config.Config, lanes *registry.Registry, sinks *sink.Registry, clk *clock.Clock) *Worker {
	return &Worker{
		cfg:   cfg,
		lanes: lanes,
		sinks: sinks,
		clk:   clk,
		done:  make(chan struct{}),
	}
}

// Run starts the backend thread and returns once startup configuration
// has been applied.  CPU placement and thread naming failures abort
// before the merge loop begins and surface here; a second Run while the
// worker is live (or already terminated) is a no-op returning nil.
func (w *Worker) Run() error {
	var err error
	first := false
	w.startOnce.Do(func() {
		first = true
		atomic.StoreInt32(&w.state, stateStarting)
		errc := make(chan error, 1)
		go w.loop(errc)
		err = <-errc
	})
	if !first {
		return nil
	}
	return err
}

// Stop requests termination and blocks until the worker thread has
// fully drained and exited.  Callable from any thread, any number of
// times.  Cooperative: takes effect at the next loop boundary, so the
// worst-case latency before draining starts is one idle sleep.
func (w *Worker) Stop() {
	for {
		switch s := atomic.LoadInt32(&w.state); s {
		case stateNotStarted:
			return // never ran; nothing to join
		case stateStarting, stateRunning:
			if atomic.CompareAndSwapInt32(&w.state, s, stateStopRequested) {
				<-w.done
				return
			}
			// lost the race against a state transition; retry
		default:
			<-w.done
			return
		}
	}
}

// loop is the body of the backend thread.
func (w *Worker) loop(errc chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := w.applyPlacement(); err != nil {
		atomic.StoreInt32(&w.state, stateTerminated)
		close(w.done)
		errc <- err
		return
	}

	// A Stop issued during startup wins this CAS; skip straight to the
	// drain so records pushed meanwhile are still delivered.
	running := atomic.CompareAndSwapInt32(&w.state, stateStarting, stateRunning)
	errc <- nil

	if running {
		for atomic.LoadInt32(&w.state) == stateRunning {
			if !w.step() {
				// Nothing anywhere: the only voluntary sleep in the
				// system.  Trades ≤SleepDuration of added latency for
				// zero idle spin.
				w.lanes.Reap()
				time.Sleep(w.cfg.SleepDuration)
			}
		}
	}

	// Drain: repeat merge steps without sleeping until no lane holds a
	// record.  Everything pushed before the stop observation is
	// dispatched; pushes racing the final scan are best-effort.
	atomic.StoreInt32(&w.state, stateDraining)
	for w.step() {
	}
	w.lanes.Reap()
	atomic.StoreInt32(&w.state, stateTerminated)
	close(w.done)
}

// applyPlacement performs the one-time startup configuration: CPU
// affinity and thread display name.  Platform stubs report
// errUnsupported, which is tolerated unless placement was configured
// as mandatory; a real failure on a supporting platform is always
// fatal (downstream latency and identification assumptions depend on
// both).
func (w *Worker) applyPlacement() error {
	if w.cfg.CPU != config.NoAffinity {
		if err := setAffinity(w.cfg.CPU); err != nil {
			if err != errUnsupported || w.cfg.RequirePlacement {
				return fmt.Errorf("backend: pin to cpu %d: %w", w.cfg.CPU, err)
			}
		}
	}
	if w.cfg.ThreadName != "" {
		if err := setThreadName(w.cfg.ThreadName); err != nil {
			if err != errUnsupported || w.cfg.RequirePlacement {
				return fmt.Errorf("backend: name thread %q: %w", w.cfg.ThreadName, err)
			}
		}
	}
	return nil
}

// step executes one merge step: scan all lanes, dispatch the single
// globally-oldest record, commit its removal.  Returns false when no
// lane yielded a record (the idle determination).
func (w *Worker) step() bool {
	var (
		best    lane.Handle
		bestSet bool
		minSt   uint64
		origin  *registry.Producer
	)

	for _, p := range w.lanes.Snapshot() {
		h, ok := p.Lane().Peek()
		if !ok {
			continue // empty lane: expected, counted toward idle
		}
		if !bestSet || h.Stamp() < minSt {
			// New minimum: let the previous candidate go back to its
			// lane un-consumed before holding the new one.
			if bestSet {
				best.Release()
			}
			best, minSt, origin, bestSet = h, h.Stamp(), p, true
		} else {
			h.Release()
		}
	}

	if !bestSet {
		return false
	}

	w.dispatch(best.Record(), origin)
	best.Commit()
	return true
}

// dispatch finalizes the winning record and forwards it to every active
// sink.  Sink failures are isolated per sink: reported to stderr and
// swallowed, so one bad sink can neither starve its peers nor halt the
// merge.
func (w *Worker) dispatch(r *record.Record, origin *registry.Producer) {
	if r.Kind == record.KindFlush {
		for _, s := range w.sinks.Active() {
			if err := s.Flush(); err != nil {
				diag.Error("quill: sink flush", err)
			}
		}
		if r.Done != nil {
			close(r.Done)
		}
		return
	}

	ts, err := w.clk.Convert(r.Stamp)
	if err != nil {
		// Calibration still warming up: coarse wall-clock fallback.
		ts = time.Now()
	}
	e := record.Entry{
		Time:   ts,
		Origin: origin.Name(),
		Level:  r.Level,
		Body:   r.Render(),
	}
	for _, s := range w.sinks.Active() {
		if err := s.Receive(&e); err != nil {
			diag.Error("quill: sink receive", err)
		}
	}
}

// Terminated reports whether the worker has fully exited.
func (w *Worker) Terminated() bool {
	return atomic.LoadInt32(&w.state) == stateTerminated
}
