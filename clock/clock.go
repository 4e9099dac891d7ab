// clock.go
//
// Calibrated hardware-counter clock.  Producers stamp records with a raw
// counter read (RDTSC on amd64, monotonic nanotime elsewhere) — a handful
// of cycles, no syscall, comparable across threads.  The backend thread
// is the only caller that ever needs wall-clock time, and only once per
// dispatched record, so the expensive part — turning counter ticks into
// a time.Time — is funneled through a calibration built during a warm-up
// window after construction.
//
// Until warm-up completes the clock is NotReady: counters are still
// totally ordered (the merge works), but Convert fails and callers fall
// back to a coarse wall-clock read instead of blocking.

package clock

import (
	"errors"
	"sync/atomic"
	"time"
)

// Counter is an opaque, totally ordered counter value.  Only < matters.
type Counter uint64

// ErrNotReady is returned by Convert before calibration completes.
var ErrNotReady = errors.New("clock: calibration not complete")

// Now reads the raw counter.  Producer hot path; no allocation.
//
//go:nosplit
func Now() Counter {
	return Counter(ticks())
}

// calibration is the immutable counter→wall mapping published once the
// warm-up window closes.
type calibration struct {
	base      Counter   // counter value at the reference instant
	wall      time.Time // wall clock at the reference instant
	nsPerTick float64
}

// Clock owns one calibration.  Safe for concurrent Ready/Convert calls;
// in practice only the backend thread uses them.
type Clock struct {
	calib atomic.Pointer[calibration]
}

// New starts calibrating immediately and returns without waiting.  The
// clock becomes Ready roughly warmup after the call; quill's backend
// keeps running meanwhile on the NotReady fallback path.
func New(warmup time.Duration) *Clock {
	if warmup <= 0 {
		warmup = 500 * time.Millisecond
	}
	c := &Clock{}
	go c.calibrate(warmup)
	return c
}

// calibrate samples (counter, wall) pairs across the warm-up window and
// derives the tick rate from the endpoints.  Sampling both values twice
// and keeping the tighter bracket trims scheduler noise off the edges.
func (c *Clock) calibrate(warmup time.Duration) {
	t0, w0 := samplePair()

	// A few intermediate sleeps rather than one long one, so a machine
	// suspend mid-window distorts at most one segment of the estimate.
	const steps = 4
	for i := 0; i < steps; i++ {
		time.Sleep(warmup / steps)
	}

	t1, w1 := samplePair()

	dt := float64(t1 - t0)
	if dt <= 0 {
		// Counter went backwards (VM migration, non-invariant TSC).
		// Re-arm with a fresh window instead of publishing garbage.
		go c.calibrate(warmup)
		return
	}

	c.calib.Store(&calibration{
		base:      Counter(t1),
		wall:      w1,
		nsPerTick: float64(w1.Sub(w0)) / dt,
	})
}

// samplePair reads the counter immediately around a wall-clock read and
// returns the midpoint counter, bracketing out the time.Now cost.
func samplePair() (uint64, time.Time) {
	a := ticks()
	w := time.Now()
	b := ticks()
	return a + (b-a)/2, w
}

// Ready reports whether calibration has completed.
func (c *Clock) Ready() bool {
	return c.calib.Load() != nil
}

// Convert maps a counter value to wall-clock time.  Backend-thread use,
// once per dispatched record.  Fails with ErrNotReady before the warm-up
// window closes; callers must substitute a coarse time.Now rather than
// wait.
func (c *Clock) Convert(ct Counter) (time.Time, error) {
	cal := c.calib.Load()
	if cal == nil {
		return time.Time{}, ErrNotReady
	}
	// Signed delta: records stamped before the reference instant sit in
	// the past of the calibration point.
	d := float64(int64(ct-cal.base)) * cal.nsPerTick
	return cal.wall.Add(time.Duration(d)), nil
}
