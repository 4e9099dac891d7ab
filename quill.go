// quill.go
//
// Producer-facing surface of the asynchronous logging backend.  A Quill
// wires the collaborators together — lane registry, sink registry,
// calibrated clock, merge worker — and hands out Loggers.  Each Logger
// owns the write side of exactly one lane and must only be used from
// the goroutine it was created for: that single-writer discipline is
// what lets the entire pipeline run without a lock.
//
// The log call itself does three cheap things and returns: read the
// counter clock, build a record, copy it into the ring.  Formatting,
// timestamp conversion and sink I/O all happen later on the backend
// thread.

package quill

import (
	"sync/atomic"

	"github.com/ItsBasi/quill/backend"
	"github.com/ItsBasi/quill/clock"
	"github.com/ItsBasi/quill/config"
	"github.com/ItsBasi/quill/record"
	"github.com/ItsBasi/quill/registry"
	"github.com/ItsBasi/quill/sink"
)

// pushSpinBudget bounds the producer-side retry loop on a full lane
// before the record is counted as dropped.  Small on purpose: a
// producer must never meaningfully block on the logging path.
const pushSpinBudget = 64

// Quill is one assembled logging backend instance.
type Quill struct {
	cfg    config.Config
	lanes  *registry.Registry
	sinks  *sink.Registry
	clk    *clock.Clock
	worker *backend.Worker
}

// New assembles a backend with the given sinks.  Call Start to launch
// the merge thread.
func New(cfg config.Config, sinks ...sink.Sink) *Quill {
	if cfg.LaneCapacity == 0 {
		cfg.LaneCapacity = config.Default().LaneCapacity
	}
	if cfg.SleepDuration == 0 {
		cfg.SleepDuration = config.Default().SleepDuration
	}
	q := &Quill{
		cfg:   cfg,
		lanes: registry.New(cfg.LaneCapacity),
		sinks: sink.NewRegistry(sinks...),
		clk:   clock.New(cfg.ClockWarmup),
	}
	q.worker = backend.New(cfg, q.lanes, q.sinks, q.clk)
	return q
}

// Start launches the backend thread.  Placement and naming failures
// surface here; idempotent once started.
func (q *Quill) Start() error {
	return q.worker.Run()
}

// Stop drains every lane and joins the backend thread.  Records pushed
// before the stop request is observed are guaranteed dispatched;
// idempotent.
func (q *Quill) Stop() {
	q.worker.Stop()
}

// AddSink attaches a sink; it starts receiving from the next merge
// step.
func (q *Quill) AddSink(s sink.Sink) {
	q.sinks.Add(s)
}

// Logger registers a new lane under name and returns its producer
// handle.  One goroutine per Logger.
func (q *Quill) Logger(name string) *Logger {
	return &Logger{q: q, p: q.lanes.Register(name)}
}

// Logger is the single-goroutine producer handle for one lane.
type Logger struct {
	q *Quill
	p *registry.Producer

	dropped uint64 // records rejected by a full lane
	noted   uint64 // drops already summarized into the stream
}

// Logf stamps and enqueues one record.  Non-blocking: a persistently
// full lane drops the record and accounts for it; a later successful
// call emits a summary so losses stay visible in the stream.
func (l *Logger) Logf(lvl record.Level, format string, args ...any) {
	if d := atomic.LoadUint64(&l.dropped); d > l.noted {
		summary := record.Record{
			Stamp:  clock.Now(),
			Kind:   record.KindLog,
			Level:  record.LevelError,
			Format: "quill: %d records dropped on full lane",
			Args:   []any{d - l.noted},
		}
		if l.p.Lane().Push(&summary) {
			l.noted = d
		}
	}

	r := record.Record{
		Stamp:  clock.Now(),
		Kind:   record.KindLog,
		Level:  lvl,
		Format: format,
		Args:   args,
	}
	if !l.p.Lane().PushSpin(&r, pushSpinBudget) {
		atomic.AddUint64(&l.dropped, 1)
	}
}

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...any) { l.Logf(record.LevelDebug, format, args...) }

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, args ...any) { l.Logf(record.LevelInfo, format, args...) }

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...any) { l.Logf(record.LevelWarn, format, args...) }

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...any) { l.Logf(record.LevelError, format, args...) }

// Criticalf logs at LevelCritical.
func (l *Logger) Criticalf(format string, args ...any) {
	l.Logf(record.LevelCritical, format, args...)
}

// Flush enqueues a flush command record and blocks until the backend
// has dispatched everything ordered before it and flushed every sink.
// Requires a running backend; returns false if the command could not be
// enqueued.
func (l *Logger) Flush() bool {
	done := make(chan struct{})
	r := record.Record{
		Stamp: clock.Now(),
		Kind:  record.KindFlush,
		Done:  done,
	}
	if !l.p.Lane().PushSpin(&r, pushSpinBudget*16) {
		return false
	}
	<-done
	return true
}

// Dropped reports how many records this logger has discarded on a full
// lane.
func (l *Logger) Dropped() uint64 {
	return atomic.LoadUint64(&l.dropped)
}

// Close marks the producer as ended.  Buffered records are still
// drained; the lane is reclaimed once the backend no longer references
// it.  The Logger must not be used afterwards.
func (l *Logger) Close() {
	l.p.Close()
}
