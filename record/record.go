// record.go
//
// Record is the unit that travels through a lane: a counter timestamp
// stamped on the producer thread plus an opaque, deferred payload.  The
// payload is never interpreted on the hot path — formatting happens on
// the backend thread only, once the record has won a merge step.

package record

import (
	"fmt"
	"time"

	"github.com/ItsBasi/quill/clock"
)

// Kind discriminates log events from control records.
type Kind uint8

const (
	// KindLog is a normal log event carrying a formatting payload.
	KindLog Kind = iota
	// KindFlush is a control record: when it reaches the front of the
	// global merge order, every active sink is flushed and the waiting
	// producer is signalled through Done.
	KindFlush
)

// Level is the severity attached to a log record.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}

// String returns the fixed upper-case label for lvl.
func (lvl Level) String() string {
	if int(lvl) < len(levelNames) {
		return levelNames[lvl]
	}
	return "UNKNOWN"
}

// Record is one log-call instance.  It is copied in place into a lane
// slot by the producer and destroyed there when the backend commits its
// removal.  Stamps within one lane are non-decreasing because a single
// producer assigns them in call order.
type Record struct {
	Stamp  clock.Counter // counter value taken at the call site
	Kind   Kind
	Level  Level
	Format string
	Args   []any
	Done   chan struct{} // flush rendezvous; nil for KindLog
}

// Render materializes the deferred payload.  Backend-thread only; the
// producer never pays for formatting.
func (r *Record) Render() string {
	if len(r.Args) == 0 {
		return r.Format
	}
	return fmt.Sprintf(r.Format, r.Args...)
}

// Entry is a finalized record as handed to sinks: wall-clock time,
// producer identity and the materialized body.
type Entry struct {
	Time   time.Time `json:"ts"`
	Origin string    `json:"origin"`
	Level  Level     `json:"level"`
	Body   string    `json:"body"`
}
