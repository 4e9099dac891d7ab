package sink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ItsBasi/quill/record"
)

// memSink records everything it receives; the test double used across
// this package and the backend tests.
type memSink struct {
	entries []record.Entry
	flushes int
	closed  bool
}

func (m *memSink) Receive(e *record.Entry) error {
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memSink) Flush() error {
	m.flushes++
	return nil
}

func (m *memSink) Close() error {
	m.closed = true
	return nil
}

func entry(body string) *record.Entry {
	return &record.Entry{
		Time:   time.Unix(0, 1_700_000_000_000_000_000),
		Origin: "worker-1",
		Level:  record.LevelInfo,
		Body:   body,
	}
}

func TestRegistryActiveReflectsConstruction(t *testing.T) {
	a, b := &memSink{}, &memSink{}
	r := NewRegistry(a, b)
	active := r.Active()
	require.Len(t, active, 2)
	assert.Same(t, Sink(a), active[0])
	assert.Same(t, Sink(b), active[1])
}

func TestRegistryAddCopyOnWrite(t *testing.T) {
	a := &memSink{}
	r := NewRegistry(a)

	before := r.Active()
	r.Add(&memSink{})
	after := r.Active()

	// The list held before Add must be unchanged: a reader mid-step
	// keeps a consistent view.
	assert.Len(t, before, 1)
	assert.Len(t, after, 2)
}

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Active())
}
