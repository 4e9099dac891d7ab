package lane

import (
	"testing"

	"github.com/ItsBasi/quill/clock"
	"github.com/ItsBasi/quill/record"
)

func rec(stamp uint64) *record.Record {
	return &record.Record{Stamp: clock.Counter(stamp), Format: "x"}
}

// TestNewPanicsOnBadSize verifies that the constructor rejects sizes
// that are either non-power-of-two or ≤ 0.  We wrap the call in an
// inlined closure so we can recover() and inspect the panic without
// terminating the whole test run.
func TestNewPanicsOnBadSize(t *testing.T) {
	bad := []int{0, -4, 3, 1000} // 3 and 1000 are not powers of two
	for _, sz := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%d) should panic", sz)
				}
			}()
			_ = New(sz) // expect panic
		}()
	}
}

// TestPushPeekCommitRoundTrip performs a minimal sanity round-trip on a
// size-8 lane: push one record, peek it, commit, confirm empty.
func TestPushPeekCommitRoundTrip(t *testing.T) {
	l := New(8)
	if !l.Push(rec(42)) {
		t.Fatal("first push must succeed")
	}
	h, ok := l.Peek()
	if !ok {
		t.Fatal("peek after push must find the record")
	}
	if h.Stamp() != 42 {
		t.Fatalf("stamp = %d, want 42", h.Stamp())
	}
	h.Commit()
	if !l.Empty() {
		t.Fatal("lane should be empty after commit")
	}
}

// TestReleaseIsNonDestructive peeks the same record repeatedly with
// Release in between and checks it is still there, unchanged, until the
// one Commit that finally removes it.
func TestReleaseIsNonDestructive(t *testing.T) {
	l := New(4)
	if !l.Push(rec(7)) {
		t.Fatal("push failed")
	}
	for i := 0; i < 5; i++ {
		h, ok := l.Peek()
		if !ok {
			t.Fatalf("peek %d: record vanished without a commit", i)
		}
		if h.Stamp() != 7 {
			t.Fatalf("peek %d: stamp = %d, want 7", i, h.Stamp())
		}
		h.Release()
	}
	h, _ := l.Peek()
	h.Commit()
	if !l.Empty() {
		t.Fatal("lane should be empty after the single commit")
	}
}

// TestPushFailsWhenFull fills the lane to capacity and checks that a
// further Push returns false (non-blocking back-pressure).
func TestPushFailsWhenFull(t *testing.T) {
	l := New(4)
	for i := 0; i < 4; i++ {
		if !l.Push(rec(uint64(i))) {
			t.Fatalf("push %d unexpectedly failed", i)
		}
	}
	if l.Push(rec(99)) {
		t.Fatal("push into full lane should return false")
	}
	if l.PushSpin(rec(99), 16) {
		t.Fatal("bounded spin push into full lane should return false")
	}
}

// TestFIFOOrder pushes stamps 0..9 and checks commits observe them in
// enqueue order.
func TestFIFOOrder(t *testing.T) {
	l := New(16)
	for i := 0; i < 10; i++ {
		if !l.Push(rec(uint64(i))) {
			t.Fatalf("push %d failed", i)
		}
	}
	for i := 0; i < 10; i++ {
		h, ok := l.Peek()
		if !ok {
			t.Fatalf("peek %d found nothing", i)
		}
		if h.Stamp() != uint64(i) {
			t.Fatalf("commit %d: stamp = %d, want %d", i, h.Stamp(), i)
		}
		h.Commit()
	}
}

// TestWrapAround exercises >mask iterations to ensure head/tail wrap
// correctly and masking math is sound.
func TestWrapAround(t *testing.T) {
	const size = 4
	l := New(size)
	for i := 0; i < 10; i++ {
		if !l.Push(rec(uint64(i))) {
			t.Fatalf("push %d failed unexpectedly", i)
		}
		h, ok := l.Peek()
		if !ok || h.Stamp() != uint64(i) {
			t.Fatalf("iteration %d: got %v/%d, want %d", i, ok, h.Stamp(), i)
		}
		h.Commit()
	}
}

// TestCommitClearsPayload checks the slot drops its references when the
// record is destroyed, so a recycled slot cannot leak an old payload.
func TestCommitClearsPayload(t *testing.T) {
	l := New(4)
	r := rec(1)
	r.Args = []any{"secret"}
	l.Push(r)
	h, _ := l.Peek()
	h.Commit()

	s := &l.buf[0]
	if s.rec.Format != "" || s.rec.Args != nil {
		t.Fatal("committed slot still references the old payload")
	}
}

// TestSPSCConcurrent runs one producer goroutine against one consumer
// goroutine and verifies every record arrives exactly once, in order.
func TestSPSCConcurrent(t *testing.T) {
	const total = 100_000
	l := New(256)
	got := make([]uint64, 0, total)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for len(got) < total {
			h, ok := l.Peek()
			if !ok {
				continue
			}
			got = append(got, h.Stamp())
			h.Commit()
		}
	}()

	for i := uint64(0); i < total; i++ {
		for !l.Push(rec(i)) {
			cpuRelax()
		}
	}
	<-done

	for i, st := range got {
		if st != uint64(i) {
			t.Fatalf("position %d: stamp = %d, want %d", i, st, i)
		}
	}
}
