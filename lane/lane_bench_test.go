// lane_bench_test.go
//
// Benchmarks for the three hot operations:
//   - Push          – producer-only enqueue latency
//   - PeekCommit    – consumer-only dequeue latency
//   - PeekRelease   – cost of a losing merge-scan visit
//
// A fixed-capacity lane (1 Ki slots) keeps every benchmark L1/L2
// resident.  If a path would fail (lane full/empty) the loop performs
// the opposite operation once and retries — one extra hop per 1 024
// iterations, negligible in the per-op average.

package lane

import (
	"testing"

	"github.com/ItsBasi/quill/record"
)

const benchCap = 1024 // power-of-two, comfortably cache-resident

var benchRec = record.Record{Stamp: 1, Format: "bench"}
var stampSink uint64 // blocks DCE on peeked stamps

func BenchmarkLane_Push(b *testing.B) {
	l := New(benchCap)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !l.Push(&benchRec) { // full? free one slot then retry
			if h, ok := l.Peek(); ok {
				h.Commit()
			}
			_ = l.Push(&benchRec)
		}
	}
}

func BenchmarkLane_PeekCommit(b *testing.B) {
	l := New(benchCap)
	for i := 0; i < benchCap-1; i++ { // leave one slot free
		l.Push(&benchRec)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, ok := l.Peek()
		if !ok { // empty? push one then peek
			l.Push(&benchRec)
			h, _ = l.Peek()
		}
		stampSink = h.Stamp()
		h.Commit()
	}
}

func BenchmarkLane_PeekRelease(b *testing.B) {
	l := New(benchCap)
	l.Push(&benchRec)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, _ := l.Peek()
		stampSink = h.Stamp()
		h.Release()
	}
}
