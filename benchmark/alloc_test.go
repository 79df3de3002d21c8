// Package benchmark holds throughput and fragmentation benchmarks for
// heap.Arena.
package benchmark

import (
	"testing"

	"github.com/heapkit/dlmalloc/heap"
)

func BenchmarkAllocFreeSmall(b *testing.B) {
	a := heap.New()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := a.Alloc(32)
		a.Free(buf)
	}
}

func BenchmarkAllocFreeLarge(b *testing.B) {
	a := heap.New()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := a.Alloc(64 * 1024)
		a.Free(buf)
	}
}

// BenchmarkFragmentedWorkingSet allocates a working set of many small
// chunks, frees every other one (fragmenting the heap), then measures
// steady-state alloc/free throughput against the resulting free-list
// shape.
func BenchmarkFragmentedWorkingSet(b *testing.B) {
	a := heap.New()
	const n = 4096
	bufs := make([][]byte, n)
	for i := range bufs {
		bufs[i] = a.Alloc(96)
	}
	for i := 0; i < n; i += 2 {
		a.Free(bufs[i])
		bufs[i] = nil
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf := a.Alloc(96)
		a.Free(buf)
	}
}

func BenchmarkReallocGrowInPlace(b *testing.B) {
	a := heap.New()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := a.Alloc(64)
		buf = a.Realloc(buf, 4096)
		a.Free(buf)
	}
}

func BenchmarkIndependentCalloc(b *testing.B) {
	a := heap.New()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		chunks := a.IndependentCalloc(64, 128)
		for _, c := range chunks {
			a.Free(c)
		}
	}
}
