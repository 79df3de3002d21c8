package heap

import (
	"testing"

	"github.com/heapkit/dlmalloc/internal/sysmem"
)

// newTestArena builds an Arena over a FakeProvider: deterministic, no real
// mmap calls, with room to inject grow failures and foreign-extension
// simulation per test.
func newTestArena(t *testing.T, regionSize int) (*Arena, *sysmem.FakeProvider) {
	t.Helper()
	fp := sysmem.NewFakeProvider(regionSize, sysmem.DefaultPageSize)
	a := New(WithProvider(fp))
	return a, fp
}

func isAligned(b []byte) bool {
	return addrOf(b)%mallocAlignment == 0
}
