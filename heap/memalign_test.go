package heap

import "testing"

func TestMemalignBelowNaturalAlignmentDelegatesToAlloc(t *testing.T) {
	a, _ := newTestArena(t, 1<<20)
	b := a.Memalign(8, 100)
	if b == nil || uintptr(len(b)) < 100 {
		t.Fatalf("Memalign(8, 100) = %v, want an Alloc(100)-equivalent buffer", b)
	}
}

func TestMemalignAlignsToPowerOfTwo(t *testing.T) {
	a, _ := newTestArena(t, 4<<20)
	for _, align := range []uintptr{32, 64, 128, 256, 4096} {
		b := a.Memalign(align, 100)
		if b == nil {
			t.Fatalf("Memalign(%d, 100) returned nil", align)
		}
		if addrOf(b)%align != 0 {
			t.Fatalf("Memalign(%d, 100): address %#x not aligned", align, addrOf(b))
		}
		if uintptr(len(b)) < 100 {
			t.Fatalf("Memalign(%d, 100): usable size %d < 100", align, len(b))
		}
	}
}

func TestMemalignNonPowerOfTwoRoundsUp(t *testing.T) {
	a, _ := newTestArena(t, 1<<20)
	b := a.Memalign(100, 50) // 100 rounds up to 128
	if b == nil {
		t.Fatal("Memalign(100, 50) returned nil")
	}
	if addrOf(b)%128 != 0 {
		t.Fatalf("Memalign(100, 50): address %#x not 128-aligned", addrOf(b))
	}
}

func TestVallocIsPageAligned(t *testing.T) {
	a, fp := newTestArena(t, 4<<20)
	b := a.Valloc(10)
	if b == nil {
		t.Fatal("Valloc(10) returned nil")
	}
	if addrOf(b)%uintptr(fp.PageSize()) != 0 {
		t.Fatalf("Valloc(10): address %#x not page-aligned", addrOf(b))
	}
}

func TestPvallocRoundsUpToWholePages(t *testing.T) {
	a, fp := newTestArena(t, 4<<20)
	b := a.Pvalloc(10)
	if b == nil {
		t.Fatal("Pvalloc(10) returned nil")
	}
	ps := uintptr(fp.PageSize())
	if addrOf(b)%ps != 0 {
		t.Fatalf("Pvalloc(10): address %#x not page-aligned", addrOf(b))
	}
	if uintptr(len(b)) < ps {
		t.Fatalf("Pvalloc(10): usable size %d < one page", len(b))
	}
}

func TestMemalignedChunkFreesCleanly(t *testing.T) {
	a, _ := newTestArena(t, 1<<20)
	b := a.Memalign(256, 100)
	a.Free(b)
	// A subsequent allocation should succeed without error, confirming the leader split didn't corrupt the heap.
	c := a.Alloc(64)
	if c == nil {
		t.Fatal("Alloc after freeing a memaligned chunk failed")
	}
}
