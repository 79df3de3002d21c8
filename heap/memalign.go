package heap

// Memalign returns a chunk whose user pointer is a multiple of alignment.
// Alignments at or below mallocAlignment are free (every chunk is already
// that aligned) and fall straight through to Alloc.
//
// Strategy: over-allocate enough slack to always find an aligned offset
// with room for a standalone leader chunk, then free the leader (or shift
// the aligned point forward by one more alignment unit when the leader
// would be too small to stand on its own). Any slack left at the tail is
// kept as extra usable size rather than split off — callers only need
// usable_size(p) >= requested bytes, not a tight fit.
func (a *Arena) Memalign(alignment, n uintptr) []byte {
	if alignment <= mallocAlignment {
		return a.Alloc(n)
	}
	if alignment&(alignment-1) != 0 {
		alignment = nextPow2(alignment)
	}

	nb, ok := request2size(n)
	if !ok {
		a.fail(ErrRequestTooLarge)
		return nil
	}

	// +2*alignment (not +alignment) covers both the initial aligned offset
	// and the one-alignment-unit shift taken when the leading leader chunk
	// would otherwise be smaller than minChunkSize.
	total := nb + 2*alignment + minChunkSize
	raw := a.Alloc(total)
	if raw == nil {
		return nil
	}

	mem := addrOf(raw)
	p := memToChunk(mem)

	alignedMem := (mem + alignment - 1) &^ (alignment - 1)
	if alignedMem == mem {
		return raw
	}

	newChunk := memToChunk(alignedMem)
	leaderSize := uintptr(newChunk) - uintptr(p)
	if leaderSize != 0 && leaderSize < minChunkSize {
		alignedMem += alignment
		newChunk = memToChunk(alignedMem)
		leaderSize = uintptr(newChunk) - uintptr(p)
	}

	origSize := p.size()
	finalSize := origSize - leaderSize

	if p.isMmapped() {
		// mmapped chunks have no physical predecessor to speak of; record
		// the extra leading offset the same way mmapAlloc records its
		// initial alignment correction, and keep the IS_MMAPPED flag.
		newChunk.setPrevSize(p.prevSize() + leaderSize)
		newChunk.initHeader(finalSize, isMmappedBit)
		return memSlice(newChunk.mem(), usableSize(newChunk))
	}

	newChunk.initHeader(finalSize, prevInuseBit)

	p.setSize(leaderSize)
	p.setPrevInuse()
	a.freeChunk(p)

	return memSlice(newChunk.mem(), usableSize(newChunk))
}

// Valloc returns a chunk aligned to the system page size.
func (a *Arena) Valloc(n uintptr) []byte {
	return a.Memalign(uintptr(a.provider.PageSize()), n)
}

// Pvalloc rounds n up to a whole number of pages, then vallocs it — for
// callers that want to mmap/mprotect the result themselves.
func (a *Arena) Pvalloc(n uintptr) []byte {
	pageSize := uintptr(a.provider.PageSize())
	rounded := (n + pageSize - 1) &^ (pageSize - 1)
	return a.Memalign(pageSize, rounded)
}

func nextPow2(n uintptr) uintptr {
	if n == 0 {
		return 1
	}
	p := uintptr(1)
	for p < n {
		p <<= 1
	}
	return p
}
