package heap

// Free releases a previously allocated buffer. Free(nil) is a no-op, as is
// Free of any empty slice (mirrors the zero-size Alloc contract).
func (a *Arena) Free(b []byte) {
	if b == nil {
		return
	}
	a.ok()
	mem := addrOf(b)
	if mem == 0 {
		return
	}
	a.freeChunk(memToChunk(mem))
}

// freeChunk is Free's core, taking a chunk pointer directly so realloc and
// memalign can deposit a leader/remainder split back into the allocator
// without going through a synthetic user slice.
func (a *Arena) freeChunk(p chunkPtr) {
	s := p.rawSize()

	if s&isMmappedBit != 0 {
		a.freeMmapped(p, s&^sizeBits)
		return
	}

	size := s &^ sizeBits
	if size <= a.maxFast {
		i := fastbinIndex(size)
		a.fastbinPush(i, p)
		return
	}

	a.coalesceAndDeposit(p)
	a.anyChunks = true

	if size >= a.trimThreshold/fastbinConsolidationDivisor {
		a.consolidate()
		if a.top.size() > a.trimThreshold {
			a.trim(a.topPad)
		}
	}
}

// freeMmapped releases a chunk obtained via the page-mapping provider.
// prevSize holds the leading misalignment recorded at allocation time, so
// the real mapping starts prevSize bytes before the chunk header.
func (a *Arena) freeMmapped(p chunkPtr, size uintptr) {
	prevSize := p.prevSize()
	base := uintptr(p) - prevSize
	length := size + prevSize
	a.provider.PageUnmap(base, int(length))
	a.nMmaps--
	a.mmappedMem -= length
}
