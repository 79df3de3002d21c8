package heap

// Alloc implements the allocation state machine:
//
//	S0 uninitialized shortcut -> consolidate (inits if needed), jump to S6
//	S1 fastbin hit
//	S2 exact small bin
//	S3 large-request pre-consolidation
//	S4 drain the unsorted bin (with last-remainder shortcut)
//	S5 large-bin scan
//	S6 binmap scan
//	S7 top
//	S8 system
//
// Alloc(0) returns a minimum-sized chunk, never nil. A nil result means
// a.LastError is ErrRequestTooLarge or ErrOutOfMemory.
func (a *Arena) Alloc(n uintptr) []byte {
	nb, ok := request2size(n)
	if !ok {
		a.fail(ErrRequestTooLarge)
		return nil
	}
	a.ok()

	c, ok := a.allocChunk(nb)
	if !ok {
		a.fail(ErrOutOfMemory)
		return nil
	}
	return memSlice(c.mem(), usableSize(c))
}

// allocChunk runs the state machine for an already-padded chunk size nb.
// Used directly by Alloc and recursively by sysAlloc's single
// fastbin-consolidate-and-retry step in sysAlloc.
func (a *Arena) allocChunk(nb uintptr) (chunkPtr, bool) {
	if !a.anyChunks {
		a.consolidate()
		return a.allocFromS6(nb)
	}

	// S1: fastbin hit.
	if nb <= a.maxFast {
		if i := fastbinIndex(nb); a.fastbins[i] != 0 {
			return a.fastbinPop(i), true
		}
	}

	// S2: exact small bin.
	if isSmallRequest(nb) {
		idx := smallbinIndex(nb)
		if idx <= lastSmall && !a.bins.empty(idx) {
			victim := a.bins.removeLast(idx)
			victim.next().setPrevInuse()
			return victim, true
		}
	}

	// S3: large-request pre-consolidation.
	var idx int
	if isLargeRequest(nb) {
		if a.fastChunks {
			a.consolidate()
		}
		idx = largebinIndex(nb)
	}

	// S4: drain the unsorted bin.
	if c, ok := a.drainUnsorted(nb); ok {
		return c, true
	}

	// S5: large-bin scan.
	if isLargeRequest(nb) {
		if c, ok := a.scanLargeBin(idx, nb); ok {
			return c, true
		}
	}

	return a.allocFromS6(nb)
}

func isSmallRequest(nb uintptr) bool {
	return smallbinIndex(nb) <= lastSmall
}

func isLargeRequest(nb uintptr) bool {
	return !isSmallRequest(nb)
}

func usableSize(c chunkPtr) uintptr {
	if c.isMmapped() {
		return c.size() - 2*sizeSz
	}
	return c.size() - sizeSz
}

// drainUnsorted implements S4: pop from the unsorted bin's tail one chunk
// at a time, either satisfying nb directly, taking the last-remainder
// shortcut, or filing the chunk into its proper bin.
func (a *Arena) drainUnsorted(nb uintptr) (chunkPtr, bool) {
	for {
		unsorted := a.bins.bin(unsortedBin)
		victim := unsorted.bk()
		if victim == unsorted {
			return 0, false
		}

		size := victim.size()

		if isSmallRequest(nb) &&
			victim.bk() == unsorted && victim.fd() == unsorted &&
			victim == a.lastRemainder &&
			size > nb+minChunkSize {
			// Last-remainder shortcut: the unsorted bin
			// is a singleton containing exactly the last remainder.
			unlinkChunk(victim)
			remainder := chunkPtr(uintptr(victim) + nb)
			newRemSize := size - nb
			remainder.initHeader(newRemSize, prevInuseBit)
			remainder.setFoot(newRemSize)
			a.checkFreeChunk(remainder, newRemSize)

			victim.setSize(nb)
			victim.setPrevInuse()

			a.bins.insertFront(unsortedBin, remainder)
			a.lastRemainder = remainder
			return victim, true
		}

		unlinkChunk(victim)

		if size == nb {
			victim.next().setPrevInuse()
			return victim, true
		}

		if isSmallRequest(size) {
			a.bins.insertFront(smallbinIndex(size), victim)
			continue
		}

		a.largeBinInsertSorted(victim, size)
	}
}

// largeBinInsertSorted files a chunk into its large bin in descending size
// order, ties broken LIFO on insertion (scan from the head/largest end; a
// new chunk goes in front of existing equal-size entries, so the oldest of
// a size sits nearest the tail for FIFO allocation).
func (a *Arena) largeBinInsertSorted(victim chunkPtr, size uintptr) {
	idx := largebinIndex(size)
	head := a.bins.bin(idx)

	if a.bins.empty(idx) {
		victim.setFd(head)
		victim.setBk(head)
		head.setFd(victim)
		head.setBk(victim)
		a.bins.markNonEmpty(idx)
		return
	}

	cur := head.fd()
	for cur != head && cur.size() > size {
		cur = cur.fd()
	}
	// Insert victim just before cur (i.e. after the last chunk with size
	// > victim's — ties land before existing equal-size entries, so the
	// oldest of a size class stays nearer the tail for FIFO allocation).
	prev := cur.bk()
	victim.setFd(cur)
	victim.setBk(prev)
	prev.setFd(victim)
	cur.setBk(victim)
}

// scanLargeBin implements S5: scan large bin idx from its tail (smallest
// end), take the first chunk with size >= nb.
func (a *Arena) scanLargeBin(idx int, nb uintptr) (chunkPtr, bool) {
	if !a.bins.binmapSet(idx) {
		return 0, false
	}
	head := a.bins.bin(idx)
	if a.bins.empty(idx) {
		a.bins.markMaybeEmpty(idx)
		return 0, false
	}
	for cur := head.bk(); cur != head; cur = cur.bk() {
		if cur.size() >= nb {
			return a.splitOrAbsorb(cur, nb), true
		}
	}
	return 0, false
}

// splitOrAbsorb carves nb out of a free chunk of size >= nb. If the
// remainder would fall below minChunkSize, the whole chunk is handed over
// (absorbed); otherwise it is split and the remainder pushed onto
// unsorted.
func (a *Arena) splitOrAbsorb(victim chunkPtr, nb uintptr) chunkPtr {
	unlinkChunk(victim)
	size := victim.size()
	remSize := size - nb

	if remSize < minChunkSize {
		victim.next().setPrevInuse()
		return victim
	}

	remainder := chunkPtr(uintptr(victim) + nb)
	remainder.initHeader(remSize, prevInuseBit)
	remainder.setFoot(remSize)
	a.checkFreeChunk(remainder, remSize)

	victim.setSize(nb)
	victim.setPrevInuse()

	a.bins.insertFront(unsortedBin, remainder)
	if isSmallRequest(nb) {
		a.lastRemainder = remainder
	}
	return victim
}

// allocFromS6 runs S6 (binmap scan) through S8 (system) — the tail of the
// state machine shared by the S0 uninitialized shortcut and the ordinary
// path once S1-S5 have all missed.
func (a *Arena) allocFromS6(nb uintptr) (chunkPtr, bool) {
	// Scan from one past nb's own bin, whether that bin is a smallbin or a
	// large bin — the binmap is one flat bit vector over all nBins, so a
	// small request that missed its exact smallbin can still be satisfied
	// by a larger smallbin before falling through to the large bins.
	startIdx := smallbinIndex(nb) + 1
	if isLargeRequest(nb) {
		startIdx = largebinIndex(nb) + 1
	}

	for idx := a.bins.nextSetBit(startIdx); idx != -1 && idx < nBins; idx = a.bins.nextSetBit(idx + 1) {
		if a.bins.empty(idx) {
			a.bins.markMaybeEmpty(idx)
			continue
		}
		head := a.bins.bin(idx)
		tail := head.bk()
		if tail.size() < nb {
			continue
		}
		return a.splitOrAbsorb(tail, nb), true
	}

	// S7: top.
	if c, ok := a.carveTop(nb); ok {
		return c, true
	}

	// S8: system.
	return a.sysAlloc(nb)
}
