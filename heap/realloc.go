package heap

// Realloc resizes a previously allocated buffer, preserving the lesser of
// its old and new usable size. Realloc(nil, n) is Alloc(n); Realloc(b, 0)
// shrinks b in place to a minimum-sized chunk, the same size Alloc(0)
// returns, rather than returning nil.
//
// Three outcomes, tried in order:
//
//	shrink in place   remainder big enough to split off, else left as slop
//	grow in place      into the top chunk or a free physical neighbour
//	move               allocate + copy + free, when neither fits
func (a *Arena) Realloc(b []byte, n uintptr) []byte {
	if b == nil {
		return a.Alloc(n)
	}
	a.ok()

	mem := addrOf(b)
	if mem == 0 {
		return a.Alloc(n)
	}
	p := memToChunk(mem)

	if p.isMmapped() {
		return a.reallocMoved(p, b, n)
	}

	nb, ok := request2size(n)
	if !ok {
		a.fail(ErrRequestTooLarge)
		return nil
	}

	curSize := p.size()

	if nb <= curSize {
		return a.reallocShrink(p, curSize, nb)
	}

	next := p.next()
	if next == a.top {
		if grown, ok := a.growIntoTop(p, curSize, nb); ok {
			return grown
		}
	} else if !nextIsInUse(next) {
		if grown, ok := a.growIntoNeighbour(p, curSize, next, nb); ok {
			return grown
		}
	}

	return a.reallocMoved(p, b, n)
}

// reallocShrink keeps p in place. If the freed tail is big enough to stand
// on its own as a chunk it is split off and deposited back into the
// allocator; otherwise the whole chunk is left as-is (extra usable slop is
// fine — callers only need usable_size(p) >= requested bytes).
func (a *Arena) reallocShrink(p chunkPtr, curSize, nb uintptr) []byte {
	remainder := curSize - nb
	if remainder < minChunkSize {
		return memSlice(p.mem(), usableSize(p))
	}

	p.setSize(nb)
	p.setPrevInuse()

	rem := chunkPtr(uintptr(p) + nb)
	rem.initHeader(remainder, prevInuseBit)
	rem.setFoot(remainder)
	a.freeChunk(rem)

	return memSlice(p.mem(), usableSize(p))
}

// growIntoTop extends p by carving extra bytes off the front of top,
// mirroring carveTop but resizing p in place instead of returning a fresh
// chunk. Only taken when top has enough slack to still stay at or above
// minChunkSize afterwards.
func (a *Arena) growIntoTop(p chunkPtr, curSize, nb uintptr) ([]byte, bool) {
	extra := nb - curSize
	topSize := a.top.size()
	if topSize < extra+minChunkSize {
		return nil, false
	}

	newTop := chunkPtr(uintptr(a.top) + extra)
	newTop.initHeader(topSize-extra, prevInuseBit)
	a.top = newTop

	p.setSize(nb)
	p.setPrevInuse()
	return memSlice(p.mem(), usableSize(p)), true
}

// growIntoNeighbour absorbs the free physical successor next into p, either
// entirely (remainder too small to stand alone) or partially (remainder
// split off and deposited back).
func (a *Arena) growIntoNeighbour(p chunkPtr, curSize uintptr, next chunkPtr, nb uintptr) ([]byte, bool) {
	avail := curSize + next.size()
	if avail < nb {
		return nil, false
	}
	unlinkChunk(next)

	remainder := avail - nb
	if remainder < minChunkSize {
		p.setSize(avail)
		p.setPrevInuse()
		p.next().setPrevInuse()
		return memSlice(p.mem(), usableSize(p)), true
	}

	p.setSize(nb)
	p.setPrevInuse()
	rem := chunkPtr(uintptr(p) + nb)
	rem.initHeader(remainder, prevInuseBit)
	rem.setFoot(remainder)
	a.freeChunk(rem)
	return memSlice(p.mem(), usableSize(p)), true
}

// reallocMoved is the fallback shared by the mmapped path and the
// can't-grow-in-place path: allocate fresh, copy the overlap, free the old
// buffer.
func (a *Arena) reallocMoved(p chunkPtr, b []byte, n uintptr) []byte {
	fresh := a.Alloc(n)
	if fresh == nil {
		return nil
	}
	copyLen := len(b)
	if len(fresh) < copyLen {
		copyLen = len(fresh)
	}
	copy(fresh, b[:copyLen])
	a.freeChunk(p)
	return fresh
}
