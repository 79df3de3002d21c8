package heap

import "github.com/heapkit/dlmalloc/internal/sysmem"

// decommitter is implemented by providers that can give trimmed pages back
// to the kernel without unmapping the reservation (sysmem.MmapProvider).
// Providers that can't (e.g. a minimal test double) simply skip the step;
// Morecore's logical shrink is still honoured.
type decommitter interface {
	Decommit(addr uintptr, n int)
}

func roundUpPage(n uintptr, pageSize int) uintptr {
	ps := uintptr(pageSize)
	if ps == 0 {
		ps = sysmem.DefaultPageSize
	}
	return (n + ps - 1) &^ (ps - 1)
}

// sysAlloc extends the arena from the system, reached only once the
// fastbin/bin/top scan has all missed.
func (a *Arena) sysAlloc(nb uintptr) (chunkPtr, bool) {
	if a.fastChunks && isSmallRequest(nb) {
		a.consolidate()
		return a.allocChunk(nb)
	}

	if nb >= a.mmapThreshold && a.nMmaps < a.mmapMax {
		if c, ok := a.mmapAlloc(nb); ok {
			return c, true
		}
	}

	return a.growContiguous(nb)
}

// mmapAlloc services nb directly via the page-mapping provider, producing
// a standalone IS_MMAPPED chunk (never merged with the contiguous arena;
// freed individually by munmap).
func (a *Arena) mmapAlloc(nb uintptr) (chunkPtr, bool) {
	pageSize := a.provider.PageSize()
	want := roundUpPage(nb+sizeSz+(mallocAlignment-1), pageSize)

	addr, ok := a.provider.PageMap(int(want))
	if !ok {
		return 0, false
	}

	memAddr := addr + 2*sizeSz
	var correction uintptr
	if memAddr&mallocAlignMask != 0 {
		correction = mallocAlignment - (memAddr & mallocAlignMask)
	}

	p := chunkPtr(addr + correction)
	p.setPrevSize(correction)
	p.initHeader(want-correction, isMmappedBit)

	a.nMmaps++
	if a.nMmaps > a.maxNMmaps {
		a.maxNMmaps = a.nMmaps
	}
	a.mmappedMem += want
	if a.mmappedMem > a.maxMmappedMem {
		a.maxMmappedMem = a.mmappedMem
	}
	a.logf("mmap-threshold crossed: mapped %d bytes for a %d-byte request", want, nb)
	return p, true
}

// growContiguous extends the contiguous region (directly abutting the
// current top when possible), falling back to page-mapping — and
// permanent non-contiguous mode — if the provider refuses to grow at all.
func (a *Arena) growContiguous(nb uintptr) (chunkPtr, bool) {
	full := nb + a.topPad + minChunkSize
	want := full
	if a.contiguous && a.initialized {
		want -= a.top.size()
	}
	pageSize := a.provider.PageSize()
	want = roundUpPage(want, pageSize)

	oldEnd, ok := a.provider.Morecore(int(want))
	if !ok {
		fallback := full
		if fallback < sysmem.MmapAsMorecoreSize {
			fallback = sysmem.MmapAsMorecoreSize
		}
		fallback = roundUpPage(fallback, pageSize)
		addr, ok2 := a.provider.PageMap(int(fallback))
		if !ok2 {
			return 0, false
		}
		a.contiguous = false
		a.logf("morecore refused %d bytes, falling back to a %d-byte page map; arena now non-contiguous", want, fallback)
		return a.installNewTop(addr, fallback, nb)
	}

	if !a.initialized {
		a.initOnce()
	}

	if a.arenaBase == 0 {
		a.arenaBase = a.provider.Base()
	}

	if a.contiguous && a.topAddr != 0 && oldEnd == a.topAddr {
		a.sbrkedMem += want
		if a.sbrkedMem > a.maxSbrkedMem {
			a.maxSbrkedMem = a.sbrkedMem
		}
		newTopSize := a.top.size() + want
		a.top.setSize(newTopSize)
		a.top.setPrevInuse()
		a.topAddr = uintptr(a.top) + newTopSize
		return a.carveTop(nb)
	}

	if a.topAddr != 0 {
		a.contiguous = false
		a.logf("non-contiguous extension at %#x (expected %#x)", oldEnd, a.topAddr)
		// want was reduced by the old top's size, which this window
		// cannot absorb: extend it to the full request.
		if fullPages := roundUpPage(full, pageSize); want < fullPages {
			if _, ok := a.provider.Morecore(int(fullPages - want)); ok {
				want = fullPages
			}
		}
	}
	return a.installNewTop(oldEnd, want, nb)
}

// installNewTop aligns a freshly obtained [base, base+length) window onto
// a chunk boundary, retires any existing top with fenceposts, and makes
// the aligned window the new top.
func (a *Arena) installNewTop(base uintptr, length uintptr, nb uintptr) (chunkPtr, bool) {
	memAddr := base + 2*sizeSz
	var correction uintptr
	if memAddr&mallocAlignMask != 0 {
		correction = mallocAlignment - (memAddr & mallocAlignMask)
	}

	if a.initialized && a.top != 0 && !a.bins.isSentinel(unsortedBin, a.top) {
		a.retireOldTop()
	}
	if !a.initialized {
		a.initOnce()
	}

	newTop := chunkPtr(base + correction)
	size := length - correction
	a.top = newTop
	a.top.initHeader(size, prevInuseBit)
	a.topAddr = base + length

	a.sbrkedMem += length
	if a.sbrkedMem > a.maxSbrkedMem {
		a.maxSbrkedMem = a.sbrkedMem
	}

	return a.carveTop(nb)
}

// retireOldTop writes two one-word fencepost chunks into the tail of the
// current top and frees the shrunken remainder through the ordinary
// coalescing path (with trim temporarily disabled), so a discontinuity
// introduced by a foreign extension can never be silently coalesced
// across.
func (a *Arena) retireOldTop() {
	old := a.top
	oldSize := old.size()
	if oldSize < minChunkSize {
		return
	}
	shrunk := oldSize - minChunkSize

	f1 := chunkPtr(uintptr(old) + shrunk)
	f1.initHeader(sizeSz, prevInuseBit)
	f2 := chunkPtr(uintptr(f1) + sizeSz)
	f2.initHeader(sizeSz, prevInuseBit)

	old.setSize(shrunk)
	old.setPrevInuse()

	saved := a.trimThreshold
	a.trimThreshold = ^uintptr(0)
	a.coalesceAndDeposit(old)
	a.anyChunks = true
	a.trimThreshold = saved
}

// trim returns tail pages of top to the system, keeping at least one
// page, only if the provider's current break still abuts top (i.e. no
// foreign extension has moved it since).
func (a *Arena) trim(pad uintptr) bool {
	if !a.initialized || a.top == 0 {
		return false
	}
	pageSize := uintptr(a.provider.PageSize())
	if pageSize == 0 {
		pageSize = sysmem.DefaultPageSize
	}
	topSize := a.top.size()
	if topSize < pad+minChunkSize+pageSize {
		return false
	}
	extra := ((topSize-pad-minChunkSize)/pageSize - 1) * pageSize
	if extra == 0 {
		return false
	}

	cur, ok := a.provider.Morecore(0)
	if !ok || cur != a.topAddr {
		return false
	}

	releaseAddr := a.topAddr - extra
	if dec, ok := a.provider.(decommitter); ok {
		dec.Decommit(releaseAddr, int(extra))
	}
	if _, ok := a.provider.Morecore(-int(extra)); !ok {
		return false
	}

	a.top.setSize(topSize - extra)
	a.top.setPrevInuse()
	a.topAddr -= extra
	if extra <= a.sbrkedMem {
		a.sbrkedMem -= extra
	}
	a.logf("trim released %d bytes", extra)
	return true
}

// Trim is the public wrapper around trim.
func (a *Arena) Trim(pad uintptr) bool {
	return a.trim(pad)
}
