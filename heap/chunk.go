package heap

import "unsafe"

// chunkPtr is the address of a chunk header within the arena's backing
// memory (or, for bin sentinels, within the bins' own backing array — see
// bins.go). It is the only pointer type this package's non-chunk.go files
// are allowed to hold; all raw unsafe.Pointer arithmetic is confined here.
//
// Layout at address p (all fields one size_t word wide):
//
//	p+0:  prevSize  (meaningful only when the previous physical chunk is free)
//	p+8:  size      (low two bits are flags: PREV_INUSE, IS_MMAPPED)
//	p+16: fd        (free-list forward link; user data when in use)
//	p+24: bk        (free-list backward link; user data when in use)
type chunkPtr uintptr

func loadWord(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

func storeWord(addr uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = v
}

func (p chunkPtr) rawSize() uintptr {
	return loadWord(uintptr(p) + sizeSz)
}

func (p chunkPtr) setRawSize(v uintptr) {
	storeWord(uintptr(p)+sizeSz, v)
}

// size returns the chunk's total size with flag bits masked off.
func (p chunkPtr) size() uintptr {
	return p.rawSize() &^ sizeBits
}

// setSize replaces the size, preserving the current flag bits. Only valid
// when p already carries a legitimate header (resizing an existing top,
// or a chunk that was already linked into a bin/fastbin) — preserving
// "current flags" from memory that never held a real header would leak
// whatever stale payload bytes happened to land there.
func (p chunkPtr) setSize(s uintptr) {
	p.setRawSize(s | (p.rawSize() & sizeBits))
}

// initHeader fully establishes a brand new chunk header at p, size and
// flags together, with no dependency on whatever bytes previously occupied
// that memory (a freed chunk's former payload, or a prior user's data).
// Used whenever a split, carve, or system call produces a chunk boundary
// that didn't exist as a chunk before.
func (p chunkPtr) initHeader(size uintptr, flags uintptr) {
	p.setRawSize(size | flags)
}

func (p chunkPtr) prevInuse() bool {
	return p.rawSize()&prevInuseBit != 0
}

func (p chunkPtr) setPrevInuse() {
	p.setRawSize(p.rawSize() | prevInuseBit)
}

func (p chunkPtr) clearPrevInuse() {
	p.setRawSize(p.rawSize() &^ prevInuseBit)
}

func (p chunkPtr) isMmapped() bool {
	return p.rawSize()&isMmappedBit != 0
}

func (p chunkPtr) setMmapped() {
	p.setRawSize(p.rawSize() | isMmappedBit)
}

func (p chunkPtr) prevSize() uintptr {
	return loadWord(uintptr(p))
}

func (p chunkPtr) setPrevSize(s uintptr) {
	storeWord(uintptr(p), s)
}

// next returns the physically-adjacent chunk at p + size(p).
func (p chunkPtr) next() chunkPtr {
	return chunkPtr(uintptr(p) + p.size())
}

// prevPhys returns the physically-preceding chunk, valid only when
// !p.prevInuse().
func (p chunkPtr) prevPhys() chunkPtr {
	return chunkPtr(uintptr(p) - p.prevSize())
}

func (p chunkPtr) fd() chunkPtr {
	return chunkPtr(loadWord(uintptr(p) + 2*sizeSz))
}

func (p chunkPtr) setFd(q chunkPtr) {
	storeWord(uintptr(p)+2*sizeSz, uintptr(q))
}

func (p chunkPtr) bk() chunkPtr {
	return chunkPtr(loadWord(uintptr(p) + 3*sizeSz))
}

func (p chunkPtr) setBk(q chunkPtr) {
	storeWord(uintptr(p)+3*sizeSz, uintptr(q))
}

// mem returns the user-visible pointer for an in-use chunk: two words past
// the header.
func (p chunkPtr) mem() uintptr {
	return uintptr(p) + 2*sizeSz
}

// memToChunk recovers the chunk header address from a user pointer.
func memToChunk(mem uintptr) chunkPtr {
	return chunkPtr(mem - 2*sizeSz)
}

// setFoot writes the trailing boundary tag for a free chunk of size s: the
// size word replicated at p+s, which doubles as the next physical chunk's
// prevSize slot.
func (p chunkPtr) setFoot(s uintptr) {
	storeWord(uintptr(p)+s, s)
}

// addrOf converts a raw byte slice header's base pointer to a uintptr (0
// for an empty slice).
func addrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// memSlice builds the []byte a caller sees for an allocation of usable size
// n starting at user pointer mem.
func memSlice(mem uintptr, n uintptr) []byte {
	if n == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(mem)), int(n))
}
