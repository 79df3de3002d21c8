package heap

import (
	"fmt"
	"io"
)

// Info reports a snapshot of arena state. Field names are spelled out
// rather than abbreviated (arena/ordblks/uordblks/...) per Go convention.
// ArenaSize is everything currently held by the contiguous region
// (payload, free-chunk slack, and per-chunk overhead together);
// SizeOrdinaryBlocks is what's left once free bytes (fastbin + ordinary
// bins) and the top chunk are subtracted back out — an approximation of
// in-use payload, since no live-object registry exists to total it exactly.
type Info struct {
	ArenaSize          uintptr // bytes currently held via Morecore (sbrkedMem)
	SizeOrdinaryBlocks uintptr // ArenaSize minus free bytes and top
	FastbinFreeBytes   uintptr // bytes sitting in fastbins
	OrdinaryFreeBytes  uintptr // bytes sitting in the unsorted/small/large bins
	TopSize            uintptr // size of the current top chunk
	MmapCount          int
	MmapBytes          uintptr
	MaxMmapCount       int
	MaxSbrkedBytes     uintptr
	MaxMmappedBytes    uintptr
}

// MallInfo reports a point-in-time census of the arena, walking every bin
// to total free bytes.
func (a *Arena) MallInfo() Info {
	info := Info{
		ArenaSize:       a.sbrkedMem,
		MmapCount:       a.nMmaps,
		MmapBytes:       a.mmappedMem,
		MaxMmapCount:    a.maxNMmaps,
		MaxSbrkedBytes:  a.maxSbrkedMem,
		MaxMmappedBytes: a.maxMmappedMem,
	}
	if !a.initialized {
		return info
	}

	for i := range a.fastbins {
		for c := a.fastbins[i]; c != 0; c = c.fd() {
			info.FastbinFreeBytes += c.size()
		}
	}

	for idx := unsortedBin; idx <= lastLarge; idx++ {
		head := a.bins.bin(idx)
		for c := head.fd(); c != head; c = c.fd() {
			info.OrdinaryFreeBytes += c.size()
		}
	}

	if a.top != 0 && !a.bins.isSentinel(unsortedBin, a.top) {
		info.TopSize = a.top.size()
	}

	if info.ArenaSize > info.FastbinFreeBytes+info.OrdinaryFreeBytes+info.TopSize {
		info.SizeOrdinaryBlocks = info.ArenaSize - info.FastbinFreeBytes - info.OrdinaryFreeBytes - info.TopSize
	}
	return info
}

// MallocStats writes a textual report to w.
func (a *Arena) MallocStats(w io.Writer) {
	info := a.MallInfo()
	fmt.Fprintf(w, "arena bytes:        %d\n", info.ArenaSize)
	fmt.Fprintf(w, "in-use (ordinary):  %d\n", info.SizeOrdinaryBlocks)
	fmt.Fprintf(w, "free (fastbins):    %d\n", info.FastbinFreeBytes)
	fmt.Fprintf(w, "free (ordinary):    %d\n", info.OrdinaryFreeBytes)
	fmt.Fprintf(w, "top size:           %d\n", info.TopSize)
	fmt.Fprintf(w, "mmap count:         %d (max %d)\n", info.MmapCount, info.MaxMmapCount)
	fmt.Fprintf(w, "mmap bytes:         %d (max %d)\n", info.MmapBytes, info.MaxMmappedBytes)
	fmt.Fprintf(w, "max sbrked bytes:   %d\n", info.MaxSbrkedBytes)
}

// UsableSize returns the usable payload size of a buffer previously
// returned by Alloc/Calloc/Realloc/Memalign/Valloc/Pvalloc — always >= the
// size originally requested, often larger due to rounding.
func (a *Arena) UsableSize(b []byte) uintptr {
	mem := addrOf(b)
	if mem == 0 {
		return 0
	}
	return usableSize(memToChunk(mem))
}
