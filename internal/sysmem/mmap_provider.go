//go:build linux || darwin

package sysmem

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// MmapProvider is the production Provider. It reserves one large anonymous
// mapping up front to stand in for the contiguous, growable region a real
// allocator gets from sbrk(2); Go programs cannot safely move the process
// break themselves without racing the Go runtime's own allocator, so the
// reservation is the portable substitute. Morecore grows and shrinks a
// logical cursor inside that reservation. PageMap/PageUnmap are
// independent, genuine mmap/munmap calls, used for the mmap-threshold path.
type MmapProvider struct {
	mu sync.Mutex

	reserveSize int
	region      []byte // backing store for the reservation; never resliced
	base        uintptr
	committed   int // bytes of region currently readable/writable from base
	decommitted int // trailing bytes most recently handed back via Trim

	pageSize int
}

// NewMmapProvider reserves reserveSize bytes of address space. reserveSize
// should comfortably exceed any single process's expected heap footprint;
// once exhausted, Morecore fails and the allocator permanently falls back
// to page-mapped chunks, the same behavior a real sbrk refusal would force.
func NewMmapProvider(reserveSize int) (*MmapProvider, error) {
	if reserveSize <= 0 {
		reserveSize = 1 << 30 // 1 GiB default reservation
	}
	region, err := unix.Mmap(-1, 0, reserveSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("sysmem: reserve %d bytes: %w", reserveSize, err)
	}
	unix.Madvise(region, unix.MADV_DONTDUMP)

	ps := unix.Getpagesize()
	if ps <= 0 {
		ps = DefaultPageSize
	}
	return &MmapProvider{
		reserveSize: reserveSize,
		region:      region,
		base:        sliceBase(region),
		pageSize:    ps,
	}, nil
}

func (p *MmapProvider) Base() uintptr {
	return p.base
}

func (p *MmapProvider) PageSize() int {
	return p.pageSize
}

func (p *MmapProvider) Morecore(delta int) (uintptr, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	oldEnd := p.base + uintptr(p.committed)
	if delta == 0 {
		return oldEnd, true
	}
	if delta > 0 {
		if p.committed+delta > p.reserveSize {
			return oldEnd, false
		}
		// Re-commit any range previously handed back via Madvise(DONTNEED).
		if p.committed+delta > p.reserveSize-p.decommitted {
			// nothing extra to do: DONTNEED only drops physical pages,
			// the mapping stays READ|WRITE and will fault them back in.
		}
		p.committed += delta
		return oldEnd, true
	}

	shrink := -delta
	if shrink > p.committed {
		shrink = p.committed
	}
	p.committed -= shrink
	return oldEnd, true
}

// Decommit releases the physical pages backing [addr, addr+n) back to the
// kernel without unmapping the virtual
// reservation, so a later Morecore grow can reuse the same addresses. Used
// by the allocator's Trim.
func (p *MmapProvider) Decommit(addr uintptr, n int) {
	if n <= 0 {
		return
	}
	off := addr - p.base
	if int(off) < 0 || int(off)+n > p.reserveSize {
		return
	}
	unix.Madvise(p.region[off:int(off)+n], unix.MADV_DONTNEED)
	p.decommitted = n
}

func (p *MmapProvider) PageMap(n int) (uintptr, bool) {
	if n <= 0 {
		return 0, false
	}
	mem, err := unix.Mmap(-1, 0, n,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, false
	}
	return sliceBase(mem), true
}

func (p *MmapProvider) PageUnmap(addr uintptr, n int) {
	if n <= 0 {
		return
	}
	slice := sliceFromAddr(addr, n)
	unix.Munmap(slice)
}

// Close releases the reservation. Not part of the Provider interface; used
// by tests and by callers tearing down a short-lived Arena.
func (p *MmapProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.region == nil {
		return nil
	}
	err := unix.Munmap(p.region)
	p.region = nil
	return err
}
