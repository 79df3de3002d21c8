package sysmem

import "unsafe"

// FakeProvider backs unit tests with a plain Go-allocated arena instead of
// real mmap calls. It supports injecting a grow failure and a simulated
// foreign (non-contiguous) extension, both needed to exercise the
// allocator's sysAlloc fallback paths without a real OS.
type FakeProvider struct {
	region    []byte
	base      uintptr
	committed int
	pageSize  int

	// FailGrowAbove makes Morecore fail once committed would exceed this
	// many bytes. Zero means never fail.
	FailGrowAbove int

	// ForceNonContiguousOnce, if true, makes the next successful grow
	// return an oldEnd that does not abut the allocator's notion of top,
	// simulating a foreign caller having moved the break. Consumed (reset
	// to false) after one use.
	ForceNonContiguousOnce bool
	foreignGap             int

	mapped map[uintptr][]byte
}

// NewFakeProvider allocates a size-byte Go arena to serve as the simulated
// contiguous region, plus a page size (defaults to 4096).
func NewFakeProvider(size, pageSize int) *FakeProvider {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	region := make([]byte, size)
	return &FakeProvider{
		region:   region,
		base:     uintptr(unsafe.Pointer(&region[0])),
		pageSize: pageSize,
		mapped:   make(map[uintptr][]byte),
	}
}

func (p *FakeProvider) Base() uintptr { return p.base }
func (p *FakeProvider) PageSize() int { return p.pageSize }

func (p *FakeProvider) Morecore(delta int) (uintptr, bool) {
	oldEnd := p.base + uintptr(p.committed)
	if delta == 0 {
		return oldEnd, true
	}
	if delta > 0 {
		gap := 0
		if p.ForceNonContiguousOnce {
			// A simulated foreign caller takes one page first, so the
			// caller observes a gap between its expected top and the
			// address actually returned.
			gap = p.pageSize
		}
		next := p.committed + gap + delta
		if next > len(p.region) {
			return oldEnd, false
		}
		if p.FailGrowAbove != 0 && next > p.FailGrowAbove {
			return oldEnd, false
		}
		p.committed = next
		if gap != 0 {
			p.ForceNonContiguousOnce = false
		}
		return oldEnd + uintptr(gap), true
	}

	shrink := -delta
	if shrink > p.committed {
		shrink = p.committed
	}
	p.committed -= shrink
	return oldEnd, true
}

func (p *FakeProvider) Decommit(addr uintptr, n int) {
	// No-op: the fake arena is ordinary Go memory, nothing to release.
}

func (p *FakeProvider) PageMap(n int) (uintptr, bool) {
	if n <= 0 {
		return 0, false
	}
	buf := make([]byte, n)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	p.mapped[addr] = buf
	return addr, true
}

func (p *FakeProvider) PageUnmap(addr uintptr, n int) {
	delete(p.mapped, addr)
}
