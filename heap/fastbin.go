package heap

// fastbinIndex maps a (flag-masked) chunk size to its fastbin slot. Sizes
// below minChunkSize or above the array bound never reach here; callers
// check maxFast first.
func fastbinIndex(size uintptr) int {
	return int((size - minChunkSize) / mallocAlignment)
}

// fastbinPush prepends c (LIFO) to fastbin i. The successor's PREV_INUSE is
// deliberately left set — fastbin chunks look allocated to their physical
// neighbour, so they are not candidates for coalescing while cached.
func (a *Arena) fastbinPush(i int, c chunkPtr) {
	c.setFd(a.fastbins[i])
	a.fastbins[i] = c
	a.fastChunks = true
	a.anyChunks = true
}

// fastbinPop removes and returns the head of fastbin i, or 0 if empty.
func (a *Arena) fastbinPop(i int) chunkPtr {
	c := a.fastbins[i]
	if c == 0 {
		return 0
	}
	a.fastbins[i] = c.fd()
	return c
}
