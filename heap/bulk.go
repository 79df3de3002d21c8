package heap

// IndependentCalloc allocates count equally-sized, independently
// freeable, zeroed chunks out of one contiguous carve. Cheaper than count
// separate Alloc calls when the caller is about to build e.g. a pool of
// same-size records, since only one pass through the state machine runs
// instead of count of them.
func (a *Arena) IndependentCalloc(count int, size uintptr) [][]byte {
	if count <= 0 {
		return nil
	}
	sizes := make([]uintptr, count)
	for i := range sizes {
		sizes[i] = size
	}
	chunks, _ := a.independentAlloc(sizes, true)
	return chunks
}

// IndependentComalloc implements independent_comalloc: like
// IndependentCalloc but with a distinct size per piece and no zeroing,
// matching malloc's (not calloc's) contract on the returned memory. actual
// reports each piece's real usable size (>= the requested size), so a
// caller that over-requested alignment slack can find out how much it
// actually got without a second UsableSize call per piece.
func (a *Arena) IndependentComalloc(sizes []uintptr) (chunks [][]byte, actual []uintptr) {
	return a.independentAlloc(sizes, false)
}

func (a *Arena) independentAlloc(sizes []uintptr, zero bool) ([][]byte, []uintptr) {
	n := len(sizes)
	if n == 0 {
		return nil, nil
	}
	a.ok()

	padded := make([]uintptr, n)
	var total uintptr
	for i, sz := range sizes {
		nb, ok := request2size(sz)
		if !ok {
			a.fail(ErrRequestTooLarge)
			return nil, nil
		}
		padded[i] = nb
		total += nb
	}

	// Chunkifying only makes sense for ordinary (sbrk/top-carved) memory:
	// force this particular carve off the mmap path so every piece below
	// can later be freed individually through the normal chunk machinery.
	savedThreshold := a.mmapThreshold
	if total >= a.mmapThreshold {
		a.mmapThreshold = total + 1
		defer func() { a.mmapThreshold = savedThreshold }()
	}

	agg, ok := a.allocChunk(total)
	if !ok {
		a.fail(ErrOutOfMemory)
		return nil, nil
	}
	// Captured before any piece's header is written: the last piece's size
	// is derived from this, not from re-reading agg's header mid-carve,
	// since by the final iteration that memory has already been overwritten
	// with earlier pieces' headers.
	aggSize := agg.size()

	chunks := make([][]byte, n)
	actual := make([]uintptr, n)
	cur := agg
	var offset uintptr
	for i := 0; i < n; i++ {
		nb := padded[i]
		if i == n-1 {
			// Last piece absorbs whatever's left over (agg's actual size
			// may exceed the sum of requests, e.g. via S6's absorb path).
			nb = aggSize - offset
		}
		if i == 0 {
			cur.setSize(nb)
			cur.setPrevInuse()
		} else {
			cur.initHeader(nb, prevInuseBit)
		}

		actual[i] = usableSize(cur)
		b := memSlice(cur.mem(), usableSize(cur))
		if zero {
			for j := range b {
				b[j] = 0
			}
		}
		chunks[i] = b

		if i < n-1 {
			offset += nb
			cur = chunkPtr(uintptr(cur) + nb)
		}
	}

	return chunks, actual
}
