package heap

// carveTop splits nb bytes off the low end of the top chunk, provided top
// is large enough to leave at least minChunkSize behind. Returns the
// carved chunk and true, or (0, false) if top is too small.
//
// Both victim and the new top get a full initHeader write, not setSize:
// the new top's address may land inside a former chunk's payload (e.g.
// one earlier merged in by absorbIntoTop), and victim's own header may
// carry whatever stale bits a prior such carve left behind — setSize
// would preserve either, letting a spurious IS_MMAPPED bit propagate.
func (a *Arena) carveTop(nb uintptr) (chunkPtr, bool) {
	topSize := a.top.size()
	if topSize < nb+minChunkSize {
		return 0, false
	}
	victim := a.top
	remainder := chunkPtr(uintptr(victim) + nb)
	remainder.initHeader(topSize-nb, prevInuseBit)
	a.top = remainder

	victim.initHeader(nb, prevInuseBit)
	return victim, true
}

// absorbIntoTop merges a free chunk p of size s into the current top,
// making p the new top with the combined size. initHeader, not setSize:
// see carveTop's comment on why the new top's header must be written in
// full rather than preserving whatever flags happen to already be there.
func (a *Arena) absorbIntoTop(p chunkPtr, s uintptr) {
	newSize := s + a.top.size()
	a.top = p
	a.top.initHeader(newSize, prevInuseBit)
}
