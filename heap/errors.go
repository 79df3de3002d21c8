package heap

import "errors"

// ErrRequestTooLarge is set when request2size's padding would wrap past
// zero — the request is not serviceable at any chunk size.
var ErrRequestTooLarge = errors.New("heap: requested size out of range")

// ErrOutOfMemory is set when both the contiguous provider and the
// page-mapping fallback refused to extend the arena.
var ErrOutOfMemory = errors.New("heap: out of memory")

func (a *Arena) fail(err error) {
	a.LastError = err
}

func (a *Arena) ok() {
	a.LastError = nil
}
