package heap

import (
	"io"
	"log"

	"github.com/heapkit/dlmalloc/internal/sysmem"
)

// Arena is one independent heap. The zero value is not usable; construct
// one with New. Not safe for concurrent use — see the package doc.
type Arena struct {
	provider sysmem.Provider

	initialized bool
	anyChunks   bool // ANY_CHUNKS: any free chunk exists anywhere
	fastChunks  bool // FAST_CHUNKS: fastbins may be non-empty

	bins     *binSet
	fastbins [maxFastBins]chunkPtr

	top           chunkPtr
	lastRemainder chunkPtr

	contiguous bool
	arenaBase  uintptr // address Morecore's region started at
	topAddr    uintptr // address the allocator currently believes is "the break"

	// Tunables (MallOpt).
	maxFast       uintptr
	trimThreshold uintptr
	topPad        uintptr
	mmapThreshold uintptr
	mmapMax       int

	// Statistics.
	nMmaps        int
	maxNMmaps     int
	sbrkedMem     uintptr
	maxSbrkedMem  uintptr
	mmappedMem    uintptr
	maxMmappedMem uintptr

	// LastError records the failure reason of the most recent operation
	// that returned nil/false due to ErrRequestTooLarge or
	// ErrOutOfMemory. Reset to nil on any operation that succeeds.
	LastError error

	// Logger receives one line per lifecycle event: first-touch init,
	// non-contiguous break detected, mmap-threshold crossing, successful
	// trim. Defaults to a discard logger.
	Logger *log.Logger

	// Paranoia gates best-effort boundary-tag assertions; off by default,
	// since they are not hardened against hostile input and cost real
	// cycles on every free.
	Paranoia bool
}

// Option configures an Arena at construction time.
type Option func(*Arena)

// WithProvider overrides the system-memory provider. The default is a
// sysmem.MmapProvider reserving 1GiB of address space.
func WithProvider(p sysmem.Provider) Option {
	return func(a *Arena) { a.provider = p }
}

// WithLogger overrides the lifecycle logger. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(a *Arena) { a.Logger = l }
}

// WithParanoia enables boundary-tag sanity assertions.
func WithParanoia(on bool) Option {
	return func(a *Arena) { a.Paranoia = on }
}

// New constructs an independent Arena, rather than relying on a single
// implicit process-wide heap; DefaultArena below provides the classic
// global-malloc convenience for callers who want it.
func New(opts ...Option) *Arena {
	// a.maxFast is compared against chunk sizes, not raw user byte counts
	// (see MallOpt's MaxFast case), so the default must go through
	// request2size too rather than storing defaultMaxFastUser verbatim.
	defaultMaxFast, _ := request2size(defaultMaxFastUser)

	a := &Arena{
		maxFast:       defaultMaxFast,
		trimThreshold: defaultTrimThreshold,
		topPad:        defaultTopPad,
		mmapThreshold: defaultMmapThreshold,
		mmapMax:       defaultMmapMax,
		contiguous:    true,
		Logger:        discardLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.provider == nil {
		p, err := sysmem.NewMmapProvider(1 << 30)
		if err != nil {
			// Fall back to a modest Go-backed arena rather than panic at
			// construction time; the first real allocation will surface
			// ErrOutOfMemory if even that is too small.
			a.provider = sysmem.NewFakeProvider(1<<28, sysmem.DefaultPageSize)
		} else {
			a.provider = p
		}
	}
	return a
}

var discardLogger = log.New(discardWriter{}, "", 0)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// DefaultArena is the package-level instance backing the top-level Alloc,
// Free, Realloc, etc. convenience functions. Callers wanting an independent
// heap instead of the shared default should construct their own with New.
var DefaultArena = New()

func Alloc(n uintptr) []byte               { return DefaultArena.Alloc(n) }
func Free(b []byte)                        { DefaultArena.Free(b) }
func Realloc(b []byte, n uintptr) []byte   { return DefaultArena.Realloc(b, n) }
func Calloc(n, size uintptr) []byte        { return DefaultArena.Calloc(n, size) }
func Memalign(align, n uintptr) []byte     { return DefaultArena.Memalign(align, n) }
func Valloc(n uintptr) []byte              { return DefaultArena.Valloc(n) }
func Pvalloc(n uintptr) []byte             { return DefaultArena.Pvalloc(n) }
func Trim(pad uintptr) bool                { return DefaultArena.Trim(pad) }
func MallInfo() Info                       { return DefaultArena.MallInfo() }
func MallOpt(param Param, value int) bool  { return DefaultArena.MallOpt(param, value) }
func MallocStats(w io.Writer)              { DefaultArena.MallocStats(w) }
func UsableSize(b []byte) uintptr          { return DefaultArena.UsableSize(b) }
