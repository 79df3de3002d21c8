package heap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

// TestMallInfoRoundTripStable exercises the free(alloc(n)) round trip at
// the MallInfo level: a snapshot taken before the round-trip should
// structurally match the snapshot taken after, since the freed chunk
// returns to exactly where it started. godebug/pretty gives a readable
// diff on failure instead of a flat struct dump.
func TestMallInfoRoundTripStable(t *testing.T) {
	a, _ := newTestArena(t, 1<<20)

	a.Alloc(32) // prime initialization so both snapshots are post-init.
	before := a.MallInfo()

	b := a.Alloc(256)
	a.Free(b)

	after := a.MallInfo()
	if diff := pretty.Compare(before, after); diff != "" {
		t.Fatalf("MallInfo changed across a free(alloc(n)) round trip:\n%s", diff)
	}
}

func TestMallInfoTracksFastbinFree(t *testing.T) {
	a, _ := newTestArena(t, 1<<20)
	b := a.Alloc(16)
	a.Free(b)

	info := a.MallInfo()
	if info.FastbinFreeBytes == 0 {
		t.Fatal("expected a sub-MaxFast free to register in FastbinFreeBytes")
	}
	if info.ArenaSize == 0 {
		t.Fatal("expected a non-zero ArenaSize after at least one allocation")
	}
}

func TestMallocStatsTextualReport(t *testing.T) {
	a, _ := newTestArena(t, 1<<20)
	a.Alloc(64)

	var buf bytes.Buffer
	a.MallocStats(&buf)
	out := buf.String()
	for _, want := range []string{"arena bytes", "in-use", "free (fastbins)", "top size"} {
		if !strings.Contains(out, want) {
			t.Errorf("MallocStats output missing %q:\n%s", want, out)
		}
	}
}

func TestUsableSizeMeetsRequest(t *testing.T) {
	a, _ := newTestArena(t, 1<<20)
	for _, n := range []uintptr{1, 16, 100, 4096} {
		b := a.Alloc(n)
		if got := a.UsableSize(b); got < n {
			t.Errorf("UsableSize after Alloc(%d) = %d, want >= %d", n, got, n)
		}
	}
}

func TestMallOptMaxFastRange(t *testing.T) {
	a, _ := newTestArena(t, 1<<20)
	if !a.MallOpt(MaxFast, 64) {
		t.Fatal("MallOpt(MaxFast, 64) rejected")
	}
	if a.MallOpt(MaxFast, 81) {
		t.Fatal("MallOpt(MaxFast, 81) should be rejected (out of the 0..80 range)")
	}
	if a.MallOpt(MaxFast, -1) {
		t.Fatal("MallOpt(MaxFast, -1) should be rejected")
	}
}

func TestMallOptMmapMaxZeroDisablesMmap(t *testing.T) {
	a, _ := newTestArena(t, 8<<20)
	a.MallOpt(MmapThreshold, 1024)
	if !a.MallOpt(MmapMax, 0) {
		t.Fatal("MallOpt(MmapMax, 0) rejected")
	}

	b := a.Alloc(100000)
	if b == nil {
		t.Fatal("Alloc(100000) with MmapMax=0 should still succeed via the contiguous provider")
	}
	if memToChunk(addrOf(b)).isMmapped() {
		t.Fatal("Alloc served via mmap despite MmapMax=0")
	}
}
