// Command heapdemo drives a handful of independent heap.Arena instances
// concurrently, exercising the allocation state machine under a synthetic
// workload and reporting each arena's final MallInfo. Each goroutine owns
// exactly one Arena for its entire lifetime, respecting the package's
// single-threaded-per-Arena contract; errgroup.WithContext fans the workers
// out and collects the first error, if any.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/heapkit/dlmalloc/heap"
)

func main() {
	arenas := flag.Int("arenas", 4, "number of independent arenas to drive concurrently")
	ops := flag.Int("ops", 200000, "allocation/free operations per arena")
	maxSize := flag.Int("max-size", 8192, "largest single allocation, in bytes")
	seed := flag.Int64("seed", 1, "PRNG seed")
	verbose := flag.Bool("v", false, "log each arena's lifecycle events")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	g, ctx := errgroup.WithContext(context.Background())
	results := make([]heap.Info, *arenas)

	for i := 0; i < *arenas; i++ {
		i := i
		g.Go(func() error {
			opts := []heap.Option{}
			if *verbose {
				opts = append(opts, heap.WithLogger(logger))
			}
			a := heap.New(opts...)
			results[i] = runWorkload(ctx, a, *ops, *maxSize, *seed+int64(i))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatalf("workload failed: %v", err)
	}

	for i, info := range results {
		log.Printf("arena %d: arena=%d in-use=%d fastbin-free=%d ordinary-free=%d top=%d mmaps=%d(max %d)",
			i, info.ArenaSize, info.SizeOrdinaryBlocks, info.FastbinFreeBytes,
			info.OrdinaryFreeBytes, info.TopSize, info.MmapCount, info.MaxMmapCount)
	}
}

// runWorkload repeatedly allocates a random-sized buffer and, with even
// odds, frees one of the previously live buffers instead — a simple
// birth/death model that exercises fastbins, bin reuse, and occasional
// growth/trim all in the same run.
func runWorkload(ctx context.Context, a *heap.Arena, ops, maxSize int, seed int64) heap.Info {
	rng := rand.New(rand.NewSource(seed))
	var live [][]byte

	for i := 0; i < ops; i++ {
		select {
		case <-ctx.Done():
			goto drain
		default:
		}

		if len(live) > 0 && rng.Intn(2) == 0 {
			idx := rng.Intn(len(live))
			a.Free(live[idx])
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}

		n := uintptr(rng.Intn(maxSize) + 1)
		buf := a.Alloc(n)
		if buf == nil {
			// Out of memory or request rejected: drain the live set and
			// keep going rather than aborting the whole run.
			for _, b := range live {
				a.Free(b)
			}
			live = live[:0]
			continue
		}
		live = append(live, buf)
	}

drain:
	for _, b := range live {
		a.Free(b)
	}
	a.Trim(0)
	return a.MallInfo()
}
