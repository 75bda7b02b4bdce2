package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/internal/sysmem"
	"github.com/joshuapare/poolkit/pool"
	"github.com/joshuapare/poolkit/pool/block"
)

// benchOptions describes one synthetic workload.
type benchOptions struct {
	Depth      int    // Levels of child pools below the root
	Fanout     int    // Children per pool
	Allocs     int    // Allocations per pool
	Seed       uint64 // Size distribution seed
	MaxFree    int    // Allocator budget in bytes (0 = unlimited)
	Limit      int    // Cap on mapped bytes (0 = none)
	Mmap       bool   // Map Blocks with anonymous mmap instead of the heap
	LargeRatio int    // Percent of requests at or above the threshold
	FreeRatio  int    // Percent of large regions freed right away
}

var benchOpts = benchOptions{
	Depth:      3,
	Fanout:     4,
	Allocs:     1000,
	Seed:       1,
	LargeRatio: 20,
	FreeRatio:  50,
}

func init() {
	cmd := newBenchCmd()
	f := cmd.Flags()
	f.IntVar(&benchOpts.Depth, "depth", benchOpts.Depth, "Levels of child pools below the root")
	f.IntVar(&benchOpts.Fanout, "fanout", benchOpts.Fanout, "Children per pool")
	f.IntVar(&benchOpts.Allocs, "allocs", benchOpts.Allocs, "Allocations per pool")
	f.Uint64Var(&benchOpts.Seed, "seed", benchOpts.Seed, "Random seed for request sizes")
	f.IntVar(&benchOpts.MaxFree, "max-free", 0, "Allocator free-byte budget (0 = unlimited)")
	f.IntVar(&benchOpts.Limit, "limit", 0, "Fail once this many bytes are mapped (0 = no limit)")
	f.BoolVar(&benchOpts.Mmap, "mmap", false, "Back Blocks with anonymous memory mappings")
	f.IntVar(&benchOpts.LargeRatio, "large", benchOpts.LargeRatio, "Percent of large requests")
	f.IntVar(&benchOpts.FreeRatio, "free", benchOpts.FreeRatio, "Percent of large regions freed")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic allocation workload",
		Long: `The bench command builds a tree of pools, allocates a seeded mix of small
and large regions in every pool, frees some large ones, registers cleanups, and
tears the tree down. It then reports allocator and recycler statistics.

Example:
  poolctl bench
  poolctl bench --depth 4 --fanout 8 --allocs 10000
  poolctl bench --max-free 1048576 --mmap --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runBench(benchOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

// benchResult is the report of one run.
type benchResult struct {
	Pools          int           `json:"pools"`
	Allocs         int64         `json:"allocs"`
	BytesRequested int64         `json:"bytes_requested"`
	SmallAllocs    int64         `json:"small_allocs"`
	LargeAllocs    int64         `json:"large_allocs"`
	RecycleHits    int64         `json:"recycle_hits"`
	LargeFrees     int64         `json:"large_frees"`
	BytesIssued    int64         `json:"bytes_issued"`
	BytesAcquired  int64         `json:"bytes_acquired"`
	CleanupsRun    int           `json:"cleanups_run"`
	Allocator      block.Stats   `json:"allocator"`
	PeakMapped     int           `json:"peak_mapped,omitempty"`
	Elapsed        time.Duration `json:"elapsed_ns"`
}

func (o benchOptions) validate() error {
	switch {
	case o.Depth < 0:
		return fmt.Errorf("depth must be >= 0, got %d", o.Depth)
	case o.Fanout < 0:
		return fmt.Errorf("fanout must be >= 0, got %d", o.Fanout)
	case o.Allocs < 0:
		return fmt.Errorf("allocs must be >= 0, got %d", o.Allocs)
	case o.LargeRatio < 0 || o.LargeRatio > 100:
		return fmt.Errorf("large must be within 0..100, got %d", o.LargeRatio)
	case o.FreeRatio < 0 || o.FreeRatio > 100:
		return fmt.Errorf("free must be within 0..100, got %d", o.FreeRatio)
	}
	return nil
}

func runBench(o benchOptions, progress io.Writer) (benchResult, error) {
	var res benchResult
	if err := o.validate(); err != nil {
		return res, err
	}

	var src sysmem.Source = sysmem.Heap{}
	if o.Mmap {
		src = sysmem.Anon{}
	}
	var limited *sysmem.Limited
	if o.Limit > 0 {
		limited = sysmem.NewLimited(src, o.Limit)
		src = limited
	}

	cfg := block.DefaultConfig
	cfg.Name = "bench"
	cfg.MaxFree = o.MaxFree
	cfg.Source = src
	alloc, err := block.New(cfg)
	if err != nil {
		return res, err
	}
	defer alloc.Destroy()

	start := time.Now()
	rng := rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))

	root, err := pool.New(nil, pool.WithAllocator(alloc), pool.WithTag("bench"))
	if err != nil {
		return res, err
	}
	if err := grow(root, o.Depth, o.Fanout); err != nil {
		_ = root.Destroy()
		return res, err
	}

	cleanups := 0
	var pools []*pool.Pool
	root.Walk(func(p *pool.Pool) bool {
		pools = append(pools, p)
		return true
	})
	for i, p := range pools {
		if err := work(p, o, rng, &res); err != nil {
			_ = root.Destroy()
			return res, err
		}
		if _, err := p.RegisterCleanup(nil, func(any) error {
			cleanups++
			return nil
		}); err != nil {
			_ = root.Destroy()
			return res, err
		}
		printVerbose(progress, "pool %d/%d %s\n", i+1, len(pools), p.Tag())
	}

	res.Pools = len(pools)
	for _, p := range pools {
		s := p.Stats()
		res.SmallAllocs += s.SmallAllocs
		res.LargeAllocs += s.LargeAllocs
		res.RecycleHits += s.RecycleHits
		res.LargeFrees += s.LargeFrees
		res.BytesIssued += s.BytesIssued
		res.BytesAcquired += s.BytesAcquired
	}

	if err := root.Destroy(); err != nil {
		return res, err
	}
	res.CleanupsRun = cleanups
	res.Elapsed = time.Since(start)
	res.Allocator = alloc.Stats()
	if limited != nil {
		res.PeakMapped = limited.Peak()
	}

	logger.Info("bench: done", "pools", res.Pools, "allocs", res.Allocs, "elapsed", res.Elapsed)
	return res, nil
}

// grow adds fanout children to p, depth levels deep.
func grow(p *pool.Pool, depth, fanout int) error {
	if depth == 0 {
		return nil
	}
	for i := range fanout {
		c, err := p.NewChild(pool.WithTag(fmt.Sprintf("%s/%d", p.Tag(), i)))
		if err != nil {
			return err
		}
		if err := grow(c, depth-1, fanout); err != nil {
			return err
		}
	}
	return nil
}

// work runs o.Allocs requests against p.
func work(p *pool.Pool, o benchOptions, rng *rand.Rand, res *benchResult) error {
	for range o.Allocs {
		var n int
		if rng.IntN(100) < o.LargeRatio {
			n = format.BigObjectThreshold + rng.IntN(16*1024)
		} else {
			n = 1 + rng.IntN(format.BigObjectThreshold-1)
		}
		b, err := p.Alloc(n)
		if err != nil {
			return err
		}
		res.Allocs++
		res.BytesRequested += int64(n)
		b[0], b[n-1] = 1, 1

		if n >= format.BigObjectThreshold && rng.IntN(100) < o.FreeRatio {
			if err := p.Free(b); err != nil {
				return err
			}
		}
	}
	return nil
}

func printResult(w io.Writer, r benchResult) {
	pr := message.NewPrinter(language.English)
	pr.Fprintf(w, "Pools:            %d\n", r.Pools)
	pr.Fprintf(w, "Allocations:      %d (%d small, %d large)\n", r.Allocs, r.SmallAllocs, r.LargeAllocs)
	pr.Fprintf(w, "Bytes requested:  %d\n", r.BytesRequested)
	pr.Fprintf(w, "Bytes issued:     %d\n", r.BytesIssued)
	pr.Fprintf(w, "Bytes acquired:   %d\n", r.BytesAcquired)
	pr.Fprintf(w, "Recycler:         %d frees, %d hits\n", r.LargeFrees, r.RecycleHits)
	pr.Fprintf(w, "Cleanups run:     %d\n", r.CleanupsRun)
	pr.Fprintf(w, "Blocks:           %d mapped, %d reused, %d released\n",
		r.Allocator.Maps, r.Allocator.Reuses, r.Allocator.Releases)
	pr.Fprintf(w, "Idle:             %d bytes in %d blocks (budget %d)\n",
		r.Allocator.FreeBytes, r.Allocator.FreeBlocks, r.Allocator.MaxFree)
	if r.PeakMapped > 0 {
		pr.Fprintf(w, "Peak mapped:      %d bytes\n", r.PeakMapped)
	}
	pr.Fprintf(w, "Elapsed:          %v\n", r.Elapsed)
}
