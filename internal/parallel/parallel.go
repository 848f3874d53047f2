// Package parallel provides the worker fan-out used by the compute kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// Range is a half-open interval [Start, End) of work items.
type Range struct {
	Start int
	End   int
}

// Len returns the number of items in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Split partitions [0, n) into contiguous ranges the way For schedules them.
// A sequential config yields a single range. Empty input yields no ranges.
func Split(n int, cfg Config) []Range {
	if n <= 0 {
		return nil
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		return []Range{{Start: 0, End: n}}
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	ranges := make([]Range, 0, (n+chunkSize-1)/chunkSize)
	for start := 0; start < n; start += chunkSize {
		ranges = append(ranges, Range{Start: start, End: min(start+chunkSize, n)})
	}
	return ranges
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	ForRanges(Split(n, cfg), func(_ int, r Range) {
		for i := r.Start; i < r.End; i++ {
			f(i)
		}
	})
}

// ForRanges runs f once per range, concurrently when there is more than one.
// The chunk index passed to f is the range's position in ranges, so callers
// can keep per-chunk state (partial counts, write offsets) without locking.
func ForRanges(ranges []Range, f func(chunk int, r Range)) {
	switch len(ranges) {
	case 0:
		return
	case 1:
		f(0, ranges[0])
		return
	}

	var wg sync.WaitGroup
	for c, r := range ranges {
		wg.Add(1)
		go func(c int, r Range) {
			defer wg.Done()
			f(c, r)
		}(c, r)
	}
	wg.Wait()
}

// ForRows is For over the rows of a [rows, cols] layout.
// Matrix kernels use it to give each worker whole rows.
func ForRows(rows, cols int, f func(row int), cfg Config) {
	rowCfg := cfg
	if cols > 0 {
		rowCfg.MinChunkSize = max(1, cfg.MinChunkSize/cols)
	}
	For(rows, f, rowCfg)
}
