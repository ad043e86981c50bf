package workers

import (
	"runtime"
)

// Count returns the worker count for a pool given a per-CPU multiplier.
// It respects container CPU limits via GOMAXPROCS.
//
// A positive override (usually from configuration) wins over the
// calculation. The limit caps the result; use 0 for no limit.
func Count(multiplier float64, limit, override int) int {
	workers := override
	if workers <= 0 {
		workers = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU), such as
// decoding and resizing survey TIFFs.
func ForCPU(limit, override int) int {
	return Count(1.0, limit, override)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit, override int) int {
	return Count(2.0, limit, override)
}
