package bgmm

import (
	"math/rand/v2"
	"sync"
)

// blockRows is the number of observations that share one random stream in
// the per-observation stages. It is fixed so that results do not depend on
// the worker count.
const blockRows = 256

// parallelFor calls fn over [0, n) split into contiguous ranges, one range
// per worker. Ranges never overlap, so fn may write to index-partitioned
// output without synchronization. Falls back to a single fn(0, n) call if
// numWorkers <= 1.
func parallelFor(n, numWorkers int, fn func(start, end int)) {
	if numWorkers <= 1 || n <= 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	perWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * perWorker
		end := start + perWorker
		if end > n {
			end = n
		}
		if start >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}

	wg.Wait()
}

// splitSources derives n independent PCG streams from src. The draws from
// src happen sequentially, before any fan-out, which keeps a run
// reproducible from its seed alone.
func splitSources(src rand.Source, n int) []rand.Source {
	out := make([]rand.Source, n)
	for i := range out {
		out[i] = rand.NewPCG(src.Uint64(), src.Uint64())
	}
	return out
}

// numBlocks returns how many blockRows-sized row blocks cover n rows.
func numBlocks(n int) int {
	return (n + blockRows - 1) / blockRows
}

// blockRange returns the row range of block b out of n rows.
func blockRange(b, n int) (start, end int) {
	start = b * blockRows
	end = min(start+blockRows, n)
	return start, end
}

// firstError returns the first non-nil error in index order.
func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
