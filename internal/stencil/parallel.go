package stencil

import "sync"

// parallelFor splits [0, n) into contiguous chunks of at least minChunk and
// runs fn on each, returning the largest value any chunk produced.
func parallelFor(n, minChunk, numWorkers int, fn func(start, end int) float64) float64 {
	if n <= minChunk || numWorkers <= 1 {
		return fn(0, n)
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers
	results := make([]float64, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(idx, s, e int) {
			defer wg.Done()
			results[idx] = fn(s, e)
		}(w, start, end)
	}
	wg.Wait()

	best := 0.0
	for _, r := range results {
		if r > best {
			best = r
		}
	}
	return best
}
