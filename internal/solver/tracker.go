package solver

import "sync"

// ResidualTracker records the largest residual reported by any rank for each
// iteration.
type ResidualTracker struct {
	mu   sync.Mutex
	best map[int]float64
	last int
}

func NewResidualTracker() *ResidualTracker {
	return &ResidualTracker{best: make(map[int]float64), last: -1}
}

func (t *ResidualTracker) OnIteration(_ int, iter int, residual float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if residual > t.best[iter] {
		t.best[iter] = residual
	}
	if iter > t.last {
		t.last = iter
	}
}

// History returns the per-iteration maxima for the first n iterations.
func (t *ResidualTracker) History(n int) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]float64, n)
	for i := range out {
		out[i] = t.best[i]
	}
	return out
}

// Latest returns the highest iteration seen so far and its residual, or -1
// when nothing has been recorded.
func (t *ResidualTracker) Latest() (int, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last < 0 {
		return -1, 0
	}
	return t.last, t.best[t.last]
}
