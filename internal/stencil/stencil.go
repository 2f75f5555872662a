// Package stencil advances a subdomain by one Jacobi timestep.
package stencil

import (
	"errors"
	"math"
	"runtime"

	"github.com/san-kum/haloplate/internal/grid"
)

// ErrStaleHalo is returned when an update would read halo cells that have
// not been refreshed since the previous update.
var ErrStaleHalo = errors.New("stencil: halo cells are stale")

// DefaultMinRows is the smallest band of rows handed to a goroutine.
const DefaultMinRows = 64

// Engine applies the five-point stencil
//
//	cur[i][j] = (prev[i-1][j] + prev[i+1][j] + prev[i][j-1] + prev[i][j+1]) / 4
//
// to every interior row and every owned column that is not a physical edge.
type Engine struct {
	Workers int
	MinRows int
}

func New(workers int) *Engine {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Engine{Workers: workers, MinRows: DefaultMinRows}
}

// Step reads g's previous buffer, writes its current buffer and swaps them.
// It returns the largest absolute change of any updated cell.
func (e *Engine) Step(g *grid.Local) (float64, error) {
	if g.NeedsHalos() && !g.HalosValid() {
		return 0, ErrStaleHalo
	}

	rows, width, stride := g.Rows(), g.Width(), g.Stride()
	prev, cur := g.Prev(), g.Cur()

	first, last := 1, width
	if g.FixedColumn(1) {
		first = 2
	}
	if g.FixedColumn(width) {
		last = width - 1
	}

	residual := 0.0
	if rows > 2 && first <= last {
		residual = parallelFor(rows-2, e.minRows(), e.Workers, func(start, end int) float64 {
			delta := 0.0
			for i := start + 1; i < end+1; i++ {
				base := i * stride
				for j := first; j <= last; j++ {
					c := base + j
					v := (prev[c-stride] + prev[c+stride] + prev[c-1] + prev[c+1]) / 4.0
					delta = math.Max(delta, math.Abs(v-prev[c]))
					cur[c] = v
				}
			}
			return delta
		})
	}

	g.Swap()
	return residual, nil
}

func (e *Engine) minRows() int {
	if e.MinRows < 1 {
		return DefaultMinRows
	}
	return e.MinRows
}
