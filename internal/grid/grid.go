// Package grid holds one rank's subdomain of the plate.
//
// A subdomain has every row of the plate but only the rank's own columns,
// plus one halo column on each side that mirrors the nearest core column of
// the neighbouring rank. Two buffers of identical shape are kept: the
// previous timestep, which is read, and the current one, which is written.
// Swap exchanges their roles by toggling an index.
package grid

import (
	"math"

	"github.com/san-kum/haloplate/internal/plate"
)

// Local is a double-buffered rows x (width+2) subdomain stored row-major.
// Column 0 and column width+1 are halos; columns 1..width are core cells.
type Local struct {
	rows   int
	width  int
	stride int

	bufs   [2][]float64
	active int

	fixedLeft  bool
	fixedRight bool
	halosValid bool
}

// New allocates both buffers. Halo cells start out NaN.
func New(rows, width int) (*Local, error) {
	if rows < 1 {
		return nil, plate.Configf("rows", "subdomain needs at least 1 row, got %d", rows)
	}
	if width < 1 {
		return nil, plate.Configf("width", "subdomain needs at least 1 column, got %d", width)
	}
	stride := width + 2
	g := &Local{rows: rows, width: width, stride: stride}
	for b := range g.bufs {
		g.bufs[b] = make([]float64, rows*stride)
	}
	g.invalidateHalos()
	return g, nil
}

func (g *Local) Rows() int   { return g.rows }
func (g *Local) Width() int  { return g.width }
func (g *Local) Stride() int { return g.stride }

// Init applies the boundary policy for rank within a cohort of size ranks
// and fills every other core cell with the boundary mean. Both buffers are
// written so that fixed cells keep their value across swaps.
func (g *Local) Init(cfg plate.Config, rank, size int) {
	g.fixedLeft = cfg.Topology == plate.Open && rank == 0
	g.fixedRight = cfg.Topology == plate.Open && rank == size-1

	mean := cfg.BoundaryMean()
	b := cfg.Boundary
	for _, buf := range g.bufs {
		for i := 0; i < g.rows; i++ {
			row := buf[i*g.stride : (i+1)*g.stride]
			for j := 1; j <= g.width; j++ {
				switch {
				case i == 0:
					row[j] = b.Top
				case i == g.rows-1:
					row[j] = b.Bottom
				case g.fixedLeft && j == 1:
					row[j] = b.Left
				case g.fixedRight && j == g.width:
					row[j] = b.Right
				default:
					row[j] = mean
				}
			}
		}
	}
	g.active = 0
	g.invalidateHalos()
}

// Fill sets every core cell of both buffers to v and marks no column as
// fixed. Used to label subdomains when inspecting an exchange.
func (g *Local) Fill(v float64) {
	g.fixedLeft, g.fixedRight = false, false
	for _, buf := range g.bufs {
		for i := 0; i < g.rows; i++ {
			for j := 1; j <= g.width; j++ {
				buf[i*g.stride+j] = v
			}
		}
	}
	g.invalidateHalos()
}

// FillHalos sets both halo columns of the previous buffer to v without
// marking them valid.
func (g *Local) FillHalos(v float64) {
	prev := g.bufs[g.active]
	for i := 0; i < g.rows; i++ {
		prev[i*g.stride] = v
		prev[i*g.stride+g.width+1] = v
	}
}

// Prev is the buffer holding the latest completed timestep.
func (g *Local) Prev() []float64 { return g.bufs[g.active] }

// Cur is the buffer the next timestep is written into.
func (g *Local) Cur() []float64 { return g.bufs[1-g.active] }

// At returns cell (i, j) of the previous buffer; j counts halo column 0.
func (g *Local) At(i, j int) float64 { return g.bufs[g.active][i*g.stride+j] }

// Row returns row i of the previous buffer including both halos. The slice
// aliases the buffer.
func (g *Local) Row(i int) []float64 {
	return g.bufs[g.active][i*g.stride : (i+1)*g.stride]
}

// Column copies column j of the previous buffer into dst, allocating when
// dst is too short.
func (g *Local) Column(j int, dst []float64) []float64 {
	if len(dst) < g.rows {
		dst = make([]float64, g.rows)
	}
	dst = dst[:g.rows]
	prev := g.bufs[g.active]
	for i := range dst {
		dst[i] = prev[i*g.stride+j]
	}
	return dst
}

// SetColumn writes src into column j of the previous buffer.
func (g *Local) SetColumn(j int, src []float64) {
	prev := g.bufs[g.active]
	for i := 0; i < g.rows && i < len(src); i++ {
		prev[i*g.stride+j] = src[i]
	}
}

// Core returns a copy of the owned cells of the previous buffer.
func (g *Local) Core() [][]float64 {
	out := make([][]float64, g.rows)
	for i := range out {
		out[i] = make([]float64, g.width)
		copy(out[i], g.Row(i)[1:g.width+1])
	}
	return out
}

// FixedColumn reports whether core column j is a physical edge.
func (g *Local) FixedColumn(j int) bool {
	return (g.fixedLeft && j == 1) || (g.fixedRight && j == g.width)
}

// Fixed reports whether core cell (i, j) is a physical boundary cell.
func (g *Local) Fixed(i, j int) bool {
	return i == 0 || i == g.rows-1 || g.FixedColumn(j)
}

// NeedsHalos reports whether an update reads any halo cell.
func (g *Local) NeedsHalos() bool {
	if g.rows < 3 {
		return false
	}
	return !g.FixedColumn(1) || !g.FixedColumn(g.width)
}

// HalosValid reports whether the halos of the previous buffer reflect the
// neighbours' current core cells.
func (g *Local) HalosValid() bool { return g.halosValid }

// MarkHalosValid is called once an exchange into the previous buffer completes.
func (g *Local) MarkHalosValid() { g.halosValid = true }

// Swap makes the current buffer the previous one. The last received halo
// values are carried over for inspection but are no longer valid.
func (g *Local) Swap() {
	from, to := g.bufs[g.active], g.bufs[1-g.active]
	for i := 0; i < g.rows; i++ {
		to[i*g.stride] = from[i*g.stride]
		to[i*g.stride+g.width+1] = from[i*g.stride+g.width+1]
	}
	g.active = 1 - g.active
	g.halosValid = false
}

// Free drops both buffers. The grid must not be used afterwards.
func (g *Local) Free() {
	g.bufs[0], g.bufs[1] = nil, nil
	g.halosValid = false
}

func (g *Local) invalidateHalos() {
	nan := math.NaN()
	for _, buf := range g.bufs {
		for i := 0; i < g.rows; i++ {
			buf[i*g.stride] = nan
			buf[i*g.stride+g.width+1] = nan
		}
	}
	g.halosValid = false
}
