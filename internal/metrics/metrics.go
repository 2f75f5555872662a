package metrics

import "math"

// Metric accumulates a scalar over one or more grids.
type Metric interface {
	Name() string
	Observe(grid [][]float64)
	Value() float64
	Reset()
}

// Mean averages the finite cells of every observed grid.
type Mean struct {
	sum   float64
	cells int
}

func NewMean() *Mean { return &Mean{} }

func (m *Mean) Name() string { return "mean" }

func (m *Mean) Observe(grid [][]float64) {
	for _, row := range grid {
		for _, v := range row {
			if !finite(v) {
				continue
			}
			m.sum += v
			m.cells++
		}
	}
}

func (m *Mean) Value() float64 {
	if m.cells == 0 {
		return 0
	}
	return m.sum / float64(m.cells)
}

func (m *Mean) Reset() {
	m.sum = 0
	m.cells = 0
}

// Extreme tracks the smallest or largest cell seen.
type Extreme struct {
	name string
	max  bool
	val  float64
	seen bool
}

func NewMin() *Extreme { return &Extreme{name: "min"} }
func NewMax() *Extreme { return &Extreme{name: "max", max: true} }

func (e *Extreme) Name() string { return e.name }

func (e *Extreme) Observe(grid [][]float64) {
	for _, row := range grid {
		for _, v := range row {
			switch {
			case !finite(v):
			case !e.seen:
				e.val, e.seen = v, true
			case e.max:
				e.val = math.Max(e.val, v)
			default:
				e.val = math.Min(e.val, v)
			}
		}
	}
}

func (e *Extreme) Value() float64 {
	if !e.seen {
		return 0
	}
	return e.val
}

func (e *Extreme) Reset() {
	e.val = 0
	e.seen = false
}

// MaxDeviation is the largest absolute difference between an observed grid
// and a fixed reference. Cells outside the reference are ignored.
type MaxDeviation struct {
	ref [][]float64
	dev float64
}

func NewMaxDeviation(ref [][]float64) *MaxDeviation {
	return &MaxDeviation{ref: ref}
}

func (d *MaxDeviation) Name() string { return "max_deviation" }

func (d *MaxDeviation) Observe(grid [][]float64) {
	for i := 0; i < len(grid) && i < len(d.ref); i++ {
		for j := 0; j < len(grid[i]) && j < len(d.ref[i]); j++ {
			if !finite(grid[i][j]) || !finite(d.ref[i][j]) {
				continue
			}
			d.dev = math.Max(d.dev, math.Abs(grid[i][j]-d.ref[i][j]))
		}
	}
}

func (d *MaxDeviation) Value() float64 { return d.dev }

func (d *MaxDeviation) Reset() { d.dev = 0 }

// finite reports whether v holds a value. Halo cells that were never
// received are NaN.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Summarize evaluates the default metrics on grid.
func Summarize(grid [][]float64, extra ...Metric) map[string]float64 {
	ms := append([]Metric{NewMean(), NewMin(), NewMax()}, extra...)
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Observe(grid)
		out[m.Name()] = m.Value()
	}
	return out
}
