// Package reference runs the plate on a single, unpartitioned grid.
//
// It applies the same initialisation, boundary policy and stencil as the
// distributed solver and exists to check it.
package reference

import (
	"math"

	"github.com/san-kum/haloplate/internal/plate"
)

type Result struct {
	Grid      [][]float64
	Residuals []float64
}

// Init returns the initial R x C plate.
func Init(cfg plate.Config) [][]float64 {
	mean := cfg.BoundaryMean()
	b := cfg.Boundary
	open := cfg.Topology == plate.Open

	u := make([][]float64, cfg.Rows)
	for i := range u {
		u[i] = make([]float64, cfg.Cols)
		for j := range u[i] {
			switch {
			case i == 0:
				u[i][j] = b.Top
			case i == cfg.Rows-1:
				u[i][j] = b.Bottom
			case open && j == 0:
				u[i][j] = b.Left
			case open && j == cfg.Cols-1:
				u[i][j] = b.Right
			default:
				u[i][j] = mean
			}
		}
	}
	return u
}

func Run(cfg plate.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	u := Init(cfg)
	w := make([][]float64, cfg.Rows)
	for i := range w {
		w[i] = append([]float64(nil), u[i]...)
	}

	res := &Result{Residuals: make([]float64, 0, cfg.Iterations)}
	for it := 0; it < cfg.Iterations; it++ {
		res.Residuals = append(res.Residuals, step(cfg, u, w))
		u, w = w, u
	}
	res.Grid = u
	return res, nil
}

func step(cfg plate.Config, u, w [][]float64) float64 {
	rows, cols := cfg.Rows, cfg.Cols
	periodic := cfg.Topology == plate.Periodic

	delta := 0.0
	for i := 1; i < rows-1; i++ {
		for j := 0; j < cols; j++ {
			if !periodic && (j == 0 || j == cols-1) {
				continue
			}
			l, r := j-1, j+1
			if periodic {
				l = (j + cols - 1) % cols
				r = (j + 1) % cols
			}
			w[i][j] = (u[i-1][j] + u[i+1][j] + u[i][l] + u[i][r]) / 4.0
			delta = math.Max(delta, math.Abs(w[i][j]-u[i][j]))
		}
	}
	return delta
}
