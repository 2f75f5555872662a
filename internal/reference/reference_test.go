package reference

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/haloplate/internal/plate"
)

func TestInitHeatedPlate(t *testing.T) {
	u := Init(plate.HeatedPlate())

	if len(u) != 4 || len(u[0]) != 16 {
		t.Fatalf("expected 4x16, got %dx%d", len(u), len(u[0]))
	}
	if u[0][5] != 0 || u[3][5] != 100 {
		t.Errorf("unexpected top/bottom: %f %f", u[0][5], u[3][5])
	}
	if u[1][0] != 100 || u[2][15] != 100 {
		t.Errorf("unexpected left/right: %f %f", u[1][0], u[2][15])
	}
	if u[1][7] != 50 {
		t.Errorf("expected mean 50, got %f", u[1][7])
	}
}

func TestRunKeepsBoundary(t *testing.T) {
	cfg := plate.HeatedPlate()
	res, err := Run(cfg)
	if err != nil {
		t.Fatal(err)
	}

	init := Init(cfg)
	for j := 0; j < cfg.Cols; j++ {
		if res.Grid[0][j] != init[0][j] || res.Grid[3][j] != init[3][j] {
			t.Errorf("top/bottom changed at column %d", j)
		}
	}
	for i := 1; i < cfg.Rows-1; i++ {
		if res.Grid[i][0] != 100 || res.Grid[i][15] != 100 {
			t.Errorf("left/right changed at row %d", i)
		}
	}
	if len(res.Residuals) != cfg.Iterations {
		t.Errorf("expected %d residuals, got %d", cfg.Iterations, len(res.Residuals))
	}
}

func TestRunConvergesTowardsSteadyState(t *testing.T) {
	cfg := plate.HeatedPlate()
	cfg.Iterations = 500
	res, err := Run(cfg)
	if err != nil {
		t.Fatal(err)
	}

	first, last := res.Residuals[0], res.Residuals[len(res.Residuals)-1]
	if last >= first {
		t.Errorf("expected residual to shrink, first %f last %f", first, last)
	}

	// steady state satisfies the stencil everywhere in the interior
	g := res.Grid
	for i := 1; i < cfg.Rows-1; i++ {
		for j := 1; j < cfg.Cols-1; j++ {
			avg := (g[i-1][j] + g[i+1][j] + g[i][j-1] + g[i][j+1]) / 4
			if math.Abs(avg-g[i][j]) > 1e-6 {
				t.Errorf("cell (%d,%d) not at steady state: %f vs %f", i, j, g[i][j], avg)
			}
		}
	}
}

func TestPeriodicUniformRowsStayUniform(t *testing.T) {
	cfg := plate.Config{
		Rows:       6,
		Cols:       5,
		Iterations: 30,
		Boundary:   plate.Boundary{Top: 10, Bottom: 40},
		Topology:   plate.Periodic,
	}
	res, err := Run(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range res.Grid {
		for j := 1; j < len(row); j++ {
			if row[j] != row[0] {
				t.Errorf("row %d not uniform: %v", i, row)
				break
			}
		}
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	_, err := Run(plate.Config{Rows: 1, Cols: 3})
	if !errors.Is(err, plate.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
