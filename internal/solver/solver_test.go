package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/san-kum/haloplate/internal/collect"
	"github.com/san-kum/haloplate/internal/comm"
	"github.com/san-kum/haloplate/internal/grid"
	"github.com/san-kum/haloplate/internal/halo"
	"github.com/san-kum/haloplate/internal/plate"
	"github.com/san-kum/haloplate/internal/reference"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var approx = cmpopts.EquateApprox(0, 1e-6)

func TestHeatedPlateMatchesReference(t *testing.T) {
	cfg := plate.HeatedPlate()

	res, err := Run(context.Background(), cfg, 4, Options{})
	require.NoError(t, err)

	want, err := reference.Run(cfg)
	require.NoError(t, err)

	if diff := cmp.Diff(want.Grid, res.Grid, approx); diff != "" {
		t.Errorf("grid mismatch (-reference +distributed):\n%s", diff)
	}
	if diff := cmp.Diff(want.Residuals, res.Residuals, approx); diff != "" {
		t.Errorf("residual mismatch (-reference +distributed):\n%s", diff)
	}
	assert.Equal(t, []int{4, 4, 4, 4}, res.Widths)
	assert.Equal(t, 18, res.Iterations)
}

// Known output of the 4x16 plate on 4 ranks after 18 iterations, to two
// decimals. Independent of the reference solver.
func TestHeatedPlateGoldenCells(t *testing.T) {
	res, err := Run(context.Background(), plate.HeatedPlate(), 4, Options{})
	require.NoError(t, err)

	golden := map[int][]float64{
		0: {0, 0, 0, 0, 0, 0, 0, 0},
		1: {100.00, 55.91, 41.35, 36.26, 34.42, 33.74, 33.49, 33.41},
		2: {100.00, 82.28, 73.23, 69.29, 67.69, 67.06, 66.82, 66.74},
		3: {100, 100, 100, 100, 100, 100, 100, 100},
	}
	for i, want := range golden {
		row := res.Grid[i]
		require.Len(t, row, 16)
		for j, w := range want {
			assert.InDelta(t, w, row[j], 0.005, "row %d col %d", i, j)
			// symmetric about the vertical centre line
			assert.InDelta(t, w, row[15-j], 0.005, "row %d col %d", i, 15-j)
		}
	}
}

func TestEquivalenceWithReference(t *testing.T) {
	tests := []struct {
		rows, cols, size int
		topo             plate.Topology
	}{
		{5, 7, 3, plate.Open},
		{6, 10, 4, plate.Open},
		{6, 10, 4, plate.Periodic},
		{3, 5, 5, plate.Open},
		{3, 5, 5, plate.Periodic},
		{8, 9, 1, plate.Open},
		{8, 9, 1, plate.Periodic},
		{2, 4, 2, plate.Open},
		{10, 3, 2, plate.Periodic},
	}

	for _, tt := range tests {
		for _, strategy := range []halo.Strategy{halo.SendRecv, halo.NonBlocking} {
			name := fmt.Sprintf("%dx%d/n=%d/%s/%s", tt.rows, tt.cols, tt.size, tt.topo, strategy)
			t.Run(name, func(t *testing.T) {
				cfg := plate.Config{
					Rows:       tt.rows,
					Cols:       tt.cols,
					Iterations: 12,
					Boundary:   plate.Boundary{Top: 10, Bottom: 90, Left: 40, Right: 70},
					Topology:   tt.topo,
				}

				res, err := Run(context.Background(), cfg, tt.size, Options{Strategy: strategy})
				require.NoError(t, err)

				want, err := reference.Run(cfg)
				require.NoError(t, err)

				if diff := cmp.Diff(want.Grid, res.Grid, approx); diff != "" {
					t.Errorf("grid mismatch (-reference +distributed):\n%s", diff)
				}
			})
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := plate.HeatedPlate()
	cfg.Iterations = 40

	a, err := Run(context.Background(), cfg, 3, Options{Workers: 4})
	require.NoError(t, err)
	b, err := Run(context.Background(), cfg, 3, Options{Workers: 1, Strategy: halo.NonBlocking})
	require.NoError(t, err)

	assert.Equal(t, a.Grid, b.Grid)
	assert.Equal(t, a.Residuals, b.Residuals)
}

type boundaryWatcher struct {
	cfg plate.Config

	mu         sync.Mutex
	checked    int
	violations []string
}

func (w *boundaryWatcher) OnIteration(int, int, float64) {}

func (w *boundaryWatcher) OnGrid(rank, iter int, g *grid.Local) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.cfg.Boundary
	for i := 0; i < g.Rows(); i++ {
		for j := 1; j <= g.Width(); j++ {
			if !g.Fixed(i, j) {
				continue
			}
			want := b.Right
			switch {
			case i == 0:
				want = b.Top
			case i == g.Rows()-1:
				want = b.Bottom
			case rank == 0 && j == 1:
				want = b.Left
			}
			w.checked++
			if got := g.At(i, j); got != want {
				w.violations = append(w.violations,
					fmt.Sprintf("rank %d iter %d cell (%d,%d): %v != %v", rank, iter, i, j, got, want))
			}
		}
	}
}

func TestBoundaryNeverChanges(t *testing.T) {
	cfg := plate.HeatedPlate()
	cfg.Boundary = plate.Boundary{Top: 5, Bottom: 15, Left: 25, Right: 35}
	w := &boundaryWatcher{cfg: cfg}

	_, err := Run(context.Background(), cfg, 4, Options{Observers: []Observer{w}})
	require.NoError(t, err)

	assert.Positive(t, w.checked)
	assert.Empty(t, w.violations)
}

func TestObserversSeeEveryRankAndIteration(t *testing.T) {
	cfg := plate.HeatedPlate()
	var calls atomic.Int64

	count := ObserverFunc(func(rank, iter int, residual float64) {
		calls.Add(1)
	})
	res, err := Run(context.Background(), cfg, 4, Options{Observers: []Observer{count}})
	require.NoError(t, err)

	assert.EqualValues(t, 4*cfg.Iterations, calls.Load())
	assert.Len(t, res.Residuals, cfg.Iterations)
}

func TestRunOneRankPerColumn(t *testing.T) {
	cfg := plate.HeatedPlate()
	cfg.Cols = 6

	res, err := Run(context.Background(), cfg, 6, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1}, res.Widths)

	want, err := reference.Run(cfg)
	require.NoError(t, err)
	if diff := cmp.Diff(want.Grid, res.Grid, approx); diff != "" {
		t.Errorf("grid mismatch:\n%s", diff)
	}
}

func TestRunRejectsMoreRanksThanColumns(t *testing.T) {
	cfg := plate.HeatedPlate()
	cfg.Cols = 3

	_, err := Run(context.Background(), cfg, 4, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, plate.ErrConfiguration)

	var cerr *plate.ConfigurationError
	assert.ErrorAs(t, err, &cerr)
}

func TestRunRankFailsBeforeCommunicating(t *testing.T) {
	cfg := plate.HeatedPlate()
	cfg.Cols = 2
	cohort := comm.NewLocal(3)

	// a lone rank must return without waiting on peers that never start
	_, err := RunRank(context.Background(), cohort.Comm(1), cfg, Options{})
	require.ErrorIs(t, err, plate.ErrConfiguration)

	var abort *comm.AbortError
	require.ErrorAs(t, cohort.Err(), &abort)
	assert.Equal(t, ExitConfiguration, abort.Code)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := plate.HeatedPlate()
	cfg.Iterations = -1

	_, err := Run(context.Background(), cfg, 2, Options{})
	assert.ErrorIs(t, err, plate.ErrConfiguration)
}

type failingSink struct{ after int }

var errSinkFull = errors.New("sink full")

func (s *failingSink) WriteRow(row int, _ [][]float64) error {
	if row >= s.after {
		return errSinkFull
	}
	return nil
}

func TestRootFailureAbortsCohort(t *testing.T) {
	cfg := plate.HeatedPlate()
	cfg.Rows = 6

	_, err := Run(context.Background(), cfg, 4, Options{Sink: &failingSink{after: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errSinkFull)
	assert.NotErrorIs(t, err, comm.ErrAborted)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, plate.HeatedPlate(), 2, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSinkReceivesCoreRows(t *testing.T) {
	cfg := plate.HeatedPlate()
	var rows [][]float64
	sink := sinkFunc(func(_ int, segments [][]float64) error {
		var row []float64
		for _, s := range segments {
			row = append(row, s...)
		}
		rows = append(rows, row)
		return nil
	})

	res, err := Run(context.Background(), cfg, 4, Options{Sink: sink})
	require.NoError(t, err)
	assert.Equal(t, res.Grid, rows)
}

type sinkFunc func(int, [][]float64) error

func (f sinkFunc) WriteRow(row int, segments [][]float64) error { return f(row, segments) }

func TestDiagnosticModeIncludesHalos(t *testing.T) {
	cfg := plate.HeatedPlate()
	res, err := Run(context.Background(), cfg, 4, Options{Mode: collect.Diagnostic})
	require.NoError(t, err)

	require.Len(t, res.Grid, cfg.Rows)
	assert.Len(t, res.Grid[0], cfg.Cols+2*4)
}

func TestResidualTracker(t *testing.T) {
	tr := NewResidualTracker()
	iter, _ := tr.Latest()
	assert.Equal(t, -1, iter)

	tr.OnIteration(0, 0, 1.5)
	tr.OnIteration(1, 0, 2.5)
	tr.OnIteration(1, 1, 0.5)
	tr.OnIteration(0, 1, 0.25)

	assert.Equal(t, []float64{2.5, 0.5, 0}, tr.History(3))
	iter, r := tr.Latest()
	assert.Equal(t, 1, iter)
	assert.Equal(t, 0.5, r)
}

func TestRootCausePrefersNonAbortErrors(t *testing.T) {
	aborted := fmt.Errorf("rank 0: %w", &comm.AbortError{Code: ExitFailure})
	cause := errors.New("rank 2 failed")

	tests := []struct {
		name string
		errs []error
		want error
	}{
		{"none", []error{nil, nil}, nil},
		{"cause after echoes", []error{aborted, nil, cause}, cause},
		{"only echoes", []error{nil, aborted, aborted}, aborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rootCause(tt.errs))
		})
	}
}
