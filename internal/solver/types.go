package solver

import (
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/haloplate/internal/collect"
	"github.com/san-kum/haloplate/internal/grid"
	"github.com/san-kum/haloplate/internal/halo"
)

// Observer is notified after every rank finishes an update.
type Observer interface {
	OnIteration(rank, iter int, residual float64)
}

// GridObserver additionally receives the rank's subdomain after the update.
// The grid must not be retained past the call.
type GridObserver interface {
	Observer
	OnGrid(rank, iter int, g *grid.Local)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rank, iter int, residual float64)

func (f ObserverFunc) OnIteration(rank, iter int, residual float64) { f(rank, iter, residual) }

type Options struct {
	Strategy halo.Strategy
	Mode     collect.Mode
	// Workers is the number of goroutines each rank uses for its update;
	// zero picks runtime.NumCPU.
	Workers int
	Logger  *zap.Logger
	// Sink receives every assembled row at the root in addition to the
	// matrix kept in Result.
	Sink      collect.RowSink
	Observers []Observer
}

type Result struct {
	Grid       [][]float64
	Widths     []int
	Iterations int
	// Residuals holds the largest change of any cell per iteration, taken
	// over all ranks.
	Residuals []float64
	Elapsed   time.Duration
}

// Abort codes passed to the cohort.
const (
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitCommunication = 3
)
