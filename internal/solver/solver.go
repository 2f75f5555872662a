package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/haloplate/internal/collect"
	"github.com/san-kum/haloplate/internal/comm"
	"github.com/san-kum/haloplate/internal/grid"
	"github.com/san-kum/haloplate/internal/halo"
	"github.com/san-kum/haloplate/internal/logging"
	"github.com/san-kum/haloplate/internal/partition"
	"github.com/san-kum/haloplate/internal/plate"
	"github.com/san-kum/haloplate/internal/stencil"
)

// Validate checks cfg against a cohort of size ranks without communicating.
func Validate(cfg plate.Config, size int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err := partition.Widths(cfg.Cols, size)
	return err
}

// Run executes the solver on an in-process cohort of size ranks and returns
// the root's result.
func Run(ctx context.Context, cfg plate.Config, size int, opts Options) (*Result, error) {
	if err := Validate(cfg, size); err != nil {
		return nil, err
	}

	tracker := NewResidualTracker()
	opts.Observers = append([]Observer{tracker}, opts.Observers...)

	cohort := comm.NewLocal(size)
	results := make([]*Result, size)
	errs := make([]error, size)

	start := time.Now()
	var wg sync.WaitGroup
	for r := 0; r < size; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			results[rank], errs[rank] = RunRank(ctx, cohort.Comm(rank), cfg, opts)
		}(r)
	}
	wg.Wait()

	if err := rootCause(errs); err != nil {
		return nil, err
	}

	res := results[collect.Root]
	res.Residuals = tracker.History(cfg.Iterations)
	res.Elapsed = time.Since(start)
	return res, nil
}

// RunRank executes one rank of the solver on c. Only the root's result
// carries the grid.
func RunRank(ctx context.Context, c comm.Comm, cfg plate.Config, opts Options) (*Result, error) {
	rank, size := c.Rank(), c.Size()
	log := logging.ForRank(opts.Logger, rank, size)
	start := time.Now()

	if err := Validate(cfg, size); err != nil {
		return nil, fail(c, log, err)
	}
	widths, _ := partition.Widths(cfg.Cols, size)

	g, err := grid.New(cfg.Rows, widths[rank])
	if err != nil {
		return nil, fail(c, log, err)
	}
	defer g.Free()
	g.Init(cfg, rank, size)

	x := halo.NewExchanger(c, cfg.Topology, opts.Strategy)
	eng := stencil.New(opts.Workers)
	log.Debug("subdomain ready",
		zap.Int("width", widths[rank]),
		zap.Int("left", x.Left()),
		zap.Int("right", x.Right()))

	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fail(c, log, err)
		}
		if err := x.Exchange(ctx, g, iter); err != nil {
			return nil, fail(c, log, err)
		}
		residual, err := eng.Step(g)
		if err != nil {
			return nil, fail(c, log, fmt.Errorf("rank %d iter %d: %w", rank, iter, err))
		}

		for _, o := range opts.Observers {
			o.OnIteration(rank, iter, residual)
			if gobs, ok := o.(GridObserver); ok {
				gobs.OnGrid(rank, iter, g)
			}
		}
		log.Debug("iteration complete", zap.Int("iter", iter), zap.Float64("residual", residual))
	}

	var m *collect.MatrixSink
	var sink collect.RowSink
	if rank == collect.Root {
		m = &collect.MatrixSink{}
		sink = m
		if opts.Sink != nil {
			sink = collect.Tee{m, opts.Sink}
		}
	}
	if err := collect.Gather(ctx, c, g, widths, opts.Mode, sink); err != nil {
		return nil, fail(c, log, err)
	}

	res := &Result{Widths: widths, Iterations: cfg.Iterations, Elapsed: time.Since(start)}
	if m != nil {
		res.Grid = m.Rows
	}
	log.Debug("rank finished", zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func fail(c comm.Comm, log *zap.Logger, err error) error {
	code := ExitFailure
	switch {
	case errors.Is(err, plate.ErrConfiguration):
		code = ExitConfiguration
	case errors.Is(err, plate.ErrCommunication):
		code = ExitCommunication
	}
	if !errors.Is(err, comm.ErrAborted) {
		log.Error("aborting cohort", zap.Error(err), zap.Int("code", code))
	}
	c.Abort(code)
	return err
}

// rootCause prefers the error that triggered the abort over the errors the
// abort caused on other ranks.
func rootCause(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, comm.ErrAborted) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}
