package solver

import (
	"context"
	"sync"

	"github.com/san-kum/haloplate/internal/collect"
	"github.com/san-kum/haloplate/internal/comm"
	"github.com/san-kum/haloplate/internal/grid"
	"github.com/san-kum/haloplate/internal/halo"
	"github.com/san-kum/haloplate/internal/partition"
	"github.com/san-kum/haloplate/internal/plate"
)

// HaloFill marks halo cells in the demonstration grid before any exchange.
const HaloFill = -1

// HaloDemo fills every rank's core with its rank number and its halos with
// HaloFill, then gathers the diagnostic grid once before and once after a
// single exchange. Only the shape and topology of cfg are used.
func HaloDemo(ctx context.Context, cfg plate.Config, size int, strategy halo.Strategy) (before, after [][]float64, err error) {
	if err := Validate(cfg, size); err != nil {
		return nil, nil, err
	}
	widths, _ := partition.Widths(cfg.Cols, size)

	cohort := comm.NewLocal(size)
	var b, a collect.MatrixSink
	errs := make([]error, size)

	var wg sync.WaitGroup
	for r := 0; r < size; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			c := cohort.Comm(rank)
			errs[rank] = demoRank(ctx, c, cfg, widths, strategy, &b, &a)
			if errs[rank] != nil {
				c.Abort(ExitCommunication)
			}
		}(r)
	}
	wg.Wait()
	if err := rootCause(errs); err != nil {
		return nil, nil, err
	}
	return b.Rows, a.Rows, nil
}

func demoRank(ctx context.Context, c comm.Comm, cfg plate.Config, widths []int, strategy halo.Strategy, before, after collect.RowSink) error {
	rank := c.Rank()
	g, err := grid.New(cfg.Rows, widths[rank])
	if err != nil {
		return err
	}
	defer g.Free()
	g.Fill(float64(rank))
	g.FillHalos(HaloFill)

	var bs, as collect.RowSink
	if rank == collect.Root {
		bs, as = before, after
	}
	if err := collect.Gather(ctx, c, g, widths, collect.Diagnostic, bs); err != nil {
		return err
	}
	if err := halo.NewExchanger(c, cfg.Topology, strategy).Exchange(ctx, g, 0); err != nil {
		return err
	}
	return collect.Gather(ctx, c, g, widths, collect.Diagnostic, as)
}
