// Package collect rebuilds the global plate at the root rank.
//
// The root walks the rows in order. For each row it emits its own columns
// and then receives the same row from rank 1, 2, ... in strictly ascending
// order, blocking on one peer at a time. Other ranks only send; the root
// alone decides the order, which makes the output a single deterministic
// row-major serialisation of the partitioned plate.
package collect

import (
	"context"

	"github.com/san-kum/haloplate/internal/comm"
	"github.com/san-kum/haloplate/internal/grid"
	"github.com/san-kum/haloplate/internal/plate"
)

// Root is the rank that reconstructs the plate.
const Root = 0

// TagRow is the tag of row messages sent to the root.
const TagRow = 100

// Mode selects which cells of each subdomain end up in the output.
type Mode int

const (
	// Core emits owned cells only: the final values of the plate.
	Core Mode = iota
	// Diagnostic emits every subdomain with both halo columns.
	Diagnostic
)

func (m Mode) String() string {
	if m == Diagnostic {
		return "diagnostic"
	}
	return "core"
}

// RowSink receives assembled rows at the root in order. segments holds one
// slice per rank.
type RowSink interface {
	WriteRow(row int, segments [][]float64) error
}

// Gather runs the collection on every rank. widths holds the width of every
// rank. sink is only used at the root and may be nil elsewhere.
func Gather(ctx context.Context, c comm.Comm, g *grid.Local, widths []int, mode Mode, sink RowSink) error {
	if c.Rank() != Root {
		return send(ctx, c, g)
	}

	if sink == nil {
		sink = &MatrixSink{}
	}

	bufs := make([][]float64, len(widths))
	for r := 1; r < len(widths); r++ {
		bufs[r] = make([]float64, widths[r]+2)
	}

	for i := 0; i < g.Rows(); i++ {
		segments := make([][]float64, len(widths))
		segments[Root] = pick(g.Row(i), g.Width(), mode)

		for r := 1; r < len(widths); r++ {
			if _, err := c.Recv(ctx, r, TagRow, bufs[r]); err != nil {
				return &plate.CommunicationError{Rank: Root, Peer: r, Op: "gather row", Iteration: -1, Err: err}
			}
			segments[r] = pick(bufs[r], widths[r], mode)
		}

		if err := sink.WriteRow(i, segments); err != nil {
			return err
		}
	}
	return nil
}

func send(ctx context.Context, c comm.Comm, g *grid.Local) error {
	for i := 0; i < g.Rows(); i++ {
		if err := c.Send(ctx, Root, TagRow, g.Row(i)); err != nil {
			return &plate.CommunicationError{Rank: c.Rank(), Peer: Root, Op: "send row", Iteration: -1, Err: err}
		}
	}
	return nil
}

// pick copies the part of a full row (halos included) that mode asks for.
func pick(row []float64, width int, mode Mode) []float64 {
	src := row[1 : width+1]
	if mode == Diagnostic {
		src = row[:width+2]
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}
