package halo

import (
	"context"

	"github.com/san-kum/haloplate/internal/comm"
	"github.com/san-kum/haloplate/internal/grid"
	"github.com/san-kum/haloplate/internal/plate"
)

// Message tags, one per shift direction.
const (
	TagLeftward  = 1
	TagRightward = 2
)

// Exchanger runs halo exchanges for one rank.
type Exchanger struct {
	comm     comm.Comm
	left     int
	right    int
	strategy Strategy

	sendBuf []float64
	recvBuf []float64
}

func NewExchanger(c comm.Comm, topo plate.Topology, strategy Strategy) *Exchanger {
	left, right := Neighbors(c.Rank(), c.Size(), topo)
	return &Exchanger{comm: c, left: left, right: right, strategy: strategy}
}

func (x *Exchanger) Left() int  { return x.left }
func (x *Exchanger) Right() int { return x.right }

// Exchange refreshes both halo columns of g's previous buffer. A failure is
// returned as *plate.CommunicationError and leaves the halos invalid.
func (x *Exchanger) Exchange(ctx context.Context, g *grid.Local, iter int) error {
	if cap(x.recvBuf) < g.Rows() {
		x.sendBuf = make([]float64, g.Rows())
		x.recvBuf = make([]float64, g.Rows())
	}
	w := g.Width()

	if err := x.shift(ctx, g, iter, "leftward shift", 1, x.left, w+1, x.right, TagLeftward); err != nil {
		return err
	}
	if err := x.shift(ctx, g, iter, "rightward shift", w, x.right, 0, x.left, TagRightward); err != nil {
		return err
	}
	g.MarkHalosValid()
	return nil
}

func (x *Exchanger) shift(ctx context.Context, g *grid.Local, iter int, op string, sendCol, dest, recvCol, source, tag int) error {
	send := g.Column(sendCol, x.sendBuf)
	recv := x.recvBuf[:g.Rows()]

	var err error
	switch x.strategy {
	case NonBlocking:
		err = comm.Waitall(
			x.comm.Irecv(ctx, source, tag, recv),
			x.comm.Isend(ctx, dest, tag, send),
		)
	default:
		_, err = x.comm.Sendrecv(ctx, send, dest, tag, recv, source, tag)
	}
	if err != nil {
		peer := dest
		if peer == comm.ProcNull {
			peer = source
		}
		return &plate.CommunicationError{Rank: x.comm.Rank(), Peer: peer, Op: op, Iteration: iter, Err: err}
	}

	if source != comm.ProcNull {
		g.SetColumn(recvCol, recv)
	}
	return nil
}
