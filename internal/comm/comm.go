package comm

import (
	"context"
	"errors"
	"fmt"
)

// ProcNull is the rank of a neighbour that does not exist.
const ProcNull = -1

var (
	// ErrAborted is returned by every operation once the cohort has been aborted.
	ErrAborted = errors.New("comm: cohort aborted")

	// ErrSizeMismatch indicates a message whose length differs from the receive buffer.
	ErrSizeMismatch = errors.New("comm: message size mismatch")

	// ErrInvalidRank indicates a peer rank outside the cohort.
	ErrInvalidRank = errors.New("comm: invalid rank")
)

// AbortError carries the exit code passed to Abort.
type AbortError struct {
	Code int
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("comm: cohort aborted with code %d", e.Code)
}

func (e *AbortError) Unwrap() error { return ErrAborted }

// Status describes a completed receive.
type Status struct {
	Source int
	Tag    int
	Count  int
}

// Comm is one rank's handle on the cohort.
type Comm interface {
	Rank() int
	Size() int

	// Send blocks until dest has received buf.
	Send(ctx context.Context, dest, tag int, buf []float64) error

	// Recv blocks until a message from source with tag has been copied into buf.
	Recv(ctx context.Context, source, tag int, buf []float64) (Status, error)

	// Sendrecv posts a send to dest and a receive from source together and
	// returns once both have completed.
	Sendrecv(ctx context.Context, sendBuf []float64, dest, sendTag int, recvBuf []float64, source, recvTag int) (Status, error)

	Isend(ctx context.Context, dest, tag int, buf []float64) *Request
	Irecv(ctx context.Context, source, tag int, buf []float64) *Request

	// Abort terminates every rank of the cohort.
	Abort(code int)
}
