package comm

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

type route struct {
	source, dest, tag int
}

// Cohort is an in-process group of ranks connected by channels.
type Cohort struct {
	size int

	mu     sync.Mutex
	routes map[route]chan []float64
	err    error

	done      chan struct{}
	abortOnce sync.Once
}

// NewLocal creates a cohort of size ranks. It panics if size < 1.
func NewLocal(size int) *Cohort {
	if size < 1 {
		panic(fmt.Sprintf("comm: cohort size must be positive, got %d", size))
	}
	return &Cohort{
		size:   size,
		routes: make(map[route]chan []float64),
		done:   make(chan struct{}),
	}
}

func (c *Cohort) Size() int { return c.size }

// Comm returns the handle for rank.
func (c *Cohort) Comm(rank int) Comm {
	if rank < 0 || rank >= c.size {
		panic(fmt.Sprintf("comm: rank %d outside cohort of %d", rank, c.size))
	}
	return &endpoint{cohort: c, rank: rank}
}

// Abort cancels every pending and future operation. Only the first code is kept.
func (c *Cohort) Abort(code int) {
	c.abortOnce.Do(func() {
		c.mu.Lock()
		c.err = &AbortError{Code: code}
		c.mu.Unlock()
		close(c.done)
	})
}

// Done is closed when the cohort is aborted.
func (c *Cohort) Done() <-chan struct{} { return c.done }

// Err returns the *AbortError once the cohort has been aborted, nil before.
func (c *Cohort) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Cohort) channel(r route) chan []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.routes[r]
	if !ok {
		ch = make(chan []float64)
		c.routes[r] = ch
	}
	return ch
}

type endpoint struct {
	cohort *Cohort
	rank   int
}

func (e *endpoint) Rank() int      { return e.rank }
func (e *endpoint) Size() int      { return e.cohort.size }
func (e *endpoint) Abort(code int) { e.cohort.Abort(code) }

func (e *endpoint) checkPeer(peer int) error {
	if peer < 0 || peer >= e.cohort.size {
		return fmt.Errorf("%w: %d (cohort size %d)", ErrInvalidRank, peer, e.cohort.size)
	}
	return nil
}

func (e *endpoint) Send(ctx context.Context, dest, tag int, buf []float64) error {
	if dest == ProcNull {
		return nil
	}
	if err := e.checkPeer(dest); err != nil {
		return err
	}
	if err := e.cohort.Err(); err != nil {
		return err
	}

	msg := make([]float64, len(buf))
	copy(msg, buf)

	ch := e.cohort.channel(route{source: e.rank, dest: dest, tag: tag})
	select {
	case ch <- msg:
		return nil
	case <-e.cohort.done:
		return e.cohort.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *endpoint) Recv(ctx context.Context, source, tag int, buf []float64) (Status, error) {
	if source == ProcNull {
		return Status{Source: ProcNull, Tag: tag}, nil
	}
	if err := e.checkPeer(source); err != nil {
		return Status{}, err
	}
	if err := e.cohort.Err(); err != nil {
		return Status{}, err
	}

	ch := e.cohort.channel(route{source: source, dest: e.rank, tag: tag})
	select {
	case msg := <-ch:
		st := Status{Source: source, Tag: tag, Count: len(msg)}
		if len(msg) != len(buf) {
			return st, fmt.Errorf("%w: got %d values from rank %d, buffer holds %d", ErrSizeMismatch, len(msg), source, len(buf))
		}
		copy(buf, msg)
		return st, nil
	case <-e.cohort.done:
		return Status{}, e.cohort.Err()
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

func (e *endpoint) Sendrecv(ctx context.Context, sendBuf []float64, dest, sendTag int, recvBuf []float64, source, recvTag int) (Status, error) {
	var st Status
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.Send(gctx, dest, sendTag, sendBuf)
	})
	g.Go(func() error {
		var err error
		st, err = e.Recv(gctx, source, recvTag, recvBuf)
		return err
	})
	return st, g.Wait()
}

func (e *endpoint) Isend(ctx context.Context, dest, tag int, buf []float64) *Request {
	// the payload is copied before returning so the caller may reuse buf
	msg := make([]float64, len(buf))
	copy(msg, buf)
	return start(ctx, func(ctx context.Context) (Status, error) {
		return Status{Source: e.rank, Tag: tag, Count: len(msg)}, e.Send(ctx, dest, tag, msg)
	})
}

func (e *endpoint) Irecv(ctx context.Context, source, tag int, buf []float64) *Request {
	return start(ctx, func(ctx context.Context) (Status, error) {
		return e.Recv(ctx, source, tag, buf)
	})
}
