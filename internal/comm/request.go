package comm

import (
	"context"
	"errors"
	"sync"
)

// Request is a pending non-blocking operation.
type Request struct {
	done   chan struct{}
	cancel context.CancelFunc
	status Status
	err    error
}

func start(ctx context.Context, op func(context.Context) (Status, error)) *Request {
	ctx, cancel := context.WithCancel(ctx)
	r := &Request{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(r.done)
		defer cancel()
		r.status, r.err = op(ctx)
	}()
	return r
}

// Wait blocks until the request completes.
func (r *Request) Wait() (Status, error) {
	<-r.done
	return r.status, r.err
}

// Test reports whether the request has completed without blocking.
func (r *Request) Test() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Waitall blocks until every request has completed. When one fails the
// others are cancelled so that a broken transfer cannot leave its partner
// blocked forever.
func Waitall(reqs ...*Request) error {
	var (
		wg     sync.WaitGroup
		once   sync.Once
		failed = make(chan struct{})
		all    = make(chan struct{})
	)
	for _, r := range reqs {
		wg.Add(1)
		go func(r *Request) {
			defer wg.Done()
			<-r.done
			if r.err != nil {
				once.Do(func() { close(failed) })
			}
		}(r)
	}
	go func() {
		wg.Wait()
		close(all)
	}()

	select {
	case <-all:
	case <-failed:
		for _, r := range reqs {
			r.cancel()
		}
		<-all
	}

	var errs []error
	for _, r := range reqs {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return errors.Join(errs...)
}
