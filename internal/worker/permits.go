package worker

import (
	"context"
	"errors"
)

// ErrPoolClosed is returned by Acquire once the permit pool has been
// closed by a shutdown in progress.
var ErrPoolClosed = errors.New("worker: permit pool closed")

// PermitPool is the shared concurrency permit pool from spec §4.4 and
// §5: a fixed number of tokens, handed out to executor tasks and
// released on completion. Implemented as a buffered channel semaphore,
// the idiom this repo's examples use for bounding goroutine fan-out
// with backpressure.
type PermitPool struct {
	tokens chan struct{}
	closed chan struct{}
}

// NewPermitPool creates a pool with capacity permits available permits.
func NewPermitPool(capacity int) *PermitPool {
	p := &PermitPool{
		tokens: make(chan struct{}, capacity),
		closed: make(chan struct{}),
	}
	for i := 0; i < capacity; i++ {
		p.tokens <- struct{}{}
	}
	return p
}

// Acquire blocks until a permit is available, ctx is cancelled, or the
// pool is closed. On success it returns a release func that must be
// called exactly once, typically via defer in the task that owns the
// permit.
func (p *PermitPool) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case <-p.closed:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case <-p.tokens:
		return p.release, nil
	case <-p.closed:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *PermitPool) release() {
	p.tokens <- struct{}{}
}

// Close unblocks every pending and future Acquire with ErrPoolClosed.
// It does not wait for outstanding permits to be released.
func (p *PermitPool) Close() {
	close(p.closed)
}
