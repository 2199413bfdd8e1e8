package server

import (
	"context"
	"errors"

	"github.com/Faultbox/biomeforge/internal/world"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("world loop stopped")

// Loop owns a Coordinator and serializes every access to it: HTTP handlers
// submit functions through Do while the loop applies fetch completions.
type Loop struct {
	world *world.Coordinator
	reqs  chan request
	done  chan struct{}
}

type request struct {
	fn    func(*world.Coordinator)
	reply chan struct{}
}

// NewLoop wraps c. Run must be started before Do is used.
func NewLoop(c *world.Coordinator) *Loop {
	return &Loop{
		world: c,
		reqs:  make(chan request),
		done:  make(chan struct{}),
	}
}

// Run processes requests and completions until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case comp := <-l.world.Completions():
			l.world.Apply(comp)
		case req := <-l.reqs:
			req.fn(l.world)
			close(req.reply)
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func(*world.Coordinator)) error {
	req := request{fn: fn, reply: make(chan struct{})}
	select {
	case l.reqs <- req:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once accepted, fn runs to completion; waiting is safe.
	<-req.reply
	return nil
}
