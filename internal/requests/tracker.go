package requests

import (
	"context"
	"sync/atomic"
)

// Tracker ties backend calls to the lifetime of whatever issued them (a
// session, an edit screen). Closing it cancels every call still in flight and
// Invalidate marks earlier responses as stale.
type Tracker struct {
	ctx        context.Context
	cancel     context.CancelFunc
	generation atomic.Uint64
}

func NewTracker(parent context.Context) *Tracker {
	ctx, cancel := context.WithCancel(parent)
	return &Tracker{ctx: ctx, cancel: cancel}
}

type Ticket struct {
	Ctx        context.Context
	Generation uint64
	release    func()
}

// Done releases the ticket context. It is safe to call more than once.
func (t Ticket) Done() {
	if t.release != nil {
		t.release()
	}
}

// Begin derives a call context that ends with either ctx or the tracker.
func (t *Tracker) Begin(ctx context.Context) Ticket {
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(t.ctx, cancel)
	return Ticket{
		Ctx:        callCtx,
		Generation: t.generation.Load(),
		release: func() {
			stop()
			cancel()
		},
	}
}

// Current reports whether a response for ticket may still be applied.
func (t *Tracker) Current(ticket Ticket) bool {
	return t.ctx.Err() == nil && ticket.Generation == t.generation.Load()
}

func (t *Tracker) Invalidate() uint64 {
	return t.generation.Add(1)
}

func (t *Tracker) Generation() uint64 {
	return t.generation.Load()
}

// Child returns a tracker that is closed together with t.
func (t *Tracker) Child() *Tracker {
	return NewTracker(t.ctx)
}

func (t *Tracker) Close() {
	t.cancel()
}

func (t *Tracker) Closed() bool {
	return t.ctx.Err() != nil
}
