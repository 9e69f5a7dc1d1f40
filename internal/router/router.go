// Package router implements the single-threaded cooperative event loop of
// spec.md §5: one loop owns the RIB, the ledgers, and every neighbor
// endpoint. Its only suspension point is the poll call.
package router

import (
	"errors"
	"time"

	"github.com/rrelay/bgpd/internal/dispatch"
	"github.com/rrelay/bgpd/internal/message"
	"github.com/rrelay/bgpd/internal/neighbor"
	"github.com/rrelay/bgpd/pkg/logging"
)

// DefaultPollTimeout matches spec.md §5's "bounded timeout (≈100 ms)".
const DefaultPollTimeout = 100 * time.Millisecond

// Router ties a neighbor transport to a Dispatcher and drives the event
// loop described in spec.md §5.
type Router struct {
	IO          neighbor.IO
	Dispatcher  *dispatch.Dispatcher
	Logger      *logging.Logger
	PollTimeout time.Duration

	// GCEvery, if non-zero, runs an aggregation-ledger GC pass every that
	// many poll iterations that found no work. Zero disables periodic GC.
	GCEvery int
	gcTick  int
}

// New builds a Router with spec.md's default poll timeout.
func New(io neighbor.IO, d *dispatch.Dispatcher, logger *logging.Logger) *Router {
	return &Router{IO: io, Dispatcher: d, Logger: logger, PollTimeout: DefaultPollTimeout}
}

// Run drives the loop until a neighbor transport reports EOF or an error,
// or stop is closed. It returns nil on clean termination.
func (r *Router) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		ready, err := r.IO.Poll(r.PollTimeout)
		if err != nil {
			return err
		}

		if len(ready) == 0 {
			r.tickIdle()
			continue
		}
		r.gcTick = 0

		for _, id := range ready {
			frame, err := r.IO.Recv(id)
			if err != nil {
				if errors.Is(err, neighbor.ErrClosed) {
					r.Logger.Infof("neighbor %s closed, terminating cleanly", id)
					return nil
				}
				r.Logger.Infof("neighbor %s receive error, terminating: %v", id, err)
				return nil
			}
			if frame == nil {
				continue
			}
			r.processFrame(frame)
		}
	}
}

// processFrame decodes and dispatches exactly one frame. All state changes
// for this frame complete before the loop returns to Poll, so no other
// neighbor can observe a partially-applied update — the synchronous
// propagation spec.md §5 requires.
func (r *Router) processFrame(frame []byte) {
	msg, err := message.Decode(frame)
	if err != nil {
		r.Logger.Debugf("dropping malformed frame: %v", err)
		return
	}
	if err := r.Dispatcher.Handle(msg); err != nil {
		r.Logger.Errorf("handling %s from %s: %v", msg.Kind(), msg.Source(), err)
	}
}

func (r *Router) tickIdle() {
	if r.GCEvery <= 0 {
		return
	}
	r.gcTick++
	if r.gcTick < r.GCEvery {
		return
	}
	r.gcTick = 0
	if dropped := r.Dispatcher.RIB.GC(); dropped > 0 {
		r.Logger.Debugf("aggregation ledger GC dropped %d records", dropped)
	}
}
