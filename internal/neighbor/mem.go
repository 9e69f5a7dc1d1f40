package neighbor

import (
	"errors"
	"time"

	"github.com/rrelay/bgpd/internal/rib"
)

// ErrClosed is returned by Recv once a memory endpoint has been closed and
// drained, standing in for the EOF a real socket would report.
var ErrClosed = errors.New("neighbor: connection closed")

// Mem is an in-process IO implementation used by tests and by any harness
// that wants to drive the dispatcher without real SOCK_SEQPACKET sockets.
// Each neighbor is a buffered channel of already-framed messages.
type Mem struct {
	order   []rib.NeighborID
	inboxes map[rib.NeighborID]chan []byte
	sent    map[rib.NeighborID][][]byte
	closed  map[rib.NeighborID]bool
}

// NewMem builds a Mem transport for the given neighbor identities.
func NewMem(ids []rib.NeighborID) *Mem {
	m := &Mem{
		order:   append([]rib.NeighborID(nil), ids...),
		inboxes: make(map[rib.NeighborID]chan []byte, len(ids)),
		sent:    make(map[rib.NeighborID][][]byte, len(ids)),
		closed:  make(map[rib.NeighborID]bool, len(ids)),
	}
	for _, id := range ids {
		m.inboxes[id] = make(chan []byte, 64)
	}
	return m
}

// Deliver queues a frame as if it arrived from id.
func (m *Mem) Deliver(id rib.NeighborID, frame []byte) {
	m.inboxes[id] <- frame
}

// CloseNeighbor marks a neighbor's channel as closed once drained, so the
// next Recv after the queue empties returns ErrClosed.
func (m *Mem) CloseNeighbor(id rib.NeighborID) {
	m.closed[id] = true
}

// Sent returns every frame written to id, in send order.
func (m *Mem) Sent(id rib.NeighborID) [][]byte {
	return m.sent[id]
}

func (m *Mem) IDs() []rib.NeighborID {
	out := make([]rib.NeighborID, len(m.order))
	copy(out, m.order)
	return out
}

// Poll returns every neighbor with a queued frame, or nothing after
// blocking for timeout if none are ready.
func (m *Mem) Poll(timeout time.Duration) ([]rib.NeighborID, error) {
	var ready []rib.NeighborID
	for _, id := range m.order {
		if len(m.inboxes[id]) > 0 || m.closed[id] {
			ready = append(ready, id)
		}
	}
	if len(ready) == 0 {
		time.Sleep(timeout)
	}
	return ready, nil
}

func (m *Mem) Recv(id rib.NeighborID) ([]byte, error) {
	select {
	case frame := <-m.inboxes[id]:
		return frame, nil
	default:
		if m.closed[id] {
			return nil, ErrClosed
		}
		return nil, nil
	}
}

func (m *Mem) Send(id rib.NeighborID, frame []byte) error {
	cp := append([]byte(nil), frame...)
	m.sent[id] = append(m.sent[id], cp)
	return nil
}

func (m *Mem) Close() error {
	return nil
}
