// Package neighbor implements the NeighborIO external collaborator that
// spec.md §1 explicitly places outside the core: a set of named neighbor
// endpoints supporting send-frame and poll-for-frame, backed by
// SOCK_SEQPACKET unix-domain sockets and a real poll(2) readiness call.
package neighbor

import (
	"fmt"
	"net"
	"time"

	"github.com/rrelay/bgpd/internal/rib"
	"golang.org/x/sys/unix"
)

// maxFrameSize bounds a single read. SOCK_SEQPACKET preserves message
// boundaries, so one Read call returns exactly one frame as long as the
// buffer is large enough to hold it.
const maxFrameSize = 64 * 1024

// IO is the interface the router's event loop (internal/router) depends on.
// It is intentionally narrow: send one frame, poll for readiness across every
// neighbor with a bounded timeout, and read the one ready frame.
type IO interface {
	IDs() []rib.NeighborID
	Poll(timeout time.Duration) ([]rib.NeighborID, error)
	Recv(id rib.NeighborID) ([]byte, error)
	Send(id rib.NeighborID, frame []byte) error
	Close() error
}

// endpoint is one connected neighbor channel.
type endpoint struct {
	id   rib.NeighborID
	conn *net.UnixConn
	fd   int
}

// Set is the default IO implementation: one SOCK_SEQPACKET connection per
// configured neighbor.
type Set struct {
	order     []rib.NeighborID
	endpoints map[rib.NeighborID]*endpoint
}

// Dial connects to every named endpoint over "unixpacket" and returns a
// ready Set. addrs maps neighbor identity to the filesystem path of the
// SOCK_SEQPACKET socket the simulator is listening on.
func Dial(addrs map[rib.NeighborID]string) (*Set, error) {
	s := &Set{endpoints: make(map[rib.NeighborID]*endpoint, len(addrs))}

	for id, addr := range addrs {
		raddr, err := net.ResolveUnixAddr("unixpacket", addr)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("neighbor: resolving %s: %w", id, err)
		}
		conn, err := net.DialUnix("unixpacket", nil, raddr)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("neighbor: dialing %s: %w", id, err)
		}

		fd, err := fdOf(conn)
		if err != nil {
			conn.Close()
			s.Close()
			return nil, fmt.Errorf("neighbor: getting fd for %s: %w", id, err)
		}

		s.order = append(s.order, id)
		s.endpoints[id] = &endpoint{id: id, conn: conn, fd: fd}
	}

	return s, nil
}

// fdOf extracts the underlying file descriptor of a unix connection so it
// can be handed to unix.Poll. Go's SyscallConn keeps the fd valid for the
// lifetime of conn.
func fdOf(conn *net.UnixConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd int
	ctrlErr := raw.Control(func(v uintptr) { fd = int(v) })
	if ctrlErr != nil {
		return 0, ctrlErr
	}
	return fd, nil
}

// IDs returns every configured neighbor identity in a stable order.
func (s *Set) IDs() []rib.NeighborID {
	out := make([]rib.NeighborID, len(s.order))
	copy(out, s.order)
	return out
}

// Poll blocks until at least one neighbor is readable or timeout elapses,
// per spec.md §5's single suspension point. It returns the neighbors that
// became readable in this call, in poll-array order.
func (s *Set) Poll(timeout time.Duration) ([]rib.NeighborID, error) {
	if len(s.order) == 0 {
		time.Sleep(timeout)
		return nil, nil
	}

	fds := make([]unix.PollFd, len(s.order))
	for i, id := range s.order {
		fds[i] = unix.PollFd{Fd: int32(s.endpoints[id].fd), Events: unix.POLLIN}
	}

	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("neighbor: poll: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	ready := make([]rib.NeighborID, 0, n)
	for i, pfd := range fds {
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			ready = append(ready, s.order[i])
		}
	}
	return ready, nil
}

// Recv reads exactly one frame from a ready neighbor. A nil frame with a
// non-nil error (io.EOF for a closed connection) signals that the channel is
// gone; the caller
// (the router event loop) terminates cleanly per spec.md §4.6.
func (s *Set) Recv(id rib.NeighborID) ([]byte, error) {
	ep, ok := s.endpoints[id]
	if !ok {
		return nil, fmt.Errorf("neighbor: unknown neighbor %q", id)
	}
	buf := make([]byte, maxFrameSize)
	n, _, _, _, err := ep.conn.ReadMsgUnix(buf, nil)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Send writes one frame to a neighbor. The simulated transport guarantees
// this never blocks meaningfully, so no deadline is set.
func (s *Set) Send(id rib.NeighborID, frame []byte) error {
	ep, ok := s.endpoints[id]
	if !ok {
		return fmt.Errorf("neighbor: unknown neighbor %q", id)
	}
	_, err := ep.conn.Write(frame)
	return err
}

// Close closes every neighbor connection.
func (s *Set) Close() error {
	var firstErr error
	for _, ep := range s.endpoints {
		if err := ep.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
