package router

import (
	"testing"
	"time"

	"github.com/rrelay/bgpd/internal/dispatch"
	"github.com/rrelay/bgpd/internal/message"
	"github.com/rrelay/bgpd/internal/neighbor"
	"github.com/rrelay/bgpd/internal/policy"
	"github.com/rrelay/bgpd/internal/rib"
	"github.com/rrelay/bgpd/pkg/logging"
)

func TestRouterProcessesUpdateAndExports(t *testing.T) {
	mem := neighbor.NewMem([]rib.NeighborID{"A", "B"})
	table := rib.New()
	relations := policy.Table{"A": policy.Customer, "B": policy.Peer}
	d := dispatch.New(65001, "1.0.0.1", []rib.NeighborID{"A", "B"}, relations, table, mem)

	r := New(mem, d, logging.New())
	r.PollTimeout = 5 * time.Millisecond

	frame, err := message.Encode("A", "1.0.0.1", message.UpdateMessage{Body: message.UpdateBody{
		Network: "192.168.0.0", Netmask: "255.255.255.0", LocalPref: 100, ASPath: []int{1}, Origin: "IGP",
	}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	mem.Deliver("A", frame)
	mem.CloseNeighbor("A")
	mem.CloseNeighbor("B")

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- r.Run(stop) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("router did not terminate on neighbor close")
	}

	if len(table.Snapshot()) != 1 {
		t.Errorf("expected 1 RIB entry after run, got %d", len(table.Snapshot()))
	}
	if len(mem.Sent("B")) != 1 {
		t.Errorf("expected update exported to B, got %d frames", len(mem.Sent("B")))
	}
}

func TestRouterDropsMalformedFrame(t *testing.T) {
	mem := neighbor.NewMem([]rib.NeighborID{"A"})
	table := rib.New()
	relations := policy.Table{"A": policy.Customer}
	d := dispatch.New(1, "1.0.0.1", []rib.NeighborID{"A"}, relations, table, mem)
	r := New(mem, d, logging.New())
	r.PollTimeout = 5 * time.Millisecond

	mem.Deliver("A", []byte(`{not json`))
	mem.CloseNeighbor("A")

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- r.Run(stop) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("router did not terminate")
	}

	if len(table.Snapshot()) != 0 {
		t.Errorf("malformed frame must not mutate the RIB")
	}
}
