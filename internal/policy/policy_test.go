package policy

import (
	"testing"

	"github.com/rrelay/bgpd/internal/prefix"
	"github.com/rrelay/bgpd/internal/rib"
)

func addr(t *testing.T, s string) prefix.IPv4 {
	t.Helper()
	a, err := prefix.ParseDotted(s)
	if err != nil {
		t.Fatalf("ParseDotted(%q): %v", s, err)
	}
	return a
}

func pfx(t *testing.T, s string, length uint8) prefix.Prefix {
	return prefix.New(addr(t, s), length)
}

func TestSelectLongestPrefixMatch(t *testing.T) {
	entries := []rib.Entry{
		{Prefix: pfx(t, "10.0.0.0", 8), NextHop: "1.0.0.1", LocalPref: 100, OriginType: rib.OriginIGP},
		{Prefix: pfx(t, "10.1.0.0", 16), NextHop: "1.0.0.2", LocalPref: 100, OriginType: rib.OriginIGP},
	}
	relations := Table{"1.0.0.1": Customer, "1.0.0.2": Customer, "src": Customer}

	got, ok := Select(entries, addr(t, "10.1.2.3"), "src", relations)
	if !ok || got != "1.0.0.2" {
		t.Errorf("Select = (%v, %v), want (1.0.0.2, true)", got, ok)
	}
}

func TestSelectDeterministic(t *testing.T) {
	entries := []rib.Entry{
		{Prefix: pfx(t, "10.0.0.0", 24), NextHop: "1.0.0.5", LocalPref: 100, OriginType: rib.OriginIGP, ASPath: []int{1, 2}},
		{Prefix: pfx(t, "10.0.0.0", 24), NextHop: "1.0.0.2", LocalPref: 100, OriginType: rib.OriginIGP, ASPath: []int{1, 2}},
	}
	relations := Table{"1.0.0.5": Customer, "1.0.0.2": Customer, "src": Customer}

	got1, ok1 := Select(entries, addr(t, "10.0.0.9"), "src", relations)
	got2, ok2 := Select(entries, addr(t, "10.0.0.9"), "src", relations)
	if !ok1 || !ok2 || got1 != got2 {
		t.Fatalf("selector must be deterministic: (%v,%v) vs (%v,%v)", got1, ok1, got2, ok2)
	}
	if got1 != "1.0.0.2" {
		t.Errorf("lowest-next-hop tiebreak must pick full 32-bit minimum, got %v", got1)
	}
}

func TestSelectNoRouteWhenEmpty(t *testing.T) {
	relations := Table{"src": Customer}
	_, ok := Select(nil, addr(t, "8.8.8.8"), "src", relations)
	if ok {
		t.Error("expected no route for empty table")
	}
}

func TestSelectRelationshipFilterBlocksPeerToPeer(t *testing.T) {
	entries := []rib.Entry{
		{Prefix: pfx(t, "10.0.0.0", 24), NextHop: "peerB", LocalPref: 100, OriginType: rib.OriginIGP},
	}
	relations := Table{"peerA": Peer, "peerB": Peer}

	_, ok := Select(entries, addr(t, "10.0.0.5"), "peerA", relations)
	if ok {
		t.Error("peer-learned route must not be forwarded to another peer's data traffic")
	}
}

func TestSelectRelationshipFilterAllowsCustomerSource(t *testing.T) {
	entries := []rib.Entry{
		{Prefix: pfx(t, "10.0.0.0", 24), NextHop: "peerB", LocalPref: 100, OriginType: rib.OriginIGP},
	}
	relations := Table{"custA": Customer, "peerB": Peer}

	got, ok := Select(entries, addr(t, "10.0.0.5"), "custA", relations)
	if !ok || got != "peerB" {
		t.Errorf("customer source should reach any route, got (%v, %v)", got, ok)
	}
}

func TestSelectSelfOriginPreferred(t *testing.T) {
	entries := []rib.Entry{
		{Prefix: pfx(t, "10.0.0.0", 24), NextHop: "1.0.0.9", LocalPref: 100, SelfOrigin: false, OriginType: rib.OriginIGP},
		{Prefix: pfx(t, "10.0.0.0", 24), NextHop: "1.0.0.1", LocalPref: 100, SelfOrigin: true, OriginType: rib.OriginIGP},
	}
	relations := Table{"1.0.0.9": Customer, "1.0.0.1": Customer, "src": Customer}

	got, ok := Select(entries, addr(t, "10.0.0.5"), "src", relations)
	if !ok || got != "1.0.0.1" {
		t.Errorf("self-originated route should win, got (%v, %v)", got, ok)
	}
}

func TestExportSymmetryPeerToPeer(t *testing.T) {
	relations := Table{"a": Peer, "b": Peer}
	targets := ExportTargets("a", []rib.NeighborID{"a", "b"}, relations)
	for _, n := range targets {
		if n == "b" {
			t.Error("updates from a peer must never be forwarded to another peer")
		}
	}
}

func TestExportFromCustomerReachesEveryoneButSource(t *testing.T) {
	relations := Table{"cust": Customer, "peerX": Peer, "provY": Provider}
	targets := ExportTargets("cust", []rib.NeighborID{"cust", "peerX", "provY"}, relations)
	if len(targets) != 2 {
		t.Errorf("expected 2 export targets, got %v", targets)
	}
}

func TestExportNeverToSelf(t *testing.T) {
	relations := Table{"cust": Customer}
	targets := ExportTargets("cust", []rib.NeighborID{"cust"}, relations)
	if len(targets) != 0 {
		t.Errorf("a neighbor must never receive its own announcement back, got %v", targets)
	}
}

func TestPrependASN(t *testing.T) {
	got := PrependASN(7, []int{1, 2})
	want := []int{7, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("PrependASN length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PrependASN[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
