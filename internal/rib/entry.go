// Package rib implements the routing information base: an ordered table of
// route entries plus an append-only aggregation ledger that records merges
// so they can be undone on withdrawal.
package rib

import "github.com/rrelay/bgpd/internal/prefix"

// NeighborID identifies a configured neighbor endpoint. It doubles as the
// next-hop value stored in a RouteEntry.
type NeighborID string

// Origin is how a route entered the routing system.
type Origin int

const (
	OriginIGP Origin = iota
	OriginEGP
	OriginUNK
)

func (o Origin) String() string {
	switch o {
	case OriginIGP:
		return "IGP"
	case OriginEGP:
		return "EGP"
	default:
		return "UNK"
	}
}

// ParseOrigin maps the wire strings from spec.md's frame schema to Origin.
// Unrecognized values default to UNK, matching the "unknown" semantics of
// the enum rather than failing the whole frame.
func ParseOrigin(s string) Origin {
	switch s {
	case "IGP":
		return OriginIGP
	case "EGP":
		return OriginEGP
	default:
		return OriginUNK
	}
}

// Entry is a single RIB row.
type Entry struct {
	Prefix     prefix.Prefix
	NextHop    NeighborID
	LocalPref  int
	SelfOrigin bool
	ASPath     []int
	OriginType Origin
}

// sameAttributes reports whether two entries carry identical path
// attributes, ignoring prefix and next hop. Used by the coalescer to decide
// mergeability.
func sameAttributes(a, b Entry) bool {
	if a.LocalPref != b.LocalPref || a.SelfOrigin != b.SelfOrigin || a.OriginType != b.OriginType {
		return false
	}
	if len(a.ASPath) != len(b.ASPath) {
		return false
	}
	for i := range a.ASPath {
		if a.ASPath[i] != b.ASPath[i] {
			return false
		}
	}
	return true
}

// cloneASPath returns an independent copy of an AS path, so ledger entries
// never alias table entries.
func cloneASPath(p []int) []int {
	out := make([]int, len(p))
	copy(out, p)
	return out
}

// clone returns an independent copy of e, safe to store in the ledger.
func (e Entry) clone() Entry {
	c := e
	c.ASPath = cloneASPath(e.ASPath)
	return c
}
