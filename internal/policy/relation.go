// Package policy implements the commercial-relationship export filter and
// the best-route selection cascade (spec.md §4.3 and §4.4).
package policy

import "github.com/rrelay/bgpd/internal/rib"

// Relation is the commercial relationship of a neighbor to this router.
type Relation int

const (
	Customer Relation = iota
	Peer
	Provider
)

func (r Relation) String() string {
	switch r {
	case Customer:
		return "customer"
	case Peer:
		return "peer"
	default:
		return "provider"
	}
}

// ParseRelation maps the CLI spec's "cust"/"peer"/"prov" tokens to a
// Relation. ok is false for anything else.
func ParseRelation(s string) (Relation, bool) {
	switch s {
	case "cust":
		return Customer, true
	case "peer":
		return Peer, true
	case "prov":
		return Provider, true
	default:
		return 0, false
	}
}

// Table maps each configured neighbor to its relationship.
type Table map[rib.NeighborID]Relation

// Of returns the relation of n, defaulting to Provider (the most
// restrictive relationship) if n is not a configured neighbor — this can
// only happen for a next hop learned before a misconfiguration, and treating
// it as the least-trusted relationship is the safe default.
func (t Table) Of(n rib.NeighborID) Relation {
	if r, ok := t[n]; ok {
		return r
	}
	return Provider
}
