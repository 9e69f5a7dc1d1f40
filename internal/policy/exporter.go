package policy

import "github.com/rrelay/bgpd/internal/rib"

// ExportTargets implements spec.md §4.4: given the source neighbor of a
// received update or revocation and the full set of configured neighbors,
// returns the set of neighbors the announcement should be propagated to.
//
//	export_to = { n : n != source AND (relation(source) == customer OR relation(n) == customer) }
func ExportTargets(source rib.NeighborID, neighbors []rib.NeighborID, relations Table) []rib.NeighborID {
	sourceIsCustomer := relations.Of(source) == Customer

	out := make([]rib.NeighborID, 0, len(neighbors))
	for _, n := range neighbors {
		if n == source {
			continue
		}
		if sourceIsCustomer || relations.Of(n) == Customer {
			out = append(out, n)
		}
	}
	return out
}

// PrependASN builds the outbound AS path for an update by prepending the
// local ASN to the front of the received path. spec.md §9 notes this is a
// fixed direction choice — BGP convention prepends; this implementation
// follows that convention for both path construction and length-based
// tie-breaking, since path length is invariant under direction.
func PrependASN(localASN int, received []int) []int {
	out := make([]int, 0, len(received)+1)
	out = append(out, localASN)
	out = append(out, received...)
	return out
}
