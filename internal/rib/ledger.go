package rib

import "github.com/rrelay/bgpd/internal/prefix"

// Record is an AggregationRecord: an unordered pair of entries that were
// merged to produce one broader-prefix entry. Coalescing only ever appends to
// the ledger; RIB.GC is the one operation that removes records from it.
// Entries carry their own copies so the current table
// never points into it (and vice versa) — the cyclic "current table needs
// the ledger to undo, ledger must not depend on the table's lifetime"
// dependency is broken by keeping the ledger a pure side arena.
type Record struct {
	A, B Entry
}

// includes reports whether the record was produced from (p, nh), checking
// each side independently rather than binding on nh alone — two sides of a
// merge always share the same next hop (mergeable requires it), so matching
// on nh first would always resolve to r.A regardless of which side p
// actually names.
func (r Record) includes(p prefix.Prefix, nh NeighborID) (Entry, Entry, bool) {
	if r.A.Prefix == p && r.A.NextHop == nh {
		return r.A, r.B, true
	}
	if r.B.Prefix == p && r.B.NextHop == nh {
		return r.B, r.A, true
	}
	return Entry{}, Entry{}, false
}

// parent is the coalesced prefix that this record's merge produced: the
// lower of the two networks, widened by one bit.
func (r Record) parent() Entry {
	lower := r.A
	if r.B.Prefix.Network < r.A.Prefix.Network {
		lower = r.B
	}
	widened := lower.clone()
	widened.Prefix = lower.Prefix.Widen()
	return widened
}
