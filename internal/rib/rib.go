package rib

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/rrelay/bgpd/internal/prefix"
)

// RIB is the routing table: an ordered list of route entries plus the
// append-only aggregation ledger. The event loop (see internal/router) is
// the sole owner and caller — no locking would be required for correctness,
// but a mutex is kept here (as the teacher's RouteTable does for its own
// single-owner table) so the admin RPC's read-only snapshot calls, which run
// on a different goroutine, never race the event loop.
type RIB struct {
	mu      sync.RWMutex
	entries []Entry
	ledger  []Record

	// OnAggregate, if set, is invoked synchronously every time a coalesce
	// pass merges two entries into a parent. It exists purely for
	// observability (see internal/audit) and must not be relied on for
	// correctness — the merge has already happened by the time it fires.
	OnAggregate func(a, b Entry, parent prefix.Prefix)
}

// New returns an empty RIB.
func New() *RIB {
	return &RIB{}
}

// Snapshot is a single row of a dump reply: the prefix and its next hop.
type Snapshot struct {
	Prefix  prefix.Prefix
	NextHop NeighborID
}

// Insert appends entry (or overwrites the existing row with the same prefix
// and next hop) and then coalesces the table to a fixed point.
func (t *RIB) Insert(e Entry) {
	e = e.clone()
	t.mu.Lock()
	defer t.mu.Unlock()

	replaced := false
	for i := range t.entries {
		if t.entries[i].Prefix == e.Prefix && t.entries[i].NextHop == e.NextHop {
			t.entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		t.entries = append(t.entries, e)
	}

	t.coalesceLocked()
}

// Withdraw removes every entry matching (prefix, from). If (prefix, from) is
// the product of a recorded aggregation, the coalesced parent is first
// disaggregated back into its two constituents before the removal proceeds,
// per spec.md §4.2.
func (t *RIB) Withdraw(p prefix.Prefix, from NeighborID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disaggregateLocked(p, from)

	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.Prefix == p && e.NextHop == from {
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
}

// disaggregateLocked finds every ledger record whose constituents include
// (p, from), removes the coalesced parent each record produced, and
// reinserts both original constituents. Withdrawal then proceeds (by the
// caller) against the freshly reinserted constituent.
func (t *RIB) disaggregateLocked(p prefix.Prefix, from NeighborID) {
	for _, rec := range t.ledger {
		constituent, sibling, ok := rec.includes(p, from)
		if !ok {
			continue
		}

		parent := rec.parent()
		filtered := t.entries[:0]
		for _, e := range t.entries {
			if e.Prefix == parent.Prefix && e.NextHop == parent.NextHop {
				continue
			}
			filtered = append(filtered, e)
		}
		t.entries = filtered

		t.entries = append(t.entries, constituent.clone(), sibling.clone())
	}
}

// coalesceLocked repeatedly merges mergeable pairs until the table reaches a
// fixed point. Convergence is detected by fingerprinting the table before
// and after each pass rather than trusting a single pass to be enough — a
// single pass can leave a double-merge opportunity on the table (with
// 192.168.0.0/23 already present, inserting 192.168.3.0/24 next to
// 192.168.2.0/24 yields 192.168.2.0/23, which is itself mergeable with
// 192.168.0.0/23 into a /22), so it is repeated until a pass finds no merge
// or the fingerprint stops moving. This mirrors the teacher's Aligner, which caches a table
// fingerprint (RTCache map[string]hash.Hash64) to avoid redoing settled
// work.
func (t *RIB) coalesceLocked() {
	for {
		before := t.fingerprintLocked()
		if !t.coalescePassLocked() {
			return
		}
		if t.fingerprintLocked() == before {
			return
		}
	}
}

// coalescePassLocked scans every pair once and merges the first mergeable
// pair it finds. It returns whether a merge happened.
func (t *RIB) coalescePassLocked() bool {
	for i := 0; i < len(t.entries); i++ {
		for j := i + 1; j < len(t.entries); j++ {
			a, b := t.entries[i], t.entries[j]
			if !mergeable(a, b) {
				continue
			}
			t.ledger = append(t.ledger, Record{A: a.clone(), B: b.clone()})

			lower := a
			if b.Prefix.Network < a.Prefix.Network {
				lower = b
			}
			merged := lower.clone()
			merged.Prefix = lower.Prefix.Widen()

			t.entries[i] = merged
			t.entries = append(t.entries[:j], t.entries[j+1:]...)
			if t.OnAggregate != nil {
				t.OnAggregate(a, b, merged.Prefix)
			}
			return true
		}
	}
	return false
}

// mergeable implements spec.md §4.2's coalescing predicate.
func mergeable(a, b Entry) bool {
	return prefix.Adjacent(a.Prefix, b.Prefix) &&
		a.NextHop == b.NextHop &&
		sameAttributes(a, b)
}

// fingerprintLocked hashes a canonical encoding of the current table so the
// coalescing loop can detect a fixed point without depending on pass count.
func (t *RIB) fingerprintLocked() uint64 {
	h := xxhash.New()
	for _, e := range t.entries {
		fmt.Fprintf(h, "%s|%s|%d|%v|%v|%v;", e.Prefix, e.NextHop, e.LocalPref, e.SelfOrigin, e.ASPath, e.OriginType)
	}
	return h.Sum64()
}

// Snapshot returns the (prefix, next-hop) pairs currently in the table, for
// dump replies.
func (t *RIB) Snapshot() []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Snapshot, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, Snapshot{Prefix: e.Prefix, NextHop: e.NextHop})
	}
	return out
}

// Entries returns a defensive copy of the current table, for the selector
// and for tests.
func (t *RIB) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.clone()
	}
	return out
}

// LedgerLen reports the number of aggregation records recorded so far, for
// stats/introspection.
func (t *RIB) LedgerLen() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.ledger)
}

// GC drops ledger records whose coalesced parent entry (same prefix and next
// hop) is no longer present in the RIB, and returns how many it dropped. This
// is the optional garbage collection spec.md §9 leaves as an implementer's
// choice; it is never called from the hot insert/withdraw path.
func (t *RIB) GC() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	live := make(map[string]bool, len(t.entries))
	for _, e := range t.entries {
		live[entryKey(e)] = true
	}

	kept := t.ledger[:0]
	dropped := 0
	for _, rec := range t.ledger {
		if live[entryKey(rec.parent())] {
			kept = append(kept, rec)
			continue
		}
		dropped++
	}
	t.ledger = kept
	return dropped
}

func entryKey(e Entry) string {
	return fmt.Sprintf("%s|%s", e.Prefix, e.NextHop)
}
