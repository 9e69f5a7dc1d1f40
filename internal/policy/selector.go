package policy

import (
	"github.com/rrelay/bgpd/internal/prefix"
	"github.com/rrelay/bgpd/internal/rib"
)

// Select implements spec.md §4.3's best-route decision cascade. Given the
// current table, a destination address, the neighbor the data packet
// arrived from, and the relationship table, it returns the next hop to
// forward to. ok is false if no route survives every stage.
func Select(entries []rib.Entry, dest prefix.IPv4, source rib.NeighborID, relations Table) (rib.NeighborID, bool) {
	candidates := matchDestination(entries, dest)
	candidates = longestPrefix(candidates)
	candidates = highestLocalPref(candidates)
	candidates = preferSelfOrigin(candidates)
	candidates = shortestASPath(candidates)
	candidates = bestOrigin(candidates)

	winner, ok := lowestNextHop(candidates)
	if !ok {
		return "", false
	}

	if !relationshipAllows(source, winner.NextHop, relations) {
		return "", false
	}
	return winner.NextHop, true
}

// matchDestination keeps entries whose prefix covers d.
func matchDestination(entries []rib.Entry, d prefix.IPv4) []rib.Entry {
	out := make([]rib.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Prefix.Covers(d) {
			out = append(out, e)
		}
	}
	return out
}

// longestPrefix keeps entries tied for the maximum mask length.
func longestPrefix(entries []rib.Entry) []rib.Entry {
	return filterMax(entries, func(e rib.Entry) int { return int(e.Prefix.Length) })
}

// highestLocalPref keeps entries tied for the maximum local-pref.
func highestLocalPref(entries []rib.Entry) []rib.Entry {
	return filterMax(entries, func(e rib.Entry) int { return e.LocalPref })
}

// preferSelfOrigin drops every non-self-originated entry if at least one
// self-originated entry survives; otherwise it changes nothing.
func preferSelfOrigin(entries []rib.Entry) []rib.Entry {
	anySelf := false
	for _, e := range entries {
		if e.SelfOrigin {
			anySelf = true
			break
		}
	}
	if !anySelf {
		return entries
	}
	out := make([]rib.Entry, 0, len(entries))
	for _, e := range entries {
		if e.SelfOrigin {
			out = append(out, e)
		}
	}
	return out
}

// shortestASPath keeps entries tied for the minimum AS path length.
func shortestASPath(entries []rib.Entry) []rib.Entry {
	return filterMin(entries, func(e rib.Entry) int { return len(e.ASPath) })
}

// bestOrigin keeps only the best available origin class, preferring IGP
// over EGP over UNK.
func bestOrigin(entries []rib.Entry) []rib.Entry {
	return filterMin(entries, func(e rib.Entry) int { return int(e.OriginType) })
}

// lowestNextHop is the true tie-break: the numerically minimum next-hop
// address wins. Because IPv4 addresses are totally ordered, at most one
// entry survives (per next hop, only one entry can remain after longest
// prefix + attribute matches for a single destination in a well formed
// table, but ties on identical next hops are resolved by picking either,
// since they are indistinguishable for forwarding purposes).
func lowestNextHop(entries []rib.Entry) (rib.Entry, bool) {
	if len(entries) == 0 {
		return rib.Entry{}, false
	}
	best := entries[0]
	bestAddr, err := prefix.ParseDotted(string(best.NextHop))
	if err != nil {
		bestAddr = 0
	}
	for _, e := range entries[1:] {
		addr, err := prefix.ParseDotted(string(e.NextHop))
		if err != nil {
			addr = 0
		}
		if prefix.Lt(addr, bestAddr) {
			best, bestAddr = e, addr
		}
	}
	return best, true
}

// relationshipAllows implements spec.md §4.3 stage 8: retain the route iff
// the source is a customer, or the winning next hop's neighbor is a
// customer. Peer-to-peer, peer-to-provider, and provider-to-peer forwards
// are forbidden.
func relationshipAllows(source, nextHop rib.NeighborID, relations Table) bool {
	return relations.Of(source) == Customer || relations.Of(nextHop) == Customer
}

func filterMax(entries []rib.Entry, key func(rib.Entry) int) []rib.Entry {
	if len(entries) == 0 {
		return entries
	}
	best := key(entries[0])
	for _, e := range entries[1:] {
		if k := key(e); k > best {
			best = k
		}
	}
	out := make([]rib.Entry, 0, len(entries))
	for _, e := range entries {
		if key(e) == best {
			out = append(out, e)
		}
	}
	return out
}

func filterMin(entries []rib.Entry, key func(rib.Entry) int) []rib.Entry {
	if len(entries) == 0 {
		return entries
	}
	best := key(entries[0])
	for _, e := range entries[1:] {
		if k := key(e); k < best {
			best = k
		}
	}
	out := make([]rib.Entry, 0, len(entries))
	for _, e := range entries {
		if key(e) == best {
			out = append(out, e)
		}
	}
	return out
}
