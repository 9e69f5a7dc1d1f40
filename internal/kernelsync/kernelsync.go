// Package kernelsync optionally mirrors the RIB's routes into the host
// kernel's FIB, one route per prefix, the same way the teacher's internal/system/netctl package
// manages routes with vishvananda/netlink (ConfigureRoute/RemoveRoute in
// route.go). It is best-effort by design: bgpd is a control-plane
// simulator, so a netlink failure (permission denied, no such device, a
// nonexistent gateway) never affects RIB correctness — it only means the
// kernel and the RIB have drifted, which the next Sync call corrects.
package kernelsync

import (
	"flag"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"

	"github.com/rrelay/bgpd/internal/prefix"
	"github.com/rrelay/bgpd/internal/rib"
	"github.com/rrelay/bgpd/pkg/logging"
)

// CustomRouteProtocol tags every route this package installs, so Sync only
// ever touches routes it owns, matching the teacher's proto-tagged
// ownership convention.
const CustomRouteProtocol = netlink.RouteProtocol(200)

var (
	enabled = flag.Bool("kernel.sync", false, "mirror the RIB's routes, one per prefix, into the host kernel FIB (best-effort)")
	linkFl  = flag.String("kernel.link", "", "name of the link to use as the route source device, empty for none")
)

// Syncer mirrors RIB snapshots into the kernel. A nil *Syncer from New (when
// -kernel.sync is unset) makes Sync a no-op.
type Syncer struct {
	logger *logging.Logger
	link   netlink.Link
}

// New builds a Syncer, or returns (nil, nil) when disabled.
func New(logger *logging.Logger) (*Syncer, error) {
	if !*enabled {
		return nil, nil
	}
	var link netlink.Link
	if *linkFl != "" {
		l, err := netlink.LinkByName(*linkFl)
		if err != nil {
			return nil, fmt.Errorf("kernelsync: link %q: %w", *linkFl, err)
		}
		link = l
	}
	return &Syncer{logger: logger, link: link}, nil
}

// Sync reconciles the kernel's CustomRouteProtocol-tagged routes against
// snap: each prefix gets a route pointing at a NextHop as gateway, and any
// previously-installed route no longer present in snap is removed. No
// best-route selection is made: where several entries share a prefix, the
// last one in snap is installed.
func (s *Syncer) Sync(snap []rib.Entry) {
	if s == nil {
		return
	}

	want := make(map[string]rib.Entry, len(snap))
	for _, e := range snap {
		want[toIPNet(e.Prefix).String()] = e
	}
	s.reconcile(want)
}

func (s *Syncer) reconcile(want map[string]rib.Entry) {
	filter := &netlink.Route{Protocol: CustomRouteProtocol}
	existing, err := netlink.RouteListFiltered(netlink.FAMILY_V4, filter, netlink.RT_FILTER_PROTOCOL)
	if err != nil {
		s.logger.Errorf("kernelsync: listing routes: %v", err)
		return
	}

	seen := make(map[string]bool, len(want))
	for dst, e := range want {
		seen[dst] = true
		gw := net.ParseIP(string(e.NextHop))
		if gw == nil {
			continue // next-hop identities in this simulator are not always real IPs
		}
		_, ipnet, err := net.ParseCIDR(dst)
		if err != nil {
			continue
		}
		route := &netlink.Route{Dst: ipnet, Gw: gw, Protocol: CustomRouteProtocol}
		if s.link != nil {
			route.LinkIndex = s.link.Attrs().Index
		}
		if err := netlink.RouteReplace(route); err != nil {
			s.logger.Errorf("kernelsync: installing route to %s: %v", dst, err)
		}
	}

	for _, r := range existing {
		if r.Dst == nil || seen[r.Dst.String()] {
			continue
		}
		if err := netlink.RouteDel(&r); err != nil {
			s.logger.Errorf("kernelsync: removing stale route to %s: %v", r.Dst, err)
		}
	}
}

func toIPNet(p prefix.Prefix) *net.IPNet {
	ip := net.IPv4(byte(p.Network>>24), byte(p.Network>>16), byte(p.Network>>8), byte(p.Network))
	mask := net.CIDRMask(int(p.Length), 32)
	return &net.IPNet{IP: ip.Mask(mask), Mask: mask}
}
