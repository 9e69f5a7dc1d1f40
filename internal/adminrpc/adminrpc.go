// Package adminrpc exposes a gRPC introspection service over the running
// router's RIB and ledgers, the same way the teacher's internal/management
// package exposes its own gRPC service: a flag-configured TCP listener and
// a grpc.NewServer wrapping one registered implementation.
package adminrpc

import (
	"context"
	"flag"
	"fmt"
	"net"
	"strconv"

	"google.golang.org/grpc"

	"github.com/rrelay/bgpd/internal/dispatch"
	"github.com/rrelay/bgpd/internal/prefix"
	"github.com/rrelay/bgpd/pkg/logging"
	"github.com/rrelay/bgpd/pkg/pb/adminpb"
)

var rpcPort = flag.Int("admin.rpcport", 5122, "port for the admin introspection gRPC server")

// LeaderChecker reports whether this replica currently owns the event loop.
// Satisfied by *ha.Group; a nil LeaderChecker means HA is disabled and this
// replica always answers as leader.
type LeaderChecker interface {
	IsLeader() bool
}

type server struct {
	adminpb.UnimplementedAdminServer
	dispatcher *dispatch.Dispatcher
	leader     LeaderChecker
}

func (s *server) Dump(ctx context.Context, req *adminpb.DumpRequest) (*adminpb.DumpResponse, error) {
	snap := s.dispatcher.RIB.Snapshot()
	routes := make([]*adminpb.Route, 0, len(snap))
	for _, e := range snap {
		if req.Neighbor != "" && string(e.NextHop) != req.Neighbor {
			continue
		}
		routes = append(routes, &adminpb.Route{
			Network: prefix.FormatDotted(e.Prefix.Network),
			Netmask: prefix.FormatDotted(prefix.LengthToMask(e.Prefix.Length)),
			Peer:    string(e.NextHop),
		})
	}
	return &adminpb.DumpResponse{Routes: routes}, nil
}

func (s *server) Stats(ctx context.Context, req *adminpb.StatsRequest) (*adminpb.StatsResponse, error) {
	resp := &adminpb.StatsResponse{
		RouteCount: int64(len(s.dispatcher.RIB.Snapshot())),
		IsLeader:   s.leader == nil || s.leader.IsLeader(),
	}
	for _, id := range s.dispatcher.Neighbors {
		resp.Neighbors = append(resp.Neighbors, &adminpb.NeighborStats{
			Neighbor:    string(id),
			UpdateCount: int64(s.dispatcher.UpdateLedgerLen(id)),
			RevokeCount: int64(s.dispatcher.RevokeLedgerLen(id)),
		})
	}
	return resp, nil
}

// Serve blocks forever answering admin RPCs against d. leader may be nil
// when HA is disabled.
func Serve(d *dispatch.Dispatcher, leader LeaderChecker, logger *logging.Logger) error {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(*rpcPort))
	if err != nil {
		return fmt.Errorf("adminrpc: listen: %w", err)
	}
	defer listener.Close()

	s := grpc.NewServer()
	adminpb.RegisterAdminServer(s, &server{dispatcher: d, leader: leader})

	logger.Infof("admin gRPC server listening at %v", listener.Addr())
	return s.Serve(listener)
}
