// Command bgpctl is a thin gRPC client for the admin introspection service,
// the same shape as the teacher's cmd/client, dialing with insecure
// transport credentials and printing whatever the server returns.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rrelay/bgpd/pkg/pb/adminpb"
)

var (
	addr     = flag.String("addr", "127.0.0.1:5122", "address of the bgpd admin gRPC server")
	neighbor = flag.String("neighbor", "", "restrict dump to routes learned from this neighbor")
	timeout  = flag.Duration("timeout", 5*time.Second, "RPC deadline")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 || (flag.Arg(0) != "dump" && flag.Arg(0) != "stats") {
		fmt.Fprintf(os.Stderr, "usage: %s [-addr host:port] dump|stats\n", os.Args[0])
		os.Exit(2)
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgpctl: connecting to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	client := adminpb.NewAdminClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch flag.Arg(0) {
	case "dump":
		resp, err := client.Dump(ctx, &adminpb.DumpRequest{Neighbor: *neighbor})
		if err != nil {
			fmt.Fprintf(os.Stderr, "bgpctl: dump: %v\n", err)
			os.Exit(1)
		}
		for _, r := range resp.Routes {
			fmt.Printf("%s/%s via %s\n", r.Network, r.Netmask, r.Peer)
		}
	case "stats":
		resp, err := client.Stats(ctx, &adminpb.StatsRequest{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "bgpctl: stats: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("routes=%d leader=%v\n", resp.RouteCount, resp.IsLeader)
		for _, n := range resp.Neighbors {
			fmt.Printf("  %s: updates=%d revokes=%d\n", n.Neighbor, n.UpdateCount, n.RevokeCount)
		}
	}
}
