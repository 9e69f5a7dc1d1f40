// Command bgpd is the router process described in spec.md §6: it accepts
// an ASN and a set of neighbor specs on argv, connects to each neighbor's
// SOCK_SEQPACKET endpoint, and runs the single-threaded event loop until
// any neighbor closes or a termination signal arrives. Overall shape
// (flag.Parse, spawn each subsystem on its own goroutine, block on a signal
// channel) follows the teacher's cmd/daemon/main.go.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rrelay/bgpd/internal/adminrpc"
	"github.com/rrelay/bgpd/internal/audit"
	"github.com/rrelay/bgpd/internal/dispatch"
	"github.com/rrelay/bgpd/internal/ha"
	"github.com/rrelay/bgpd/internal/kernelsync"
	"github.com/rrelay/bgpd/internal/neighbor"
	"github.com/rrelay/bgpd/internal/policy"
	"github.com/rrelay/bgpd/internal/rib"
	"github.com/rrelay/bgpd/internal/router"
	"github.com/rrelay/bgpd/internal/telemetry"
	"github.com/rrelay/bgpd/pkg/logging"
)

var (
	haPeers    = flag.String("ha.peers", "", "comma-separated id=addr Raft peers for control-plane HA; empty disables HA")
	haLocalID  = flag.String("ha.local", "", "this replica's id within -ha.peers")
	haBootstrp = flag.Bool("ha.bootstrap", false, "bootstrap a fresh Raft cluster from -ha.peers on first start")
	haDir      = flag.String("ha.dir", "/var/lib/bgpd/raft", "directory for this replica's Raft state")
	local      = flag.String("local", "1.0.0.1", "this router's own address, stored as the dispatcher's Local; outbound src is derived from each neighbor's address")
)

func main() {
	os.Exit(run())
}

// run does the actual work and returns the process exit code, so that
// deferred cleanup (closing neighbor sockets, flushing the audit sink)
// always executes before the process exits — os.Exit itself never runs
// deferred calls, so main only ever calls it once, at the very end.
func run() int {
	flag.Parse()
	logger := logging.New()

	asn, neighbors, relations, addrs, err := parseArgs(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgpd: %v\n", err)
		fmt.Fprintf(os.Stderr, "usage: %s <asn> <endpoint>-<relation>...\n", os.Args[0])
		return 2
	}

	io, err := neighbor.Dial(addrs)
	if err != nil {
		logger.Errorf("connecting to neighbors: %v", err)
		return 1
	}
	defer io.Close()

	table := rib.New()
	d := dispatch.New(asn, rib.NeighborID(*local), neighbors, relations, table, io)

	metrics := telemetry.NewCollector()
	d.Metrics = metrics

	sink, err := audit.NewSink(logger)
	if err != nil {
		logger.Errorf("audit sink disabled: %v", err)
	} else {
		d.SetAudit(sink)
	}
	defer sink.Close()

	ks, err := kernelsync.New(logger)
	if err != nil {
		logger.Errorf("kernel sync disabled: %v", err)
	}

	r := router.New(io, d, logger)
	r.GCEvery = 50

	// loopDone reports r.Run's outcome to the shutdown select below, so a
	// clean EOF or a receive error on a neighbor channel ends the whole
	// process (spec.md §5/§6) instead of leaving the admin/metrics/kernel-
	// sync goroutines running with no event loop behind them.
	stop := make(chan struct{})
	loopDone := make(chan error, 1)
	var loopStarted sync.Once
	startLoop := func() {
		loopStarted.Do(func() {
			go func() { loopDone <- r.Run(stop) }()
		})
	}

	group, err := buildHAGroup(logger, startLoop)
	if err != nil {
		logger.Errorf("starting HA group: %v", err)
		return 1
	}
	if group != nil {
		group.Start()
	} else {
		startLoop()
	}

	var leaderChecker adminrpc.LeaderChecker
	if group != nil {
		leaderChecker = group
	}

	go telemetry.Serve(logger)
	go func() {
		if err := adminrpc.Serve(d, leaderChecker, logger); err != nil {
			logger.Errorf("admin rpc server stopped: %v", err)
		}
	}()
	if ks != nil {
		go periodicKernelSync(ks, table, stop)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-sig:
		logger.Infof("shutting down")
	case loopErr := <-loopDone:
		if loopErr != nil {
			logger.Errorf("router terminated: %v", loopErr)
			exitCode = 1
		} else {
			logger.Infof("router exited cleanly on neighbor EOF")
		}
	}

	close(stop)
	if group != nil {
		if err := group.Shutdown(); err != nil {
			logger.Errorf("ha shutdown: %v", err)
			exitCode = 1
		}
	}
	return exitCode
}

// parseArgs implements spec.md §6's CLI grammar: <asn> <endpoint>-<relation>...
func parseArgs(args []string) (asn int, neighbors []rib.NeighborID, relations policy.Table, addrs map[rib.NeighborID]string, err error) {
	if len(args) < 1 {
		return 0, nil, nil, nil, fmt.Errorf("missing asn")
	}
	asn, err = strconv.Atoi(args[0])
	if err != nil || asn <= 0 {
		return 0, nil, nil, nil, fmt.Errorf("asn must be a positive integer, got %q", args[0])
	}

	relations = make(policy.Table)
	addrs = make(map[rib.NeighborID]string)
	for _, spec := range args[1:] {
		idx := strings.LastIndex(spec, "-")
		if idx <= 0 || idx == len(spec)-1 {
			return 0, nil, nil, nil, fmt.Errorf("malformed neighbor spec %q, want <endpoint>-<relation>", spec)
		}
		endpoint, relStr := spec[:idx], spec[idx+1:]
		rel, ok := policy.ParseRelation(relStr)
		if !ok {
			return 0, nil, nil, nil, fmt.Errorf("neighbor %q: relation must be cust, peer, or prov", spec)
		}
		id := rib.NeighborID(endpoint)
		neighbors = append(neighbors, id)
		relations[id] = rel
		addrs[id] = endpoint
	}
	if len(neighbors) == 0 {
		return 0, nil, nil, nil, fmt.Errorf("at least one neighbor spec is required")
	}
	return asn, neighbors, relations, addrs, nil
}

func buildHAGroup(logger *logging.Logger, onLeader func()) (*ha.Group, error) {
	if *haPeers == "" {
		return nil, nil
	}
	if *haLocalID == "" {
		return nil, fmt.Errorf("ha.local is required when ha.peers is set")
	}

	peers := make(map[string]string)
	var bind string
	for _, kv := range strings.Split(*haPeers, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed ha.peers entry %q, want id=addr", kv)
		}
		peers[parts[0]] = parts[1]
		if parts[0] == *haLocalID {
			bind = parts[1]
		}
	}
	if bind == "" {
		return nil, fmt.Errorf("ha.local %q not present in ha.peers", *haLocalID)
	}
	if ha.ParsePort(bind) == 0 {
		return nil, fmt.Errorf("ha.local %q has a malformed or missing port in bind address %q", *haLocalID, bind)
	}

	return ha.New(ha.Config{
		LocalID:   *haLocalID,
		BindAddr:  bind,
		Peers:     peers,
		Dir:       *haDir,
		Bootstrap: *haBootstrp,
		Logger:    logger,
		OnLeader:  onLeader,
		OnFollower: func() {
			logger.Errorf("lost leadership; event loop keeps running until process restart (no mid-flight stop implemented)")
		},
	})
}

func periodicKernelSync(ks *kernelsync.Syncer, table *rib.RIB, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ks.Sync(table.Entries())
		}
	}
}
