// Package ha provides optional control-plane high availability for bgpd:
// when more than one replica is configured, they run a Raft group and only
// the elected leader drives the neighbor event loop and answers dump/data
// traffic. Grounded on the teacher's internal/server/consensus package
// (consensus.go, raft.go, fsm.go); generalized from the teacher's fixed
// site-mesh membership to bgpd's -ha.peers flag list.
package ha

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/raft"
	boltdb "github.com/hashicorp/raft-boltdb"

	"github.com/rrelay/bgpd/pkg/logging"
)

// Config describes one replica's view of the Raft group.
type Config struct {
	// LocalID uniquely identifies this replica within the group.
	LocalID string
	// BindAddr is the address this replica's Raft transport listens on,
	// e.g. "10.0.0.1:7300".
	BindAddr string
	// Peers lists every replica's Raft bind address, LocalID's included,
	// keyed by ID. A group of one behaves as a permanent leader without
	// constructing a raft.Raft at all.
	Peers map[string]string
	// Dir is where the Raft log, stable store, and snapshots live.
	Dir string
	// Bootstrap requests that this replica initialize a fresh cluster
	// configuration from Peers if no persisted state already exists.
	// Exactly one replica in a fresh group should set this.
	Bootstrap bool

	// OnLeader and OnFollower run (on their own goroutine) whenever this
	// replica gains or loses leadership. A solo Group instead calls OnLeader
	// once, synchronously, from Start. Either may be nil.
	OnLeader   func()
	OnFollower func()

	Logger *logging.Logger
}

// Group wraps a raft.Raft instance and its leadership-change notifications.
// A single-replica Group never constructs raft.Raft: IsLeader always
// reports true and the callbacks never fire beyond the initial state, since
// there is no election to run.
type Group struct {
	cfg      Config
	raft     *raft.Raft
	solo     bool
	stopCh   chan struct{}
	isLeader bool
}

// New builds a Group per cfg. When len(cfg.Peers) <= 1, it returns a solo
// Group that never touches disk or the network.
func New(cfg Config) (*Group, error) {
	if len(cfg.Peers) <= 1 {
		return &Group{cfg: cfg, solo: true, isLeader: true}, nil
	}

	fsmInst := fsm{}
	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(cfg.LocalID)
	raftConfig.LogLevel = "WARN"

	addr, err := net.ResolveTCPAddr("tcp", cfg.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("ha: resolving bind addr: %w", err)
	}
	transport, err := raft.NewTCPTransport(cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("ha: creating transport: %w", err)
	}

	needBootstrap := false
	if _, err := os.Stat(cfg.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("ha: creating raft directory: %w", err)
		}
		needBootstrap = true
	}

	logStore, err := boltdb.NewBoltStore(cfg.Dir + "/raft-log.db")
	if err != nil {
		return nil, fmt.Errorf("ha: creating log store: %w", err)
	}
	stableStore, err := boltdb.NewBoltStore(cfg.Dir + "/raft-stable.db")
	if err != nil {
		return nil, fmt.Errorf("ha: creating stable store: %w", err)
	}
	snapshotStore, err := raft.NewFileSnapshotStore(cfg.Dir, 3, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("ha: creating snapshot store: %w", err)
	}

	r, err := raft.NewRaft(raftConfig, fsmInst, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, fmt.Errorf("ha: creating raft instance: %w", err)
	}

	g := &Group{cfg: cfg, raft: r, stopCh: make(chan struct{})}

	if needBootstrap && cfg.Bootstrap {
		servers := make([]raft.Server, 0, len(cfg.Peers))
		for id, addr := range cfg.Peers {
			servers = append(servers, raft.Server{ID: raft.ServerID(id), Address: raft.ServerAddress(addr)})
		}
		if err := r.BootstrapCluster(raft.Configuration{Servers: servers}).Error(); err != nil {
			return nil, fmt.Errorf("ha: bootstrapping cluster: %w", err)
		}
	}

	return g, nil
}

// Start begins monitoring leadership changes. A solo Group returns
// immediately, running OnLeader once synchronously.
func (g *Group) Start() {
	if g.solo {
		if g.cfg.OnLeader != nil {
			g.cfg.OnLeader()
		}
		return
	}
	go g.monitorLeadership()
}

// IsLeader reports whether this replica currently drives the event loop.
func (g *Group) IsLeader() bool {
	if g.solo {
		return true
	}
	return g.raft.State() == raft.Leader
}

// Shutdown stops the Raft instance. A solo Group is a no-op.
func (g *Group) Shutdown() error {
	if g.solo || g.raft == nil {
		return nil
	}
	close(g.stopCh)
	return g.raft.Shutdown().Error()
}

func (g *Group) monitorLeadership() {
	leadershipCh := g.raft.LeaderCh()
	g.isLeader = g.raft.State() == raft.Leader
	logf(g.cfg.Logger, "ha: initial state leader=%v id=%s", g.isLeader, g.cfg.LocalID)

	for {
		select {
		case isLeader := <-leadershipCh:
			if isLeader && !g.isLeader {
				g.isLeader = true
				logf(g.cfg.Logger, "ha: %s became leader", g.cfg.LocalID)
				if g.cfg.OnLeader != nil {
					go g.cfg.OnLeader()
				}
			} else if !isLeader && g.isLeader {
				g.isLeader = false
				logf(g.cfg.Logger, "ha: %s became follower", g.cfg.LocalID)
				if g.cfg.OnFollower != nil {
					go g.cfg.OnFollower()
				}
			}
		case <-g.stopCh:
			return
		}
	}
}

func logf(l *logging.Logger, format string, v ...any) {
	if l == nil {
		return
	}
	l.Infof(format, v...)
}

// ParsePort extracts the numeric port suffix of an address like
// "10.0.0.1:7300", defaulting to 0 on error, matching the teacher's
// tolerant strconv.Atoi(splits[len(splits)-1]) parse in NewServer.
func ParsePort(addr string) int {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			p, err := strconv.Atoi(addr[i+1:])
			if err != nil {
				return 0
			}
			return p
		}
	}
	return 0
}
