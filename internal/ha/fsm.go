package ha

import (
	"io"

	"github.com/hashicorp/raft"
)

// fsm carries no replicated state: leadership itself is the only thing this
// module coordinates, so Apply/Snapshot/Restore are all no-ops, the same
// shape as the teacher's consensus.FSM.
type fsm struct{}

func (fsm) Apply(*raft.Log) interface{} { return nil }

func (fsm) Snapshot() (raft.FSMSnapshot, error) { return fsmSnapshot{}, nil }

func (fsm) Restore(rc io.ReadCloser) error { return rc.Close() }

type fsmSnapshot struct{}

func (fsmSnapshot) Persist(sink raft.SnapshotSink) error { return sink.Close() }

func (fsmSnapshot) Release() {}
