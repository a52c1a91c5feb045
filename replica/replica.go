// Package replica specifies the local, persistent store of actions
// that the log core reads from and the coordinator/recovery
// collaborators write to. It is an external collaborator per the
// design: the core only ever consumes the interfaces below.
package replica

import (
	"context"

	"github.com/chn0318/paxoslog/action"
)

// Replica is the shared, read-only view handed to readers and writers
// once a LogActor has finished recovery.
type Replica interface {
	// Beginning returns the first position still retained by this
	// replica (i.e. one past the last truncated position).
	Beginning(ctx context.Context) (uint64, error)
	// Ending returns the last learned position, or 0 if the log is
	// empty.
	Ending(ctx context.Context) (uint64, error)
	// Read returns the contiguous list of actions in [from, to].
	// Positions with no decision yet are returned as action.Missing.
	Read(ctx context.Context, from, to uint64) ([]action.Action, error)
	// PID is this replica's opaque network identity, used for group
	// registration.
	PID() string
}

// Writer is the mutable side of a replica, consumed only by the
// Coordinator and Recovery collaborators, never directly by
// Reader/WriterActor.
type Writer interface {
	Replica

	// Append assigns the next position and stores an Append action,
	// initially performed but not yet learned.
	Append(ctx context.Context, bytes []byte) (action.Action, error)
	// Truncate stores a Truncate action at the next position; once
	// learned, Beginning advances to to+1.
	Truncate(ctx context.Context, to uint64) (action.Action, error)
	// Learn marks the action at pos as quorum-confirmed. It is an
	// error to learn a position that has not been Performed.
	Learn(ctx context.Context, pos uint64) error
	// Install directly stores an already-decided, already-learned
	// action at an arbitrary position, used by Recovery to catch up a
	// replica to a peer's quorum-agreed prefix without re-running
	// Paxos for slots that are already settled.
	Install(ctx context.Context, a action.Action) error
}
