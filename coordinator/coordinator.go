// Package coordinator specifies the Paxos proposer bound to a writer's
// current ballot. Like replica and network, it is an external
// collaborator per the design; this package supplies the reference
// Paxos implementation the core's WriterActor drives.
package coordinator

import "context"

// Coordinator issues proposals for a single elected term. A
// WriterActor owns exactly one at a time (see rlog.Writer).
type Coordinator interface {
	// Elect runs leader election. On success it returns the current
	// ending position; on losing to a competing proposer it returns
	// ok=false with no error (retryable).
	Elect(ctx context.Context) (position uint64, ok bool, err error)
	// Append assigns and replicates the next position for bytes.
	Append(ctx context.Context, bytes []byte) (uint64, error)
	// Truncate replicates a new truncation boundary and returns the
	// new beginning-1.
	Truncate(ctx context.Context, to uint64) (uint64, error)
}
