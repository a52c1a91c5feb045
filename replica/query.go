package replica

import (
	"context"

	"github.com/chn0318/paxoslog/action"
)

// QueryArgs/QueryReply are the net/rpc message shapes Recovery uses to
// read a peer's replica boundaries and action range.
type QueryArgs struct {
	From uint64
	To   uint64
}

type QueryReply struct {
	Beginning uint64
	Ending    uint64
	Actions   []action.Action
}

// QueryService exposes a local Replica for remote reads, the service
// Recovery's network.Network broadcasts reach on every peer.
type QueryService struct {
	rep Replica
}

// NewQueryService wraps rep for net/rpc registration.
func NewQueryService(rep Replica) *QueryService {
	return &QueryService{rep: rep}
}

func (q *QueryService) Query(args *QueryArgs, reply *QueryReply) error {
	ctx := context.Background()

	beginning, err := q.rep.Beginning(ctx)
	if err != nil {
		return err
	}
	ending, err := q.rep.Ending(ctx)
	if err != nil {
		return err
	}
	reply.Beginning = beginning
	reply.Ending = ending

	if args.To >= args.From {
		actions, err := q.rep.Read(ctx, args.From, args.To)
		if err != nil {
			return err
		}
		reply.Actions = actions
	}
	return nil
}
