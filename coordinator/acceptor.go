package coordinator

import (
	"context"
	"sync"

	"github.com/chn0318/paxoslog/action"
	"github.com/chn0318/paxoslog/replica"
)

// PrepareArgs/PrepareReply, AcceptArgs/AcceptReply, and LearnArgs/
// LearnReply are the net/rpc message shapes a Paxos proposer sends to
// each peer's Acceptor, generalized from chitsimran-nomos's
// PrepareArgs/PrepareReply/AcceptArgs/AcceptReply (Slot/Value there
// becomes Position/Action here, and an explicit Ending/Beginning pair
// replaces the commit-index-only view since readers need both
// boundaries).
type PrepareArgs struct {
	Ballot Ballot
}

type PrepareReply struct {
	Promised       bool
	PromisedBallot Ballot
	Ending         uint64
	Beginning      uint64
}

type AcceptArgs struct {
	Ballot Ballot
	Action action.Action
}

type AcceptReply struct {
	Accepted       bool
	PromisedBallot Ballot
}

type LearnArgs struct {
	Position uint64
}

type LearnReply struct {
	Ok bool
}

// Acceptor is the net/rpc service a replica's process exposes so
// remote Paxos proposers (coordinator.Paxos instances running in other
// replicas' WriterActors) can reach it. It owns no state beyond the
// current promised ballot and a handle to the local replica.Writer.
type Acceptor struct {
	mu       sync.Mutex
	promised Ballot
	replica  replica.Writer
}

// NewAcceptor exposes r for remote Paxos proposals.
func NewAcceptor(r replica.Writer) *Acceptor {
	return &Acceptor{replica: r}
}

// Prepare implements the Paxos promise phase: the acceptor promises
// not to accept any ballot lower than args.Ballot, and reports back
// its current boundaries so the proposer can recover the true ending
// position.
func (a *Acceptor) Prepare(args *PrepareArgs, reply *PrepareReply) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if args.Ballot.GreaterThan(a.promised) || args.Ballot == a.promised {
		a.promised = args.Ballot
		reply.Promised = true
	} else {
		reply.Promised = false
		reply.PromisedBallot = a.promised
		return nil
	}

	ctx := context.Background()
	ending, err := a.replica.Ending(ctx)
	if err != nil {
		return err
	}
	beginning, err := a.replica.Beginning(ctx)
	if err != nil {
		return err
	}
	reply.Ending = ending
	reply.Beginning = beginning
	return nil
}

// Accept implements the Paxos accept phase: the acceptor stores
// args.Action locally, provided no higher ballot has since been
// promised to a different proposer.
func (a *Acceptor) Accept(args *AcceptArgs, reply *AcceptReply) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if args.Ballot.GreaterThan(a.promised) {
		a.promised = args.Ballot
	} else if a.promised.GreaterThan(args.Ballot) {
		reply.Accepted = false
		reply.PromisedBallot = a.promised
		return nil
	}

	if err := a.replica.Install(context.Background(), args.Action); err != nil {
		return err
	}
	reply.Accepted = true
	return nil
}

// Learn marks a position as quorum-confirmed once the proposer has
// itself observed a quorum of Accept replies.
func (a *Acceptor) Learn(args *LearnArgs, reply *LearnReply) error {
	if err := a.replica.Learn(context.Background(), args.Position); err != nil {
		return err
	}
	reply.Ok = true
	return nil
}
