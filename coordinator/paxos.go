package coordinator

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/chn0318/paxoslog/action"
	"github.com/chn0318/paxoslog/network"
	"github.com/chn0318/paxoslog/replica"
)

// Paxos is the reference Coordinator: single-decree-per-slot Paxos
// over a network.Network broadcast, generalized from chitsimran-
// nomos's paxos.Node.RunPrepare loop (ballot bump, broadcast Prepare,
// count promises against len(peers)+1) to the elect/append/truncate
// shape rlog.WriterActor drives, one proposal at a time rather than
// Node's continuous leadership loop.
type Paxos struct {
	quorum  int
	nodeID  int64
	rep     replica.Writer
	net     network.Network
	self    *Acceptor

	mu      sync.Mutex
	ballot  Ballot
	elected bool
}

// New constructs a Coordinator bound to rep, broadcasting proposals to
// net, requiring quorum acceptances to commit. pid identifies this
// replica and seeds the ballot's NodeID so concurrent proposers from
// different replicas never collide on the same ballot number.
func New(quorum int, pid string, rep replica.Writer, net network.Network) *Paxos {
	return &Paxos{
		quorum: quorum,
		nodeID: nodeIDFromPID(pid),
		rep:    rep,
		net:    net,
		self:   NewAcceptor(rep),
	}
}

func nodeIDFromPID(pid string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(pid))
	return int64(h.Sum64())
}

func (p *Paxos) Elect(ctx context.Context) (uint64, bool, error) {
	p.mu.Lock()
	p.ballot.Number++
	p.ballot.NodeID = p.nodeID
	ballot := p.ballot
	p.elected = false
	p.mu.Unlock()

	args := &PrepareArgs{Ballot: ballot}

	var selfReply PrepareReply
	if err := p.self.Prepare(args, &selfReply); err != nil {
		return 0, false, err
	}

	promises := 0
	var maxEnding uint64
	if selfReply.Promised {
		promises++
		maxEnding = selfReply.Ending
	} else if selfReply.PromisedBallot.GreaterThan(ballot) {
		return 0, false, nil
	}

	replies, err := p.net.Call(ctx, "Acceptor.Prepare", args, &PrepareReply{})
	if err != nil {
		return 0, false, err
	}
	for _, r := range replies {
		if r.Err != nil {
			continue
		}
		reply, ok := r.Value.(*PrepareReply)
		if !ok || reply == nil || !reply.Promised {
			continue
		}
		promises++
		if reply.Ending > maxEnding {
			maxEnding = reply.Ending
		}
	}

	if promises < p.quorum {
		return 0, false, nil
	}

	p.mu.Lock()
	p.elected = true
	p.mu.Unlock()

	return maxEnding, true, nil
}

func (p *Paxos) Append(ctx context.Context, bytes []byte) (uint64, error) {
	ballot, err := p.currentBallot()
	if err != nil {
		return 0, err
	}

	a, err := p.rep.Append(ctx, bytes)
	if err != nil {
		return 0, err
	}

	if err := p.replicateAndLearn(ctx, ballot, a); err != nil {
		p.poison()
		return 0, err
	}
	return a.Position, nil
}

func (p *Paxos) Truncate(ctx context.Context, to uint64) (uint64, error) {
	ballot, err := p.currentBallot()
	if err != nil {
		return 0, err
	}

	a, err := p.rep.Truncate(ctx, to)
	if err != nil {
		return 0, err
	}

	if err := p.replicateAndLearn(ctx, ballot, a); err != nil {
		p.poison()
		return 0, err
	}
	return to, nil
}

func (p *Paxos) currentBallot() (Ballot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.elected {
		return Ballot{}, ErrNotElected
	}
	return p.ballot, nil
}

func (p *Paxos) poison() {
	p.mu.Lock()
	p.elected = false
	p.mu.Unlock()
}

// replicateAndLearn runs the accept phase for a single already-
// locally-performed action, then learns it once a quorum (including
// self) has accepted.
func (p *Paxos) replicateAndLearn(ctx context.Context, ballot Ballot, a action.Action) error {
	accepted := 1 // the local Append/Truncate above already performed it.

	args := &AcceptArgs{Ballot: ballot, Action: a}
	replies, err := p.net.Call(ctx, "Acceptor.Accept", args, &AcceptReply{})
	if err != nil {
		return err
	}
	for _, r := range replies {
		if r.Err != nil {
			continue
		}
		reply, ok := r.Value.(*AcceptReply)
		if ok && reply != nil && reply.Accepted {
			accepted++
		}
	}

	if accepted < p.quorum {
		return ErrQuorumLost
	}

	if err := p.rep.Learn(ctx, a.Position); err != nil {
		return err
	}
	// Best-effort: peers learn asynchronously; a peer that misses this
	// broadcast catches up during its own Recovery pass.
	_, _ = p.net.Call(ctx, "Acceptor.Learn", &LearnArgs{Position: a.Position}, &LearnReply{})
	return nil
}
