package network

import (
	"context"
	"net/rpc"
	"reflect"
)

// Static is a fixed peer set reached over net/rpc, the same transport
// chitsimran-nomos's paxos.CallRPC helper and dyv-paxos's peer dialing
// use for Paxos messages.
type Static struct {
	peers []string
}

// NewStatic returns a Network over a fixed, unchanging peer list.
func NewStatic(peers []string) *Static {
	cp := make([]string, len(peers))
	copy(cp, peers)
	return &Static{peers: cp}
}

func (s *Static) Peers() []string {
	cp := make([]string, len(s.peers))
	copy(cp, s.peers)
	return cp
}

// Call dials each peer in turn and invokes method via net/rpc,
// generalizing chitsimran-nomos's CallRPC[Args, Reply] generic helper
// to a broadcast-to-all-peers shape with per-peer error isolation: one
// unreachable peer never fails the whole round, callers decide how
// many replies they need for quorum.
func (s *Static) Call(ctx context.Context, method string, args, replyTemplate any) ([]Reply, error) {
	replies := make([]Reply, 0, len(s.peers))
	for _, peer := range s.peers {
		replies = append(replies, s.callOne(ctx, peer, method, args, replyTemplate))
	}
	return replies, nil
}

func (s *Static) callOne(ctx context.Context, peer, method string, args, replyTemplate any) Reply {
	type result struct {
		reply any
		err   error
	}

	// Each peer needs its own reply instance: replyTemplate is shared
	// across the whole broadcast, so reusing it would let the last
	// peer's response overwrite every earlier Reply.Value.
	reply := reflect.New(reflect.TypeOf(replyTemplate).Elem()).Interface()

	ch := make(chan result, 1)
	go func() {
		client, err := rpc.Dial("tcp", peer)
		if err != nil {
			ch <- result{err: err}
			return
		}
		defer client.Close()

		if err := client.Call(method, args, reply); err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{reply: reply}
	}()

	select {
	case r := <-ch:
		return Reply{Peer: peer, Value: r.reply, Err: r.err}
	case <-ctx.Done():
		return Reply{Peer: peer, Err: ctx.Err()}
	}
}
