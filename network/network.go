// Package network specifies the transport the core uses to discover
// and broadcast to the current quorum set. Like replica and
// coordinator, it is an external collaborator: the core only consumes
// the Network/Group interfaces below.
package network

import "context"

// Network discovers and broadcasts to the current quorum set.
type Network interface {
	// Peers returns the network identities of every replica currently
	// believed reachable, not including self.
	Peers() []string

	// Call invokes the named RPC method against every peer, returning
	// one reply (or error) per peer in Peers() order. Callers typically
	// only need a quorum of successful replies.
	Call(ctx context.Context, method string, args, replyTemplate any) ([]Reply, error)
}

// Reply pairs a peer's RPC outcome with the peer it came from.
type Reply struct {
	Peer  string
	Value any
	Err   error
}

// Membership is a single replica's registration with the naming
// service.
type Membership struct {
	PID string
	ID  int64
}

// Group is the naming/membership registry contract: join advertises
// this replica's identity, watch blocks until the membership set
// differs from prior.
type Group interface {
	Join(ctx context.Context, identity string) (Membership, error)
	Watch(ctx context.Context, prior []Membership) ([]Membership, error)
}
