package network

import (
	"context"
	"net"
	"net/rpc"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EchoArgs/EchoReply/Echo is a minimal net/rpc service used only to
// exercise Static.Call against a real listener.
type EchoArgs struct{ N int }
type EchoReply struct{ N int }
type Echo struct{}

func (Echo) Double(args *EchoArgs, reply *EchoReply) error {
	reply.N = args.N * 2
	return nil
}

func startEchoServer(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("Echo", Echo{}))
	go server.Accept(listener)
	t.Cleanup(func() { listener.Close() })

	return listener.Addr().String()
}

func TestStaticCallBroadcastsToEveryPeer(t *testing.T) {
	addr1 := startEchoServer(t)
	addr2 := startEchoServer(t)

	s := NewStatic([]string{addr1, addr2})
	assert.ElementsMatch(t, []string{addr1, addr2}, s.Peers())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	replies, err := s.Call(ctx, "Echo.Double", &EchoArgs{N: 21}, &EchoReply{})
	require.NoError(t, err)
	require.Len(t, replies, 2)

	for _, r := range replies {
		require.NoError(t, r.Err)
		reply, ok := r.Value.(*EchoReply)
		require.True(t, ok)
		assert.Equal(t, 42, reply.N)
	}
}

func TestStaticCallIsolatesUnreachablePeers(t *testing.T) {
	good := startEchoServer(t)
	// Port 1 is essentially guaranteed to refuse connections.
	bad := "127.0.0.1:1"

	s := NewStatic([]string{good, bad})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	replies, err := s.Call(ctx, "Echo.Double", &EchoArgs{N: 10}, &EchoReply{})
	require.NoError(t, err)
	require.Len(t, replies, 2)

	byPeer := make(map[string]Reply, len(replies))
	for _, r := range replies {
		byPeer[r.Peer] = r
	}

	require.NoError(t, byPeer[good].Err)
	assert.Error(t, byPeer[bad].Err)
}

func TestStaticCallGivesEachPeerItsOwnReply(t *testing.T) {
	addr1 := startEchoServer(t)
	addr2 := startEchoServer(t)

	s := NewStatic([]string{addr1, addr2})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	replies, err := s.Call(ctx, "Echo.Double", &EchoArgs{N: 5}, &EchoReply{})
	require.NoError(t, err)
	require.Len(t, replies, 2)

	r0 := replies[0].Value.(*EchoReply)
	r1 := replies[1].Value.(*EchoReply)
	assert.NotSame(t, r0, r1)
}
