package recovery

import (
	"context"
	"net"
	"net/rpc"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chn0318/paxoslog/network"
	"github.com/chn0318/paxoslog/replica"
)

func startQueryService(t *testing.T, rep replica.Replica) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("QueryService", replica.NewQueryService(rep)))
	go server.Accept(listener)
	t.Cleanup(func() { listener.Close() })

	return listener.Addr().String()
}

func TestRecoverIsNoopWhenAlreadyCaughtUp(t *testing.T) {
	ctx := context.Background()

	repA := replica.NewMemory("a")
	repB := replica.NewMemory("b")
	addrB := startQueryService(t, repB)

	got, err := Recover(ctx, 2, repA, network.NewStatic([]string{addrB}))
	require.NoError(t, err)
	assert.Same(t, repA, got)
}

func TestRecoverFailsBelowQuorum(t *testing.T) {
	ctx := context.Background()

	repA := replica.NewMemory("a")
	unreachable := network.NewStatic([]string{"127.0.0.1:1"})

	_, err := Recover(ctx, 2, repA, unreachable)
	assert.ErrorIs(t, err, ErrNoQuorum)
}

func TestRecoverBackfillsMissingLearnedPrefix(t *testing.T) {
	ctx := context.Background()

	repA := replica.NewMemory("a")

	repB := replica.NewMemory("b")
	a1, err := repB.Append(ctx, []byte("one"))
	require.NoError(t, err)
	require.NoError(t, repB.Learn(ctx, a1.Position))
	a2, err := repB.Append(ctx, []byte("two"))
	require.NoError(t, err)
	require.NoError(t, repB.Learn(ctx, a2.Position))

	addrB := startQueryService(t, repB)

	got, err := Recover(ctx, 2, repA, network.NewStatic([]string{addrB}))
	require.NoError(t, err)

	ending, err := got.Ending(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ending)

	actions, err := got.Read(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, []byte("one"), actions[0].AppendBytes)
	assert.Equal(t, []byte("two"), actions[1].AppendBytes)
}

func TestRecoverFailsWhenGapCannotBeFilled(t *testing.T) {
	ctx := context.Background()

	repA := replica.NewMemory("a")

	repB := replica.NewMemory("b")
	// Position 1 is performed but never learned by the peer either, so
	// no reachable replica can supply a learned value for it.
	_, err := repB.Append(ctx, []byte("pending"))
	require.NoError(t, err)

	// Force repB to report an Ending ahead of what it can actually
	// supply as learned, mimicking a peer that observed a higher
	// ending from a third replica it has since lost contact with.
	addrB := startQueryService(t, &endingOverride{Writer: repB, ending: 1})

	_, err = Recover(ctx, 2, repA, network.NewStatic([]string{addrB}))
	assert.ErrorIs(t, err, ErrIncompletePrefix)
}

// endingOverride wraps a Writer to report a fixed Ending value,
// simulating a peer whose own view of the quorum-learned tail is
// ahead of what it can locally back up with learned actions.
type endingOverride struct {
	replica.Writer
	ending uint64
}

func (e *endingOverride) Ending(ctx context.Context) (uint64, error) {
	return e.ending, nil
}
