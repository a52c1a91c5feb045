package network

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticGroupJoinAssignsIncreasingIDs(t *testing.T) {
	g := NewStaticGroup()

	m1, err := g.Join(context.Background(), "a")
	require.NoError(t, err)
	m2, err := g.Join(context.Background(), "b")
	require.NoError(t, err)

	assert.NotEqual(t, m1.ID, m2.ID)
	assert.Equal(t, "a", m1.PID)
	assert.Equal(t, "b", m2.PID)
}

func TestStaticGroupWatchUnblocksOnJoin(t *testing.T) {
	g := NewStaticGroup()
	m1, err := g.Join(context.Background(), "a")
	require.NoError(t, err)

	done := make(chan []Membership, 1)
	go func() {
		members, err := g.Watch(context.Background(), []Membership{m1})
		require.NoError(t, err)
		done <- members
	}()

	time.Sleep(10 * time.Millisecond)
	_, err = g.Join(context.Background(), "b")
	require.NoError(t, err)

	select {
	case members := <-done:
		assert.Len(t, members, 2)
	case <-time.After(time.Second):
		t.Fatal("Watch did not unblock after Join")
	}
}

func TestStaticGroupWatchUnblocksOnLeave(t *testing.T) {
	g := NewStaticGroup()
	m1, err := g.Join(context.Background(), "a")
	require.NoError(t, err)
	m2, err := g.Join(context.Background(), "b")
	require.NoError(t, err)

	done := make(chan []Membership, 1)
	go func() {
		members, err := g.Watch(context.Background(), []Membership{m1, m2})
		require.NoError(t, err)
		done <- members
	}()

	time.Sleep(10 * time.Millisecond)
	g.Leave(m2)

	select {
	case members := <-done:
		require.Len(t, members, 1)
		assert.Equal(t, m1.ID, members[0].ID)
	case <-time.After(time.Second):
		t.Fatal("Watch did not unblock after Leave")
	}
}

func TestStaticGroupWatchRespectsContextCancellation(t *testing.T) {
	g := NewStaticGroup()
	m1, err := g.Join(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = g.Watch(ctx, []Membership{m1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSameMembershipIgnoresOrder(t *testing.T) {
	a := []Membership{{PID: "x", ID: 1}, {PID: "y", ID: 2}}
	b := []Membership{{PID: "y", ID: 2}, {PID: "x", ID: 1}}
	assert.True(t, sameMembership(a, b))
}
