package replica

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chn0318/paxoslog/action"
)

func TestMemoryBeginningStartsAtOne(t *testing.T) {
	m := NewMemory("r1")
	b, err := m.Beginning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b)
}

func TestMemoryEndingStartsAtZero(t *testing.T) {
	m := NewMemory("r1")
	e, err := m.Ending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), e)
}

func TestMemoryAppendIsPerformedButNotLearned(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("r1")

	a, err := m.Append(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a.Position)
	assert.True(t, a.Performed)
	assert.False(t, a.Learned)

	// Ending only reflects the learned prefix, so an unlearned append
	// must not advance it yet.
	e, err := m.Ending(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), e)
}

func TestMemoryLearnAdvancesEnding(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("r1")

	a, err := m.Append(ctx, []byte("hello"))
	require.NoError(t, err)

	require.NoError(t, m.Learn(ctx, a.Position))

	e, err := m.Ending(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e)
}

func TestMemoryLearnUnknownPositionFails(t *testing.T) {
	m := NewMemory("r1")
	err := m.Learn(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotPerformed)
}

func TestMemoryLearnIsOutOfOrderSafe(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("r1")

	a1, err := m.Append(ctx, []byte("one"))
	require.NoError(t, err)
	a2, err := m.Append(ctx, []byte("two"))
	require.NoError(t, err)

	// Learning position 2 before position 1 must not advance the
	// contiguous learned high water mark past position 0.
	require.NoError(t, m.Learn(ctx, a2.Position))
	e, err := m.Ending(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), e)

	require.NoError(t, m.Learn(ctx, a1.Position))
	e, err = m.Ending(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), e)
}

func TestMemoryTruncateAdvancesBeginningOnceLearned(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("r1")

	a1, err := m.Append(ctx, []byte("one"))
	require.NoError(t, err)
	require.NoError(t, m.Learn(ctx, a1.Position))

	tr, err := m.Truncate(ctx, a1.Position)
	require.NoError(t, err)
	assert.Equal(t, action.Truncate, tr.Type)

	// Beginning must not move until the truncate action itself is learned.
	b, err := m.Beginning(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b)

	require.NoError(t, m.Learn(ctx, tr.Position))
	b, err = m.Beginning(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), b)
}

func TestMemoryReadReturnsMissingForHoles(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("r1")

	actions, err := m.Read(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	for i, a := range actions {
		assert.Equal(t, uint64(i+1), a.Position)
		assert.False(t, a.Performed)
	}
}

func TestMemoryInstallSetsPerformedAndLearned(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("r1")

	// Install fills a contiguous prefix starting at position 1, the
	// only way its Learned flag can advance the high water mark.
	err := m.Install(ctx, action.Action{
		Position:    1,
		Type:        action.Append,
		AppendBytes: []byte("backfilled"),
	})
	require.NoError(t, err)

	actions, err := m.Read(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.True(t, actions[0].Performed)
	assert.True(t, actions[0].Learned)

	e, err := m.Ending(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e)
}

func TestMemoryInstallAtAHoleDoesNotAdvanceEnding(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("r1")

	// Installing directly at position 5 with 1..4 still missing must
	// not expose position 5 as part of the learned prefix.
	err := m.Install(ctx, action.Action{
		Position:    5,
		Type:        action.Append,
		AppendBytes: []byte("backfilled"),
	})
	require.NoError(t, err)

	e, err := m.Ending(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), e)
}
