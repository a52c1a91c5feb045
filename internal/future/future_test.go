package future

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureSetThenAwait(t *testing.T) {
	f, p := New[int]()
	p.Set(42)

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFutureFailThenAwait(t *testing.T) {
	f, p := New[int]()
	boom := assertErr("boom")
	p.Fail(boom)

	_, err := f.Await(context.Background())
	assert.Equal(t, boom, err)
}

func TestFutureAwaitBlocksUntilSet(t *testing.T) {
	f, p := New[string]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		p.Set("done")
	}()

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestFutureAwaitContextCancelled(t *testing.T) {
	f, _ := New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFutureDiscard(t *testing.T) {
	f, _ := New[int]()
	f.Discard()

	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, ErrDiscarded)
}

func TestFutureDiscardIsIdempotent(t *testing.T) {
	f, _ := New[int]()
	f.Discard()
	assert.NotPanics(t, func() { f.Discard() })
}

func TestFutureResolvedIsImmediatelyReady(t *testing.T) {
	f := Resolved(7)
	assert.True(t, f.IsReady())

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFutureFailedIsImmediatelyReady(t *testing.T) {
	boom := assertErr("boom")
	f := Failed[int](boom)
	assert.True(t, f.IsReady())

	_, err := f.Await(context.Background())
	assert.Equal(t, boom, err)
}

func TestFutureIsReadyBeforeSet(t *testing.T) {
	f, _ := New[int]()
	assert.False(t, f.IsReady())
}

// assertErr is a tiny helper so this file doesn't need to import
// "errors" just to build one sentinel for comparison.
type simpleError string

func (e simpleError) Error() string { return string(e) }

func assertErr(msg string) error { return simpleError(msg) }
