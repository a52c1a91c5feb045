package rlog

import (
	"context"
	"sync"
	"time"
)

// Writer is a synchronous client-visible handle over a WriterActor.
// Its constructor runs the election retry loop the design specifies:
// repeatedly dispatch elect, await with electionTimeout, retrying on
// timeout or a lost election until retries is exhausted or an
// election succeeds.
type Writer struct {
	actor *WriterActor

	mu sync.Mutex
	// usable is set once and never cleared: it records whether this
	// writer has ever won an election, so append/truncate can reject
	// a never-elected writer without a mailbox round trip. It does not
	// track later poisoning — that still surfaces from the actor,
	// which holds the authoritative coordinator state.
	usable bool
	// ending is the position returned by the most recent successful
	// election or proposal. For a truncate that is the truncation
	// boundary (the new beginning-1), not the log's ending.
	ending Position
}

// NewWriter opens a writer handle against log and runs initial
// election. If every retry is exhausted or election fails outright,
// the returned Writer still exists but every subsequent operation
// will fail — mirroring the design's "abandon construction" behavior,
// which leaves the handle usable-but-broken rather than returning an
// error from the constructor.
func NewWriter(log *Log, electionTimeout time.Duration, retries int) *Writer {
	w := &Writer{actor: newWriterActor(log.actor, log.logger.Named("writer"))}

	for retries >= 0 {
		ctx, cancel := context.WithTimeout(context.Background(), electionTimeout)
		outcome, err := w.actor.Elect(ctx).Await(ctx)
		cancel()

		switch {
		case err != nil:
			if ctx.Err() != nil {
				retries--
				continue
			}
			w.actor.logger.Error("election failed, abandoning writer construction", "error", err)
			return w
		case !outcome.Elected:
			retries--
			continue
		default:
			w.mu.Lock()
			w.usable = true
			w.ending = outcome.Position
			w.mu.Unlock()
			return w
		}
	}
	return w
}

// Elect re-runs leader election on demand (e.g. after the writer was
// poisoned), following the same timeout-discard-and-retry shape as
// the constructor but exposed as a single round trip per call, so
// callers decide their own retry policy.
func (w *Writer) Elect(timeout time.Duration) Result[Position] {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	outcome, err := w.actor.Elect(ctx).Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return NoneResult[Position]()
		}
		return ErrResult[Position](err)
	}
	if !outcome.Elected {
		return NoneResult[Position]()
	}
	w.mu.Lock()
	w.usable = true
	w.ending = outcome.Position
	w.mu.Unlock()
	return OkResult(outcome.Position)
}

// Ending returns the position returned by the most recent successful
// election or proposal (after a truncate, the truncation boundary). It
// is a locally cached value, not a fresh read against the replica.
func (w *Writer) Ending() Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ending
}

// Append dispatches append(bytes) and awaits it with timeout.
func (w *Writer) Append(bytes []byte, timeout time.Duration) Result[Position] {
	return w.proposeResult(timeout, func(ctx context.Context) *positionAwaiter {
		return &positionAwaiter{f: w.actor.Append(ctx, bytes)}
	})
}

// Truncate dispatches truncate(to) and awaits it with timeout.
func (w *Writer) Truncate(to Position, timeout time.Duration) Result[Position] {
	return w.proposeResult(timeout, func(ctx context.Context) *positionAwaiter {
		return &positionAwaiter{f: w.actor.Truncate(ctx, to)}
	})
}

// positionAwaiter lets proposeResult stay agnostic between Append's
// and Truncate's distinct future.Future[Position] values.
type positionAwaiter struct {
	f interface {
		Await(ctx context.Context) (Position, error)
	}
}

func (w *Writer) proposeResult(timeout time.Duration, dispatch func(ctx context.Context) *positionAwaiter) Result[Position] {
	w.mu.Lock()
	usable := w.usable
	w.mu.Unlock()
	if !usable {
		return ErrResult[Position](ErrNoElection)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pos, err := dispatch(ctx).f.Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return NoneResult[Position]()
		}
		return ErrResult[Position](err)
	}

	w.mu.Lock()
	w.ending = pos
	w.mu.Unlock()
	return OkResult(pos)
}

// Close closes the underlying WriterActor.
func (w *Writer) Close() {
	w.actor.Close()
}
