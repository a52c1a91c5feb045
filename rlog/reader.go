package rlog

import (
	"context"
	"time"
)

// Reader is a synchronous client-visible handle that dispatches to a
// ReaderActor and blocks with a caller-supplied timeout.
type Reader struct {
	actor *ReaderActor
}

// NewReader opens a reader handle against log, sharing its recovery.
func NewReader(log *Log) *Reader {
	return &Reader{actor: newReaderActor(log.actor, log.logger.Named("reader"))}
}

// Beginning blocks until recovery resolves; the design leaves this
// operation without a timeout (flagged for review in §9's open
// questions), so a stalled recovery hangs the caller indefinitely.
func (r *Reader) Beginning() Result[Position] {
	pos, err := r.actor.Beginning(context.Background())
	if err != nil {
		return ErrResult[Position](err)
	}
	return OkResult(pos)
}

// Ending mirrors Beginning.
func (r *Reader) Ending() Result[Position] {
	pos, err := r.actor.Ending(context.Background())
	if err != nil {
		return ErrResult[Position](err)
	}
	return OkResult(pos)
}

// Read dispatches a bounded read and awaits it with timeout; on
// timeout it discards the underlying operation and returns the "none"
// sentinel rather than blocking further.
func (r *Reader) Read(from, to Position, timeout time.Duration) Result[[]Entry] {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entries, err := r.actor.Read(ctx, from, to)
	if err != nil {
		if ctx.Err() != nil {
			return NoneResult[[]Entry]()
		}
		return ErrResult[[]Entry](err)
	}
	return OkResult(entries)
}

// Close closes the underlying ReaderActor.
func (r *Reader) Close() {
	r.actor.Close()
}
