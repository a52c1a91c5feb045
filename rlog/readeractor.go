package rlog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/chn0318/paxoslog/action"
	"github.com/chn0318/paxoslog/internal/future"
	"github.com/chn0318/paxoslog/replica"
)

// ReaderActor is a per-reader handle gating beginning/ending/read on
// the owning LogActor's recovery. Unlike WriterActor it has no
// ordering requirement across operations, so reads may run
// concurrently once the gate is open: it carries only the bookkeeping
// needed to discard outstanding gate waits on Close, guarded by a
// mutex rather than its own mailbox.
type ReaderActor struct {
	logActor *LogActor
	logger   hclog.Logger

	mu       sync.Mutex
	inflight map[*future.Future[replica.Replica]]struct{}
	closed   bool
}

func newReaderActor(logActor *LogActor, logger hclog.Logger) *ReaderActor {
	logActor.AcquireRef()
	return &ReaderActor{
		logActor: logActor,
		logger:   logger,
		inflight: make(map[*future.Future[replica.Replica]]struct{}),
	}
}

// recoverGate awaits the owning LogActor's recovery, translating a
// discard (triggered by Close) into the reader-closing error.
func (r *ReaderActor) recoverGate(ctx context.Context) (replica.Replica, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrReaderClosing
	}
	f := r.logActor.Recover()
	r.inflight[f] = struct{}{}
	r.mu.Unlock()

	rep, err := f.Await(ctx)

	r.mu.Lock()
	delete(r.inflight, f)
	r.mu.Unlock()

	if errors.Is(err, future.ErrDiscarded) {
		return nil, ErrReaderClosing
	}
	return rep, err
}

func (r *ReaderActor) Beginning(ctx context.Context) (Position, error) {
	rep, err := r.recoverGate(ctx)
	if err != nil {
		return NoPosition, err
	}
	b, err := rep.Beginning(ctx)
	if err != nil {
		return NoPosition, err
	}
	return Position(b), nil
}

func (r *ReaderActor) Ending(ctx context.Context) (Position, error) {
	rep, err := r.recoverGate(ctx)
	if err != nil {
		return NoPosition, err
	}
	e, err := rep.Ending(ctx)
	if err != nil {
		return NoPosition, err
	}
	return Position(e), nil
}

// Read implements the design's read algorithm: walk the contiguous
// action range, rejecting pending or missing slots, filtering out
// everything but APPEND actions.
func (r *ReaderActor) Read(ctx context.Context, from, to Position) ([]Entry, error) {
	rep, err := r.recoverGate(ctx)
	if err != nil {
		return nil, err
	}

	actions, err := rep.Read(ctx, uint64(from), uint64(to))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(actions))
	expected := uint64(from)
	for _, a := range actions {
		if !a.Performed || !a.Learned {
			return nil, fmt.Errorf("%w: includes pending entries", ErrBadRange)
		}
		if a.Position != expected {
			return nil, fmt.Errorf("%w: includes missing entries", ErrBadRange)
		}
		expected++
		if a.Type == action.Append {
			entries = append(entries, Entry{Position: Position(a.Position), Bytes: a.AppendBytes})
		}
	}
	return entries, nil
}

// Close fails every pending gate wait with "reader is closing" and
// releases this reader's hold on the owning LogActor's shared state.
func (r *ReaderActor) Close() {
	r.mu.Lock()
	r.closed = true
	for f := range r.inflight {
		f.Discard()
	}
	r.inflight = nil
	r.mu.Unlock()

	r.logger.Debug("reader closed")
	r.logActor.ReleaseRef()
}
