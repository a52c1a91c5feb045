package rlog

import (
	"context"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/chn0318/paxoslog/coordinator"
	"github.com/chn0318/paxoslog/internal/future"
)

// ElectOutcome is the Option<Position> result of an election: Elected
// is false when a competing proposer held the slot (retryable), true
// with Position set to the current ending position on a win.
type ElectOutcome struct {
	Position Position
	Elected  bool
}

// WriterActor owns one Coordinator at a time and serializes
// append/truncate through it in arrival order. Its mutable state
// (coordinator, poison error) is only ever touched from the single
// goroutine drained by run, so it needs no locking of its own; closed
// is checked before enqueuing onto the mailbox at all, from any
// goroutine, so it is an atomic.Bool.
type WriterActor struct {
	logActor *LogActor
	logger   hclog.Logger

	mailbox chan func()
	closed  atomic.Bool

	coord      coordinator.Coordinator
	writerErr  error
}

func newWriterActor(logActor *LogActor, logger hclog.Logger) *WriterActor {
	logActor.AcquireRef()
	// Kick off recovery immediately, the same way the original starts
	// recovering at writer construction (log.cpp:549) rather than
	// waiting for the first Elect call.
	logActor.Recover()
	w := &WriterActor{
		logActor: logActor,
		logger:   logger,
		mailbox:  make(chan func()),
	}
	go w.run()
	return w
}

func (w *WriterActor) run() {
	for fn := range w.mailbox {
		fn()
	}
}

func (w *WriterActor) enqueue(fn func()) bool {
	if w.closed.Load() {
		return false
	}
	w.mailbox <- fn
	return true
}

// Elect tears down any existing coordinator, constructs a fresh one
// bound to the owning LogActor's quorum/replica/network, and runs a
// single election round against it.
func (w *WriterActor) Elect(ctx context.Context) *future.Future[ElectOutcome] {
	f, p := future.New[ElectOutcome]()
	if !w.enqueue(func() { w.doElect(ctx, p) }) {
		p.Fail(ErrWriterClosing)
	}
	return f
}

func (w *WriterActor) doElect(ctx context.Context, p *future.Promise[ElectOutcome]) {
	w.coord = nil
	w.writerErr = nil

	// Gate on recovery, awaiting it rather than failing fast if it is
	// still in flight — a writer constructed just before its first
	// Elect call must not lose the race against its own recovery.
	rep, err := w.logActor.WriterHandle(ctx)
	if err != nil {
		p.Fail(err)
		return
	}

	coord := coordinator.New(w.logActor.Quorum(), rep.PID(), rep, w.logActor.Network())
	pos, ok, err := coord.Elect(ctx)
	if err != nil {
		w.logger.Warn("election failed", "error", err)
		w.writerErr = err
		p.Fail(err)
		return
	}
	if !ok {
		w.logger.Debug("election lost")
		p.Set(ElectOutcome{Elected: false})
		return
	}

	w.coord = coord
	w.logger.Info("elected", "ending", pos)
	p.Set(ElectOutcome{Position: Position(pos), Elected: true})
}

// Append delegates to the current coordinator, poisoning the writer
// on any proposal failure per the design's single-leader discipline.
func (w *WriterActor) Append(ctx context.Context, bytes []byte) *future.Future[Position] {
	f, p := future.New[Position]()
	if !w.enqueue(func() { w.doPropose(ctx, p, func() (uint64, error) { return w.coord.Append(ctx, bytes) }) }) {
		p.Fail(ErrWriterClosing)
	}
	return f
}

// Truncate delegates to the current coordinator the same way Append
// does.
func (w *WriterActor) Truncate(ctx context.Context, to Position) *future.Future[Position] {
	f, p := future.New[Position]()
	if !w.enqueue(func() { w.doPropose(ctx, p, func() (uint64, error) { return w.coord.Truncate(ctx, uint64(to)) }) }) {
		p.Fail(ErrWriterClosing)
	}
	return f
}

func (w *WriterActor) doPropose(ctx context.Context, p *future.Promise[Position], propose func() (uint64, error)) {
	if w.coord == nil {
		p.Fail(ErrNoElection)
		return
	}
	if w.writerErr != nil {
		p.Fail(w.writerErr)
		return
	}

	pos, err := propose()
	if err != nil {
		w.logger.Warn("proposal failed, poisoning writer", "error", err)
		w.writerErr = err
		p.Fail(err)
		return
	}
	p.Set(Position(pos))
}

// Close fails nothing explicitly queued (the mailbox channel simply
// stops accepting new work); it drops the coordinator and releases
// this writer's hold on the owning LogActor's shared state.
func (w *WriterActor) Close() {
	w.closed.Store(true)
	// The coordinator is only touched on the actor goroutine.
	w.mailbox <- func() { w.coord = nil }
	w.logger.Debug("writer closed")
	w.logActor.ReleaseRef()
}
