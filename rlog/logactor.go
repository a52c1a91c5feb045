package rlog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/chn0318/paxoslog/internal/future"
	"github.com/chn0318/paxoslog/network"
	"github.com/chn0318/paxoslog/recovery"
	"github.com/chn0318/paxoslog/replica"
)

// LogActor owns the local replica and network, runs recovery exactly
// once, and publishes the recovered replica to any number of
// Reader/WriterActors. All of its mutable state is touched only from
// the single goroutine started by newLogActor; every public method
// that reads or changes that state dispatches a closure through
// mailbox and waits for it to run (Network, Quorum and the
// AcquireRef/ReleaseRef refcount do not touch it), mirroring the mailbox-per-actor pattern §5 of the design describes.
type LogActor struct {
	mailbox chan func()

	quorum  int
	rep     replica.Writer
	net     network.Network
	group   network.Group
	logger  hclog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// recovery state, touched only inside the actor goroutine.
	recoveryStarted bool
	recoveryDone    bool
	recoveryErr     error
	sharedReplica   replica.Replica
	pending         []*future.Promise[replica.Replica]

	closed bool

	// refs tracks outstanding Reader/WriterActor handles still holding
	// the shared replica/network, so Close can block on reacquiring
	// exclusive ownership before tearing anything down.
	refs sync.WaitGroup
}

func newLogActor(quorum int, rep replica.Writer, net network.Network, group network.Group, logger hclog.Logger) *LogActor {
	ctx, cancel := context.WithCancel(context.Background())
	a := &LogActor{
		mailbox: make(chan func()),
		quorum:  quorum,
		rep:     rep,
		net:     net,
		group:   group,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	go a.run()
	if group != nil {
		go a.maintainMembership()
	}
	return a
}

func (a *LogActor) run() {
	for fn := range a.mailbox {
		fn()
	}
}

// ask dispatches fn onto the actor's mailbox and blocks until it has
// run, giving external callers a synchronous view onto actor state
// without touching it directly.
func (a *LogActor) ask(fn func()) {
	done := make(chan struct{})
	a.mailbox <- func() {
		fn()
		close(done)
	}
	<-done
}

// Recover is idempotent: the first call starts the external Recovery
// collaborator; every call, including the first, returns a future
// that resolves once recovery completes (or immediately, if it already
// has).
func (a *LogActor) Recover() *future.Future[replica.Replica] {
	var f *future.Future[replica.Replica]
	a.ask(func() {
		if a.closed {
			f = future.Failed[replica.Replica](ErrClosing)
			return
		}
		if !a.recoveryStarted {
			a.recoveryStarted = true
			a.startRecoveryLocked()
		}
		f = a.recoverGateLocked()
	})
	return f
}

// recoverGateLocked must run on the actor goroutine. It mirrors the
// pending-promise-queue pattern: if recovery already settled, the
// caller gets an already-resolved future; otherwise it gets a private
// future fulfilled when recovery transitions.
func (a *LogActor) recoverGateLocked() *future.Future[replica.Replica] {
	if a.recoveryDone {
		if a.recoveryErr != nil {
			return future.Failed[replica.Replica](a.recoveryErr)
		}
		return future.Resolved(a.sharedReplica)
	}
	f, p := future.New[replica.Replica]()
	a.pending = append(a.pending, p)
	return f
}

func (a *LogActor) startRecoveryLocked() {
	a.logger.Info("recovery starting", "quorum", a.quorum, "pid", a.rep.PID())
	rep, net, quorum, ctx := a.rep, a.net, a.quorum, a.ctx
	go func() {
		owned, err := recovery.Recover(ctx, quorum, rep, net)
		a.mailbox <- func() {
			a.completeRecovery(owned, err)
		}
	}()
}

func (a *LogActor) completeRecovery(owned replica.Writer, err error) {
	a.recoveryDone = true
	if err != nil {
		a.recoveryErr = fmt.Errorf("recovery failed: %w", err)
		a.logger.Error("recovery failed", "error", err)
	} else {
		a.sharedReplica = owned
		a.logger.Info("recovery complete", "pid", a.rep.PID())
	}
	for _, p := range a.pending {
		if err != nil {
			p.Fail(a.recoveryErr)
		} else {
			p.Set(a.sharedReplica)
		}
	}
	a.pending = nil
}

// WriterHandle awaits recovery completion and returns the mutable
// replica.Writer a WriterActor's Coordinator proposes against,
// mirroring the original's elect() awaiting recover() before running
// _elect (log.cpp:618) rather than failing fast on an in-flight
// recovery.
func (a *LogActor) WriterHandle(ctx context.Context) (replica.Writer, error) {
	if _, err := a.Recover().Await(ctx); err != nil {
		return nil, err
	}

	var rep replica.Writer
	var err error
	a.ask(func() {
		if a.closed {
			err = ErrClosing
			return
		}
		rep = a.rep
	})
	return rep, err
}

// Network returns the shared network handle.
func (a *LogActor) Network() network.Network { return a.net }

// Quorum returns the configured quorum size.
func (a *LogActor) Quorum() int { return a.quorum }

// AcquireRef registers one more holder of the shared replica/network,
// blocking Close until it is released.
func (a *LogActor) AcquireRef() { a.refs.Add(1) }

// ReleaseRef releases a reference registered with AcquireRef.
func (a *LogActor) ReleaseRef() { a.refs.Done() }

func (a *LogActor) maintainMembership() {
	identity := a.rep.PID()
	self, err := a.group.Join(a.ctx, identity)
	if err != nil {
		a.fatal(fmt.Errorf("group join failed: %w", err))
		return
	}
	prior := []network.Membership{self}
	for {
		members, err := a.group.Watch(a.ctx, prior)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			a.fatal(fmt.Errorf("group watch failed: %w", err))
			return
		}

		found := false
		for _, m := range members {
			if m.ID == self.ID {
				found = true
				break
			}
		}
		if !found {
			self, err = a.group.Join(a.ctx, identity)
			if err != nil {
				a.fatal(fmt.Errorf("group rejoin failed: %w", err))
				return
			}
			members = append(members, self)
		}
		prior = members
	}
}

// fatal aborts the actor the way the design's §4.1 "Fatal" kind
// requires: membership-service failure can't be recovered from, so
// every pending and future gated operation fails the same way closing
// would, tagged with the triggering error.
func (a *LogActor) fatal(err error) {
	a.logger.Error("log actor aborting", "error", err)
	a.ask(func() {
		if a.closed {
			return
		}
		a.closed = true
		if !a.recoveryDone {
			a.recoveryDone = true
			a.recoveryErr = err
		}
		for _, p := range a.pending {
			p.Fail(err)
		}
		a.pending = nil
	})
}

// Close discards any in-flight recovery interest, fails every pending
// recovery promise, drops the membership handle, and blocks until
// every Reader/WriterActor that was handed the shared replica/network
// has released it — only then is it safe to drop the replica and
// network handles.
func (a *LogActor) Close() {
	a.ask(func() {
		if a.closed {
			return
		}
		a.closed = true
		a.cancel()
		for _, p := range a.pending {
			p.Fail(ErrClosing)
		}
		a.pending = nil
	})

	a.refs.Wait()

	a.logger.Info("log closed", "pid", a.rep.PID())
}
