// Package rlog is the client-facing façade over a Paxos-replicated
// append-only log: Log owns recovery and cluster membership, Reader
// and Writer are per-handle wrappers that gate on recovery and
// serialize writes through an elected Coordinator respectively.
package rlog

import (
	"github.com/hashicorp/go-hclog"

	"github.com/chn0318/paxoslog/network"
	"github.com/chn0318/paxoslog/replica"
)

// Log is created by Open and lives until Close. It owns the local
// replica and network handles; Reader and Writer handles opened
// against it share its recovery.
type Log struct {
	actor  *LogActor
	logger hclog.Logger
}

// Options configures Open. Group may be nil, in which case the
// LogActor skips membership maintenance entirely (a purely local,
// unregistered replica).
type Options struct {
	Quorum  int
	Replica replica.Writer
	Network network.Network
	Group   network.Group
	Logger  hclog.Logger
}

// Open constructs a Log and immediately starts recovering the given
// replica against quorum over network. It never blocks: recovery
// happens in the background and is awaited lazily by the first
// Reader/Writer operation, same as LogActor.Recover's idempotent
// future.
func Open(opts Options) *Log {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	actor := newLogActor(opts.Quorum, opts.Replica, opts.Network, opts.Group, logger)
	actor.Recover()
	return &Log{actor: actor, logger: logger}
}

// Close discards in-flight recovery interest, fails pending gated
// operations with "log is closing", and blocks until every
// Reader/Writer opened against this Log has been closed, so the
// replica and network handles can be torn down without racing
// in-flight use.
func (l *Log) Close() {
	l.actor.Close()
}

