package replica

import "errors"

var (
	// ErrNotPerformed is returned by Learn when no decision has been
	// recorded yet for the given position.
	ErrNotPerformed = errors.New("replica: position has not been performed")
	// ErrUnreachable is returned by a remote-backed replica when the
	// underlying transport cannot be reached.
	ErrUnreachable = errors.New("replica: backend unreachable")
	// ErrNoTailQuery is returned by Ending when a backend has no way to
	// observe the log's current tail without mutating it.
	ErrNoTailQuery = errors.New("replica: backend exposes no read-only tail query")
)
