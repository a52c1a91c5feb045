package recovery

import "errors"

var (
	// ErrNoQuorum is returned when fewer than quorum peers (including
	// self) answered the boundary query.
	ErrNoQuorum = errors.New("recovery: failed to reach a quorum of replicas")
	// ErrIncompletePrefix is returned when the target range includes a
	// position no reachable peer could supply a learned action for.
	ErrIncompletePrefix = errors.New("recovery: could not fill the learned prefix from any reachable peer")
)
