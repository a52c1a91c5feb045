package coordinator

import "errors"

var (
	// ErrNotElected is returned by Append/Truncate when called before
	// a successful Elect, or after a failed proposal has cleared the
	// elected state.
	ErrNotElected = errors.New("coordinator: not elected")
	// ErrQuorumLost is returned when fewer than quorum peers accept a
	// proposal; the caller (WriterActor) must poison itself and
	// re-elect before proposing again.
	ErrQuorumLost = errors.New("coordinator: failed to reach quorum on proposal")
)
