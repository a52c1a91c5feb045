package rlog

import "errors"

// Sentinel errors for the error kinds in the design's error handling
// section. TransientInfrastructure and Fatal don't get one fixed
// sentinel each since they carry a collaborator-specific message:
// Fatal errors are wrapped with fmt.Errorf at the point of translation,
// and TransientInfrastructure errors are passed on as the coordinator
// returned them.
var (
	// ErrBadRange is returned by Read when the requested range crosses
	// a position that is missing or not yet learned.
	ErrBadRange = errors.New("bad read range")
	// ErrNoElection is returned by append/truncate when no election has
	// been performed yet on this writer.
	ErrNoElection = errors.New("no election has been performed")
	// ErrClosing is returned to any gated operation in flight when its
	// owning Log/Reader/Writer is being closed.
	ErrClosing = errors.New("log is closing")
	// ErrReaderClosing is ErrClosing's reader-specific wording.
	ErrReaderClosing = errors.New("reader is closing")
	// ErrWriterClosing is ErrClosing's writer-specific wording.
	ErrWriterClosing = errors.New("writer is closing")
	// ErrTimeout is surfaced by the client facade as the "none"
	// sentinel's underlying reason when Result.Value() is unwrapped.
	ErrTimeout = errors.New("timed out")
)
