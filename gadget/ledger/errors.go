package ledger

import "errors"

var (
	// ErrUnknownChain is returned for operations on a chain the ledger does not track.
	ErrUnknownChain = errors.New("unknown chain")
	// ErrUnknownOperation is returned when replaying an operation of unknown kind.
	ErrUnknownOperation = errors.New("unknown operation kind")
	// ErrJournal is returned when an applied operation could not be journaled.
	ErrJournal = errors.New("could not journal operation")
)
