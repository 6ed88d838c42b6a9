package gocuckoo

import "errors"

// Errors
var (
	ErrPathLimit      = errors.New("maximum path length exceeded")
	ErrBadEasiness    = errors.New("easiness outside node space")
	ErrTooLong        = errors.New("property field too long")
	ErrBufferTooSmall = errors.New("buffer too small")
	ErrNotIdle        = errors.New("dispatcher not idle")
	ErrNotStopped     = errors.New("dispatcher has not stopped")
	ErrLedgerReadOnly = errors.New("ledger is read-only")
	ErrBadProofRecord = errors.New("bad proof record")
)
