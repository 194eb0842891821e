package jio

import (
	"errors"
	"fmt"
)

// Sentinel errors for ordinary (atomic) failures: the transaction never
// took effect and the data file is untouched.
var (
	// ErrReadOnly is returned when a write-shaped call is made on a
	// handle opened read-only.
	ErrReadOnly = errors.New("jio: handle is read-only")

	// ErrInvalidOffset is returned for a negative operation offset.
	ErrInvalidOffset = errors.New("jio: invalid offset")

	// ErrInvalidBuffer is returned for a nil or empty buffer where one is
	// required.
	ErrInvalidBuffer = errors.New("jio: invalid buffer")

	// ErrEmptyTransaction is returned by Commit on a transaction with no
	// operations.
	ErrEmptyTransaction = errors.New("jio: transaction has no operations")

	// ErrNoRollbackInfo is returned by Rollback when the transaction was
	// committed with NOROLLBACK set.
	ErrNoRollbackInfo = errors.New("jio: transaction has no rollback information")

	// ErrAlreadyFinalized is returned by Commit or Rollback on a
	// transaction that has already been committed or rolled back.
	ErrAlreadyFinalized = errors.New("jio: transaction already finalized")

	// ErrAutosyncRunning is returned by StartAutosync when a worker is
	// already active for the handle.
	ErrAutosyncRunning = errors.New("jio: autosync already running")

	// ErrHandleClosed is returned by any operation on a closed handle.
	ErrHandleClosed = errors.New("jio: handle is closed")

	// ErrMoveInUse is returned by MoveJournal when another handle's
	// activity on the same journal directory is detectable.
	ErrMoveInUse = errors.New("jio: journal directory busy, cannot move")
)

// SevereError reports that a transaction's commit mark was made durable
// but the apply step failed or did not complete. Atomicity with respect
// to durable state is broken at runtime: the data file is in an
// intermediate state between "none of T applied" and "all of T applied".
// The committed record is still on disk, so a checker run can complete
// the transaction; the caller should not retry the transaction itself.
type SevereError struct {
	TransID uint64
	Applied int // number of operations successfully applied before the failure
	Total   int
	Err     error
}

func (e *SevereError) Error() string {
	return fmt.Sprintf("jio: severe failure in transaction %d: applied %d/%d operations before error: %v",
		e.TransID, e.Applied, e.Total, e.Err)
}

func (e *SevereError) Unwrap() error {
	return e.Err
}

// IsSevere reports whether err represents a severe (as opposed to atomic)
// failure.
func IsSevere(err error) bool {
	var se *SevereError
	return errors.As(err, &se)
}
