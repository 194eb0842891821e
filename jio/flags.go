// Package jio provides journaled I/O for regular files: atomic, durable,
// recoverable transactions layered over ordinary file-system I/O.
package jio

import "github.com/aasselin/libjio/internal/journal"

// Flags is the bitset shared between this API and the on-disk record
// format. Only COMMITTED, ROLLBACKED and ROLLBACKING are ever persisted;
// the rest (NOLOCK, NOROLLBACK, LINGER, RDONLY) modify runtime behaviour
// only.
type Flags = journal.Flags

const (
	// NOLOCK suppresses range-lock acquisition and release on commit and
	// rollback; the caller asserts external serialization.
	NOLOCK = journal.NOLOCK
	// NOROLLBACK skips undo-image capture; the committed transaction
	// cannot later be rolled back.
	NOROLLBACK = journal.NOROLLBACK
	// LINGER defers data-file apply until Sync or an autosync tick.
	LINGER = journal.LINGER
	// COMMITTED is the on-disk commit mark.
	COMMITTED = journal.COMMITTED
	// ROLLBACKED marks a record as the undo of a previously committed
	// transaction.
	ROLLBACKED = journal.ROLLBACKED
	// ROLLBACKING marks a transaction mid-rollback.
	ROLLBACKING = journal.ROLLBACKING
	// RDONLY marks a handle or transaction read-only.
	RDONLY = journal.RDONLY
)
