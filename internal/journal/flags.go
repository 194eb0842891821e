// Package journal implements the on-disk journal directory, the record
// codec, and the byte-range lock manager that back a transaction engine.
package journal

// Flags is the bitset shared between the transaction API and the on-disk
// record header. Only COMMITTED, ROLLBACKED and ROLLBACKING are ever
// persisted; the rest modify runtime behaviour and are never written to a
// record, but share the same numeric space as the documented constants.
type Flags uint32

const (
	// NOLOCK suppresses range-lock acquisition and release; the caller
	// asserts external serialization.
	NOLOCK Flags = 1 << iota
	// NOROLLBACK skips undo-image capture; rollback is unavailable for
	// the transaction.
	NOROLLBACK
	// LINGER defers apply to the data file until jsync or autosync.
	LINGER
	// COMMITTED is the on-disk commit mark; its durability is the point
	// of no return for a transaction.
	COMMITTED
	// ROLLBACKED marks a record as the undo of a previously committed
	// transaction.
	ROLLBACKED
	// ROLLBACKING marks a transaction that is in the process of being
	// rolled back.
	ROLLBACKING
	// RDONLY marks a handle or transaction as read-only.
	RDONLY
)

// persistentMask covers the flag bits that are ever written to a record
// header. Everything else is session-only and is masked off before a
// record is encoded.
const persistentMask = COMMITTED | ROLLBACKED | ROLLBACKING

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// Persistent returns the subset of f that belongs on disk.
func (f Flags) Persistent() Flags {
	return f & persistentMask
}
