package journal

import "errors"

// Sentinel errors surfaced by the codec and directory manager. Checker
// classification turns most of these into a Category rather than
// propagating them, but the transaction engine sees them directly.
var (
	// ErrBadMagic means the record does not start with the journal magic
	// number; it belongs to something else or is garbage.
	ErrBadMagic = errors.New("journal: bad magic")

	// ErrVersionMismatch means the record's version field is not one
	// this codec understands.
	ErrVersionMismatch = errors.New("journal: unsupported record version")

	// ErrTruncated means the record file is shorter than its header or
	// descriptor block declares.
	ErrTruncated = errors.New("journal: truncated record")

	// ErrChecksumMismatch means the record parses but its trailing
	// checksum does not match the computed one.
	ErrChecksumMismatch = errors.New("journal: checksum mismatch")

	// ErrSizeMismatch means the record's declared total length does not
	// match the sum of its descriptor lengths or the file's actual size.
	ErrSizeMismatch = errors.New("journal: size mismatch")

	// ErrDirectoryBusy is returned by Move when another handle appears to
	// hold the directory lock.
	ErrDirectoryBusy = errors.New("journal: directory busy")

	// ErrNoJournal is returned when a journal directory does not exist
	// where one was expected (e.g. checker invocation).
	ErrNoJournal = errors.New("journal: no journal directory")
)
