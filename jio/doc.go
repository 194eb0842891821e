// Package jio provides journaled I/O for regular files.
//
// A Handle wraps one data file and its journal directory. Writes are
// grouped into Transactions, built with NewTransaction and Add, and
// finalized with Commit: the transaction's journal record is durably
// written and marked committed before the write ever touches the data
// file, so a crash at any point leaves the file in a state reachable from
// some prefix of committed transactions. A successfully committed
// transaction that captured rollback information can be undone with
// Rollback.
//
// Pread/Pwrite/Preadv/Pwritev/Seek/Truncate offer a thin POSIX-flavoured
// façade over Handle for callers that would rather not build
// Transactions directly; package jiostream offers a buffered-stream
// façade over the same Handle.
//
// github.com/aasselin/libjio/internal/checker implements jfsck, the
// offline recovery tool that reconciles a data file with its journal
// after a crash.
package jio
