package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on spans across the transaction engine and checker.
const (
	AttrDataFile   = "jio.data_file"
	AttrJournalDir = "jio.journal_dir"
	AttrTransID    = "jio.trans_id"
	AttrOpCount    = "jio.op_count"
	AttrTotalLen   = "jio.total_len"
	AttrFlags      = "jio.flags"
	AttrLinger     = "jio.linger"
	AttrNoLock     = "jio.nolock"
	AttrNoRollback = "jio.norollback"
	AttrCategory   = "jio.checker.category"
	AttrReapplied  = "jio.checker.reapplied"
)

// Span names for the core operations.
const (
	SpanCommit    = "jio.commit"
	SpanRollback  = "jio.rollback"
	SpanCheckRun  = "jfsck.check"
	SpanCheckFile = "jfsck.check_record"
	SpanCleanup   = "jfsck.cleanup"
)

// DataFile returns an attribute for the journaled data file path.
func DataFile(path string) attribute.KeyValue {
	return attribute.String(AttrDataFile, path)
}

// JournalDir returns an attribute for the journal directory path.
func JournalDir(path string) attribute.KeyValue {
	return attribute.String(AttrJournalDir, path)
}

// TransID returns an attribute for a transaction id.
func TransID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrTransID, int64(id))
}

// OpCount returns an attribute for the number of operations in a transaction.
func OpCount(n int) attribute.KeyValue {
	return attribute.Int(AttrOpCount, n)
}

// TotalLen returns an attribute for the total payload length of a transaction.
func TotalLen(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrTotalLen, int64(n))
}

// Linger returns an attribute reporting whether LINGER is set.
func Linger(v bool) attribute.KeyValue {
	return attribute.Bool(AttrLinger, v)
}

// NoLock returns an attribute reporting whether NOLOCK is set.
func NoLock(v bool) attribute.KeyValue {
	return attribute.Bool(AttrNoLock, v)
}

// Category returns an attribute for a checker record classification.
func Category(cat string) attribute.KeyValue {
	return attribute.String(AttrCategory, cat)
}

// StartCommitSpan starts a span covering one transaction commit.
func StartCommitSpan(ctx context.Context, dataFile string, transID uint64, opCount int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{DataFile(dataFile), TransID(transID), OpCount(opCount)}, attrs...)
	return StartSpan(ctx, SpanCommit, trace.WithAttributes(allAttrs...))
}

// StartRollbackSpan starts a span covering a rollback of a previously
// committed transaction.
func StartRollbackSpan(ctx context.Context, dataFile string, transID uint64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{DataFile(dataFile), TransID(transID)}, attrs...)
	return StartSpan(ctx, SpanRollback, trace.WithAttributes(allAttrs...))
}

// StartCheckSpan starts the root span for a full jfsck run over a data file.
func StartCheckSpan(ctx context.Context, dataFile, journalDir string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCheckRun, trace.WithAttributes(DataFile(dataFile), JournalDir(journalDir)))
}

// StartCheckRecordSpan starts a span for classifying and (if needed)
// reapplying a single journal record during a checker run.
func StartCheckRecordSpan(ctx context.Context, transID uint64) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCheckFile, trace.WithAttributes(TransID(transID)))
}
