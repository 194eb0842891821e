package logger

// Standard field keys for structured logging across the journal engine.
// Use these keys consistently so log lines can be grep'd/aggregated
// across the core, the autosync worker, and jfsck.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// File / journal identity
	KeyDataFile   = "data_file"
	KeyJournalDir = "journal_dir"
	KeyTransID    = "trans_id"

	// Transaction shape
	KeyOpCount    = "op_count"
	KeyTotalLen   = "total_len"
	KeyFlags      = "flags"
	KeyOffset     = "offset"
	KeyLength     = "length"
	KeyLinger     = "linger"
	KeyNoLock     = "nolock"
	KeyNoRollback = "norollback"

	// Checker / recovery
	KeyCategory  = "category"
	KeyReapplied = "reapplied"
	KeyRemoved   = "removed"

	// Generic outcome
	KeyDuration = "duration_ms"
	KeyError    = "error"
)
