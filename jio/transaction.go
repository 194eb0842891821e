package jio

import (
	"context"
	"fmt"
	"io"

	"github.com/aasselin/libjio/internal/journal"
	"github.com/aasselin/libjio/internal/logger"
	"github.com/aasselin/libjio/internal/metrics"
	"github.com/aasselin/libjio/internal/telemetry"
)

// State is a transaction's position in its commit life cycle.
type State int

const (
	StateBuilding State = iota
	StateLocked
	StateBodyWritten
	StateCommitted
	StateApplied
	StateRetired
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateLocked:
		return "locked"
	case StateBodyWritten:
		return "body-written"
	case StateCommitted:
		return "committed"
	case StateApplied:
		return "applied"
	case StateRetired:
		return "retired"
	case StateRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// Transaction is an ordered group of write operations committed
// atomically against one Handle's data file. Created empty by
// Handle.NewTransaction, populated by Add, and finalized by Commit or
// Rollback.
type Transaction struct {
	h     *Handle
	ops   []Operation
	flags Flags
	id    uint64
	state State
	undo  [][]byte
}

// Flags returns the transaction's flag bits.
func (t *Transaction) Flags() Flags {
	return t.flags
}

// ID returns the transaction's assigned id. It is zero until Commit has
// allocated one.
func (t *Transaction) ID() uint64 {
	return t.id
}

// State returns the transaction's current life-cycle state.
func (t *Transaction) State() State {
	return t.state
}

// Add appends an operation to the transaction. Operations may overlap;
// within one transaction a later operation logically overwrites earlier
// overlap on apply. Add fails once the transaction has been finalized.
func (t *Transaction) Add(buf []byte, offset int64) error {
	if t.state != StateBuilding {
		return ErrAlreadyFinalized
	}
	if offset < 0 {
		return ErrInvalidOffset
	}
	if len(buf) == 0 {
		return ErrInvalidBuffer
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	t.ops = append(t.ops, Operation{Buf: cp, Offset: offset})
	return nil
}

// descriptors builds the on-disk descriptor list matching t.ops, in
// insertion order.
func (t *Transaction) descriptors() []journal.Descriptor {
	descs := make([]journal.Descriptor, len(t.ops))
	for i, op := range t.ops {
		descs[i] = journal.Descriptor{Off: op.Offset, Len: uint32(op.Len())}
	}
	return descs
}

func (t *Transaction) totalLen() int {
	var n int
	for _, op := range t.ops {
		n += op.Len()
	}
	return n
}

// Commit executes the commit protocol: allocate an id, acquire the range
// lock (unless NOLOCK), capture undo images (unless NOROLLBACK or
// RDONLY), durably write the journal record, mark it committed, apply the
// operations (or defer them under LINGER), release the range lock, and
// retire the record. It returns the total bytes written on success.
//
// If the error occurs at or before the commit mark is durable, the
// transaction never took effect and a plain error is returned. If it
// occurs after the commit mark but during apply, a *SevereError is
// returned: the data file is in an intermediate state but a checker run
// can complete the transaction because the committed record is on disk.
func (t *Transaction) Commit() (int, error) {
	return t.commit(context.Background())
}

// CommitContext is like Commit but threads ctx through logging and
// tracing only; there is no cancellation of an in-flight commit (§5: no
// cancellation API).
func (t *Transaction) CommitContext(ctx context.Context) (int, error) {
	return t.commit(ctx)
}

func (t *Transaction) commit(ctx context.Context) (int, error) {
	if err := t.h.closedErr(); err != nil {
		return 0, err
	}
	if t.state != StateBuilding {
		return 0, ErrAlreadyFinalized
	}
	if len(t.ops) == 0 {
		return 0, ErrEmptyTransaction
	}
	if t.h.flags.Has(RDONLY) || t.flags.Has(RDONLY) {
		return 0, ErrReadOnly
	}

	h := t.h
	total := t.totalLen()

	ctx, span := telemetry.StartCommitSpan(ctx, h.dataPath, 0, len(t.ops),
		telemetry.TotalLen(uint64(total)), telemetry.Linger(t.flags.Has(LINGER)), telemetry.NoLock(t.flags.Has(NOLOCK)))
	defer span.End()

	// Step 1: id allocation, under the handle mutex.
	h.mu.Lock()
	id, err := h.journalDir.NextID()
	h.mu.Unlock()
	if err != nil {
		telemetry.RecordError(ctx, err)
		metrics.ObserveCommitOutcome("atomic_failure")
		return 0, fmt.Errorf("jio: allocate transaction id: %w", err)
	}
	t.id = id
	telemetry.SetAttributes(ctx, telemetry.TransID(id))
	lc := logger.NewLogContext(h.dataPath).WithTransaction(id)
	logger.DebugCtx(logger.WithContext(ctx, lc), "commit starting", logger.KeyOpCount, len(t.ops), logger.KeyTotalLen, total)

	// Step 2: range lock.
	r := journal.UnionRange(t.descriptors())
	if !t.flags.Has(NOLOCK) {
		if err := h.rangeLock.Acquire(r); err != nil {
			telemetry.RecordError(ctx, err)
			metrics.ObserveCommitOutcome("atomic_failure")
			return 0, fmt.Errorf("jio: acquire range lock: %w", err)
		}
	}
	t.state = StateLocked
	releaseLock := func() {
		if !t.flags.Has(NOLOCK) {
			h.rangeLock.Release(r)
		}
	}

	// Step 3: capture undo images. Bytes past the current end of file are
	// captured as zeros.
	var undo [][]byte
	if !t.flags.Has(NOROLLBACK) && !t.flags.Has(RDONLY) {
		undo = make([][]byte, len(t.ops))
		for i, op := range t.ops {
			buf := make([]byte, op.Len())
			if _, err := h.file.ReadAt(buf, op.Offset); err != nil && err != io.EOF {
				releaseLock()
				telemetry.RecordError(ctx, err)
				metrics.ObserveCommitOutcome("atomic_failure")
				return 0, fmt.Errorf("jio: capture undo image: %w", err)
			}
			undo[i] = buf
		}
	}
	t.undo = undo

	// Step 4: write journal record body (COMMITTED cleared).
	rec := &journal.Record{
		Version: journal.CurrentVersion,
		Flags:   t.flags,
		TransID: id,
		Descs:   t.descriptors(),
		Undo:    undo,
	}
	rec.Payloads = make([][]byte, len(t.ops))
	for i, op := range t.ops {
		rec.Payloads[i] = op.Buf
	}

	recFile, err := h.journalDir.CreateRecord(id)
	if err != nil {
		releaseLock()
		telemetry.RecordError(ctx, err)
		metrics.ObserveCommitOutcome("atomic_failure")
		return 0, fmt.Errorf("jio: create record: %w", err)
	}
	if err := journal.EncodeBody(recFile, rec); err != nil {
		recFile.Close()
		releaseLock()
		telemetry.RecordError(ctx, err)
		metrics.ObserveCommitOutcome("atomic_failure")
		return 0, fmt.Errorf("jio: write record body: %w", err)
	}
	t.state = StateBodyWritten

	// Step 5: mark committed. This is the point of no return.
	if err := journal.MarkCommitted(recFile); err != nil {
		recFile.Close()
		releaseLock()
		telemetry.RecordError(ctx, err)
		metrics.ObserveCommitOutcome("atomic_failure")
		return 0, fmt.Errorf("jio: mark committed: %w", err)
	}
	t.state = StateCommitted
	logger.DebugCtx(logger.WithContext(ctx, lc), "commit mark durable")

	// Step 6: apply.
	if t.flags.Has(LINGER) {
		recFile.Close()
		h.enqueueLinger(id, t.ops)
		releaseLock()
		t.state = StateRetired
		metrics.ObserveCommitOutcome("success")
		return total, nil
	}

	applied := 0
	for _, op := range t.ops {
		if _, err := h.file.WriteAt(op.Buf, op.Offset); err != nil {
			recFile.Close()
			releaseLock()
			telemetry.RecordError(ctx, err)
			metrics.ObserveCommitOutcome("severe")
			return applied, &SevereError{TransID: id, Applied: applied, Total: len(t.ops), Err: err}
		}
		applied++
	}
	if err := h.file.Sync(); err != nil {
		recFile.Close()
		releaseLock()
		telemetry.RecordError(ctx, err)
		metrics.ObserveCommitOutcome("severe")
		return applied, &SevereError{TransID: id, Applied: applied, Total: len(t.ops), Err: err}
	}
	t.state = StateApplied

	// Step 7: release range lock.
	releaseLock()

	// Step 8: retire record.
	recFile.Close()
	if err := h.journalDir.RemoveRecord(id); err != nil {
		logger.WarnCtx(logger.WithContext(ctx, lc), "failed to retire record", logger.KeyError, err.Error())
	}
	t.state = StateRetired
	metrics.ObserveCommitOutcome("success")

	return total, nil
}

// Rollback undoes a previously committed transaction by committing a new
// transaction whose operations are T's undo images applied in reverse
// order, with ROLLBACKED set in its header flags. It requires that T was
// committed with rollback information captured (NOROLLBACK not set).
func (t *Transaction) Rollback() (int, error) {
	return t.rollback(context.Background())
}

func (t *Transaction) rollback(ctx context.Context) (int, error) {
	if t.state != StateApplied && t.state != StateRetired {
		return 0, fmt.Errorf("jio: cannot roll back transaction in state %s", t.state)
	}
	if t.undo == nil {
		return 0, ErrNoRollbackInfo
	}

	t.flags |= ROLLBACKING

	ctx, span := telemetry.StartRollbackSpan(ctx, t.h.dataPath, t.id)
	defer span.End()

	undone := t.h.NewTransaction(t.flags&^ROLLBACKING | ROLLBACKED)
	for i := len(t.ops) - 1; i >= 0; i-- {
		if err := undone.Add(t.undo[i], t.ops[i].Offset); err != nil {
			return 0, fmt.Errorf("jio: build rollback transaction: %w", err)
		}
	}

	n, err := undone.commit(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return n, err
	}

	t.flags |= ROLLBACKED
	t.state = StateRolledBack
	return n, nil
}
