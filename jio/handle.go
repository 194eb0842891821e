package jio

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/aasselin/libjio/internal/autosync"
	"github.com/aasselin/libjio/internal/journal"
	"github.com/aasselin/libjio/internal/logger"
)

// lingerEntry is one committed-but-not-yet-applied transaction under
// LINGER mode. The committed record on disk is itself the durable queue
// entry; this struct is the in-memory shortcut so Sync doesn't need to
// re-decode the record.
type lingerEntry struct {
	id  uint64
	ops []Operation
}

// Handle represents one open data file. Exactly one autosync worker may
// be active at a time; while the handle is alive its journal directory
// exists and contains only well-formed records or in-progress
// transactions originated by this handle.
type Handle struct {
	mu sync.Mutex // protects offset and id-allocation bookkeeping

	file       *os.File
	dataPath   string
	journalDir *journal.Directory
	rangeLock  *journal.RangeLock
	flags      Flags
	offset     int64
	closed     bool

	lingerMu    sync.Mutex
	lingerQueue []lingerEntry
	lingerBytes uint64

	autosyncMu  sync.Mutex
	autosyncRun *autosync.Worker
}

// Open opens (creating if necessary) the data file at path and its
// journal directory, ready to build and commit transactions. osFlags are
// passed through to os.OpenFile; jflags are the session-only flags
// (NOLOCK, NOROLLBACK, LINGER, RDONLY) applied as defaults to
// transactions built from this handle.
func Open(path string, osFlags int, mode os.FileMode, jflags Flags) (*Handle, error) {
	if jflags.Has(RDONLY) {
		osFlags = os.O_RDONLY
	} else if osFlags&os.O_RDONLY == 0 && osFlags&os.O_RDWR == 0 && osFlags&os.O_WRONLY == 0 {
		osFlags |= os.O_RDWR
	}
	osFlags |= os.O_CREATE

	f, err := os.OpenFile(path, osFlags, mode)
	if err != nil {
		return nil, fmt.Errorf("jio: open data file: %w", err)
	}

	dirPath := journal.DirName(path)
	dir, err := journal.Open(dirPath)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("jio: open journal directory: %w", err)
	}

	h := &Handle{
		file:       f,
		dataPath:   path,
		journalDir: dir,
		rangeLock:  journal.NewRangeLock(f),
		flags:      jflags,
	}

	logger.Debug("handle opened", logger.KeyDataFile, path, logger.KeyJournalDir, dirPath)
	return h, nil
}

// Close flushes any pending lingering writes, stops the autosync worker
// if running, and releases the underlying file and journal directory.
func (h *Handle) Close() error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil
	}

	// StopAutosync and Sync both take h.mu (via the worker's flush and
	// closedErr), so they run before Close takes it for the teardown.
	h.StopAutosync()

	if err := h.Sync(); err != nil {
		logger.Warn("handle close: sync failed", logger.KeyDataFile, h.dataPath, logger.KeyError, err.Error())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	err := h.file.Close()
	if derr := h.journalDir.Close(); err == nil {
		err = derr
	}
	return err
}

// closedErr reports ErrHandleClosed if Close has already run.
func (h *Handle) closedErr() error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrHandleClosed
	}
	return nil
}

// NewTransaction creates an empty transaction bound to this handle. flags
// are merged with the handle's own session flags (RDONLY in particular is
// inherited and cannot be cleared per-transaction). Calling it on a closed
// handle returns a Transaction whose Commit fails with ErrHandleClosed,
// since Commit (not construction) is where the failure is actionable.
func (h *Handle) NewTransaction(flags Flags) *Transaction {
	return &Transaction{
		h:     h,
		flags: flags | h.flags,
		state: StateBuilding,
	}
}

// enqueueLinger records a committed transaction's operations for later
// application and signals the autosync worker once the pending byte count
// reaches autosync.DefaultConfig().MaxBytes. The MaxBytes of the Config
// passed to StartAutosync is not consulted here.
func (h *Handle) enqueueLinger(id uint64, ops []Operation) {
	h.lingerMu.Lock()
	h.lingerQueue = append(h.lingerQueue, lingerEntry{id: id, ops: ops})
	for _, op := range ops {
		h.lingerBytes += uint64(op.Len())
	}
	bytes := h.lingerBytes
	h.lingerMu.Unlock()

	h.autosyncMu.Lock()
	worker := h.autosyncRun
	h.autosyncMu.Unlock()
	if worker != nil && bytes >= autosync.DefaultConfig().MaxBytes {
		worker.Notify()
	}
}

// PendingBytes reports the number of bytes queued by lingering
// transactions not yet applied to the data file.
func (h *Handle) PendingBytes() uint64 {
	h.lingerMu.Lock()
	defer h.lingerMu.Unlock()
	return h.lingerBytes
}

// Sync applies every queued lingering write to the data file, flushes it,
// and retires the corresponding records. For non-LINGER handles this is a
// no-op beyond flushing the data file, matching §4.6's description of the
// autosync entry point.
func (h *Handle) Sync() error {
	if err := h.closedErr(); err != nil {
		return err
	}

	h.lingerMu.Lock()
	queue := h.lingerQueue
	h.lingerQueue = nil
	h.lingerBytes = 0
	h.lingerMu.Unlock()

	for _, entry := range queue {
		for _, op := range entry.ops {
			if _, err := h.file.WriteAt(op.Buf, op.Offset); err != nil {
				return &SevereError{TransID: entry.id, Err: err}
			}
		}
	}

	if err := h.file.Sync(); err != nil {
		return err
	}

	for _, entry := range queue {
		if err := h.journalDir.RemoveRecord(entry.id); err != nil {
			logger.Warn("sync: failed to retire record", logger.KeyDataFile, h.dataPath, logger.KeyTransID, entry.id, logger.KeyError, err.Error())
		}
	}

	return nil
}

// StartAutosync launches the lingering-commit background worker. Only
// one worker may run at a time; calling this while one is active returns
// ErrAutosyncRunning.
func (h *Handle) StartAutosync(cfg autosync.Config) error {
	if err := h.closedErr(); err != nil {
		return err
	}

	h.autosyncMu.Lock()
	defer h.autosyncMu.Unlock()

	if h.autosyncRun != nil {
		return ErrAutosyncRunning
	}
	h.autosyncRun = autosync.Start(h, cfg)
	return nil
}

// StopAutosync signals the autosync worker to exit and waits for it to
// return. Safe to call when no worker is running.
func (h *Handle) StopAutosync() {
	h.autosyncMu.Lock()
	worker := h.autosyncRun
	h.autosyncRun = nil
	h.autosyncMu.Unlock()

	if worker != nil {
		worker.Stop()
	}
}

// MoveJournal atomically relocates the handle's journal directory to
// newPath. Moving while other handles are open on the same data file is
// undefined and fails where detectable.
func (h *Handle) MoveJournal(newPath string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}

	if err := h.journalDir.Move(newPath); err != nil {
		if errors.Is(err, journal.ErrDirectoryBusy) {
			return ErrMoveInUse
		}
		return fmt.Errorf("jio: move journal: %w", err)
	}
	return nil
}

// JournalDir returns the handle's current journal directory path.
func (h *Handle) JournalDir() string {
	return h.journalDir.Path()
}

// DataPath returns the handle's data file path.
func (h *Handle) DataPath() string {
	return h.dataPath
}
