package jio

import (
	"fmt"
	"io"

	"github.com/aasselin/libjio/internal/journal"
)

// Pread reads len(buf) bytes at offset directly from the data file. Reads
// never go through a transaction: they observe whatever is currently on
// disk, which is always a state reachable from some prefix of committed
// transactions.
func (h *Handle) Pread(buf []byte, offset int64) (int, error) {
	if err := h.closedErr(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, ErrInvalidOffset
	}
	n, err := h.file.ReadAt(buf, offset)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

// Pwrite writes buf at offset as a single-operation transaction and
// returns the number of bytes committed.
func (h *Handle) Pwrite(buf []byte, offset int64) (int, error) {
	t := h.NewTransaction(0)
	if err := t.Add(buf, offset); err != nil {
		return 0, err
	}
	return t.Commit()
}

// Preadv reads into each buffer in bufs from sequential offsets starting
// at offset, as plain direct reads (not a transaction).
func (h *Handle) Preadv(bufs [][]byte, offset int64) (int, error) {
	if err := h.closedErr(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, ErrInvalidOffset
	}
	total := 0
	cur := offset
	for _, buf := range bufs {
		n, err := h.file.ReadAt(buf, cur)
		total += n
		cur += int64(n)
		if err != nil && err != io.EOF {
			return total, err
		}
		if err == io.EOF {
			break
		}
	}
	return total, nil
}

// Pwritev writes every buffer in bufs at sequential offsets starting at
// offset as a single transaction, so the whole vector is committed
// atomically.
func (h *Handle) Pwritev(bufs [][]byte, offset int64) (int, error) {
	t := h.NewTransaction(0)
	cur := offset
	for _, buf := range bufs {
		if len(buf) == 0 {
			continue
		}
		if err := t.Add(buf, cur); err != nil {
			return 0, err
		}
		cur += int64(len(buf))
	}
	return t.Commit()
}

// Seek implements lseek(2) semantics for the handle's stream offset.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, ErrHandleClosed
	}

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = h.offset
	case io.SeekEnd:
		info, err := h.file.Stat()
		if err != nil {
			return 0, err
		}
		base = info.Size()
	default:
		return 0, fmt.Errorf("jio: invalid whence %d", whence)
	}

	newOffset := base + offset
	if newOffset < 0 {
		return 0, ErrInvalidOffset
	}
	h.offset = newOffset
	return newOffset, nil
}

// Tell returns the handle's current stream offset.
func (h *Handle) Tell() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.offset
}

// Truncate extends or shortens the data file to size. The file-level
// change itself is applied via a single exclusive range lock covering
// the bytes between the old and new sizes, making the resize atomic
// with respect to concurrent commits. When shrinking and rollback capture
// is requested, the truncated tail is read back and returned so the
// caller can retain it for a manual undo; a dedicated on-disk truncate
// record is out of scope for this façade (§6 describes it only at the
// interface boundary).
func (h *Handle) Truncate(size int64, captureUndo bool) (tail []byte, err error) {
	if err := h.closedErr(); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, ErrInvalidOffset
	}
	if h.flags.Has(RDONLY) {
		return nil, ErrReadOnly
	}

	info, err := h.file.Stat()
	if err != nil {
		return nil, err
	}
	oldSize := info.Size()

	lo, hi := size, oldSize
	if oldSize < size {
		lo, hi = oldSize, size
	}
	r := journal.Range{Offset: lo, Length: hi - lo}

	if !h.flags.Has(NOLOCK) {
		if err := h.rangeLock.Acquire(r); err != nil {
			return nil, err
		}
		defer h.rangeLock.Release(r)
	}

	if captureUndo && size < oldSize {
		tail = make([]byte, oldSize-size)
		if _, err := h.file.ReadAt(tail, size); err != nil {
			return nil, fmt.Errorf("jio: capture truncate tail: %w", err)
		}
	}

	if err := h.file.Truncate(size); err != nil {
		return nil, fmt.Errorf("jio: truncate: %w", err)
	}
	if err := h.file.Sync(); err != nil {
		return nil, fmt.Errorf("jio: truncate sync: %w", err)
	}

	return tail, nil
}

