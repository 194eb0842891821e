// Package jiostream provides a buffered-stream façade over a journaled
// file handle, mirroring the read/write/seek/tell vocabulary of a
// standard C stdio stream layered on jio.Handle instead of a raw fd.
package jiostream

import (
	"fmt"
	"io"
	"os"

	"github.com/aasselin/libjio/internal/logger"
	"github.com/aasselin/libjio/jio"
)

// Stream is a sequential cursor over a journaled data file. Unlike
// jio.Handle's Pread/Pwrite, which take an explicit offset, Stream tracks
// its own position and advances it on every Read or Write, the way a
// buffered stdio FILE* would.
type Stream struct {
	h       *jio.Handle
	pos     int64
	eof     bool
	lastErr error
}

// Open opens path with jio.Handle under a stdio-flavoured mode string:
//
//	"r"  - read only, file must exist
//	"r+" - read/write, file must exist
//	"w"  - write only, truncate or create
//	"w+" - read/write, truncate or create
//	"a"  - write only, append, create if missing
//	"a+" - read/write, append, create if missing
//
// The write-only modes commit without undo images, since their handle
// cannot read the file back. The append modes position the stream at end
// of file when it is opened.
func Open(path string, mode string) (*Stream, error) {
	var osFlags int
	var jflags jio.Flags

	switch mode {
	case "r":
		osFlags = os.O_RDONLY
		jflags = jio.RDONLY
	case "r+":
		osFlags = os.O_RDWR
	case "w":
		osFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		jflags = jio.NOROLLBACK
	case "w+":
		osFlags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case "a":
		osFlags = os.O_WRONLY | os.O_CREATE
		jflags = jio.NOROLLBACK
	case "a+":
		osFlags = os.O_RDWR | os.O_CREATE
	default:
		return nil, fmt.Errorf("jiostream: invalid mode %q", mode)
	}

	h, err := jio.Open(path, osFlags, 0600, jflags)
	if err != nil {
		return nil, err
	}

	s := &Stream{h: h}
	if mode == "a" || mode == "a+" {
		if _, err := s.Seek(0, io.SeekEnd); err != nil {
			h.Close()
			return nil, err
		}
	}

	logger.Debug("stream opened", logger.KeyDataFile, path, "mode", mode)
	return s, nil
}

// Raw returns the underlying journaled handle, for callers that need
// Transaction-level control (batched multi-operation commits, explicit
// rollback) the stream API doesn't expose.
func (s *Stream) Raw() *jio.Handle {
	return s.h
}

// Read fills buf starting at the stream's current position, as a single
// unjournaled read, and advances the position by the number of bytes
// read. On a short read (end of file) it sets the stream's EOF flag and
// returns the bytes read together with io.EOF.
func (s *Stream) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := s.h.Pread(buf, s.pos)
	s.pos += int64(n)
	if n < len(buf) {
		s.eof = true
		if err == nil {
			err = io.EOF
		}
	}
	if err != nil && err != io.EOF {
		s.lastErr = err
	}
	return n, err
}

// ReadN reads exactly count elements of size elemSize, returning the
// number of whole elements read, mirroring fread's short-read-on-EOF
// semantics.
func (s *Stream) ReadN(buf []byte, elemSize, count int) (int, error) {
	want := elemSize * count
	if want > len(buf) {
		return 0, fmt.Errorf("jiostream: buffer too small for %d elements of size %d", count, elemSize)
	}
	n, err := s.Read(buf[:want])
	elems := n / elemSize
	if err == io.EOF && elems > 0 {
		err = nil
	}
	return elems, err
}

// Write commits buf at the stream's current position as a single-
// operation transaction and advances the position by the number of
// bytes committed.
func (s *Stream) Write(buf []byte) (int, error) {
	n, err := s.h.Pwrite(buf, s.pos)
	s.pos += int64(n)
	if err != nil {
		s.lastErr = err
	}
	return n, err
}

// WriteN writes exactly count elements of size elemSize from buf.
func (s *Stream) WriteN(buf []byte, elemSize, count int) (int, error) {
	want := elemSize * count
	if want > len(buf) {
		return 0, fmt.Errorf("jiostream: buffer too small for %d elements of size %d", count, elemSize)
	}
	n, err := s.Write(buf[:want])
	return n / elemSize, err
}

// Eof reports whether the stream's end-of-file flag is set; it is only
// ever set by a short Read, never by Write.
func (s *Stream) Eof() bool {
	return s.eof
}

// Error returns the last error recorded by Read or Write, or nil.
func (s *Stream) Error() error {
	return s.lastErr
}

// ClearErr clears both the EOF flag and the last recorded error, the way
// clearerr(3) does.
func (s *Stream) ClearErr() {
	s.eof = false
	s.lastErr = nil
}

// Tell returns the stream's current position.
func (s *Stream) Tell() int64 {
	return s.pos
}

// Seek repositions the stream per io.Seeker's whence values and clears
// the EOF flag.
func (s *Stream) Seek(offset int64, whence int) error {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = s.pos
	case io.SeekEnd:
		n, err := s.h.Seek(0, io.SeekEnd)
		if err != nil {
			return err
		}
		base = n
	default:
		return fmt.Errorf("jiostream: invalid whence %d", whence)
	}

	newPos := base + offset
	if newPos < 0 {
		return fmt.Errorf("jiostream: negative seek position")
	}
	s.pos = newPos
	s.eof = false
	return nil
}

// Rewind resets the stream's position to the start of the file and
// clears its error state, the way rewind(3) does.
func (s *Stream) Rewind() {
	s.pos = 0
	s.eof = false
	s.lastErr = nil
}

// Close closes the underlying handle.
func (s *Stream) Close() error {
	return s.h.Close()
}
