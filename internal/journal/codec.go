package journal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/aasselin/libjio/internal/bufpool"
)

// On-disk layout constants (§6 of the wire format: magic, version, flags,
// n_ops, total_len, trans_id, then descriptors, payloads, undo images,
// checksum). Every integer is little-endian.
const (
	// magicValue is the fixed constant identifying a journal record file.
	// Spells "LJIO" across the four bytes when read as little-endian.
	magicValue uint32 = 0x4F494A4C

	// CurrentVersion is the only version this codec encodes; Decode
	// accepts exactly this value.
	CurrentVersion uint32 = 1

	headerSize     = 32 // magic+version+flags+n_ops+total_len+trans_id
	descriptorSize = 12 // off int64 + len uint32
	checksumSize   = 4
)

const (
	offMagic   = 0
	offVersion = 4
	offFlags   = 8
	offNOps    = 12
	offTotal   = 16
	offTransID = 24
)

// committedBit is the single flag bit mutated in place after the record
// body is durable (§4.4 step 5). The checksum is computed with this bit
// forced to zero so that flipping it afterwards never invalidates the
// checksum already on disk.
const committedBit = uint32(COMMITTED)

// EncodeBody writes the full record body to f starting at offset 0: the
// header (with COMMITTED always cleared), descriptors, payloads, undo
// images if present, and the trailing checksum. It does not set
// COMMITTED; callers durably mark the transaction via MarkCommitted once
// this write (and its flush) is confirmed on stable storage.
func EncodeBody(f *os.File, rec *Record) error {
	if len(rec.Descs) != len(rec.Payloads) {
		return fmt.Errorf("journal: %d descriptors but %d payloads", len(rec.Descs), len(rec.Payloads))
	}
	if rec.Undo != nil && len(rec.Undo) != len(rec.Descs) {
		return fmt.Errorf("journal: %d descriptors but %d undo images", len(rec.Descs), len(rec.Undo))
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[offMagic:], magicValue)
	binary.LittleEndian.PutUint32(header[offVersion:], rec.Version)
	binary.LittleEndian.PutUint32(header[offFlags:], uint32(rec.Flags.Persistent())&^committedBit)
	binary.LittleEndian.PutUint32(header[offNOps:], uint32(len(rec.Descs)))
	binary.LittleEndian.PutUint64(header[offTotal:], rec.TotalLen())
	binary.LittleEndian.PutUint64(header[offTransID:], rec.TransID)

	crc := crc32.NewIEEE()
	crc.Write(header)

	if _, err := f.WriteAt(header, 0); err != nil {
		return fmt.Errorf("journal: write header: %w", err)
	}

	offset := int64(headerSize)
	descBuf := bufpool.Get(descriptorSize)
	defer bufpool.Put(descBuf)

	for _, d := range rec.Descs {
		binary.LittleEndian.PutUint64(descBuf[0:], uint64(d.Off))
		binary.LittleEndian.PutUint32(descBuf[8:], d.Len)
		crc.Write(descBuf)
		if _, err := f.WriteAt(descBuf, offset); err != nil {
			return fmt.Errorf("journal: write descriptor: %w", err)
		}
		offset += descriptorSize
	}

	for _, p := range rec.Payloads {
		crc.Write(p)
		if len(p) > 0 {
			if _, err := f.WriteAt(p, offset); err != nil {
				return fmt.Errorf("journal: write payload: %w", err)
			}
		}
		offset += int64(len(p))
	}

	if rec.Undo != nil {
		for _, u := range rec.Undo {
			crc.Write(u)
			if len(u) > 0 {
				if _, err := f.WriteAt(u, offset); err != nil {
					return fmt.Errorf("journal: write undo image: %w", err)
				}
			}
			offset += int64(len(u))
		}
	}

	checksum := make([]byte, checksumSize)
	binary.LittleEndian.PutUint32(checksum, crc.Sum32())
	if _, err := f.WriteAt(checksum, offset); err != nil {
		return fmt.Errorf("journal: write checksum: %w", err)
	}

	return f.Sync()
}

// MarkCommitted sets the COMMITTED bit in an already-durable record
// header and flushes the change. This is the single point of no return
// for the transaction: once this call returns successfully, the
// transaction will eventually be fully applied, whether by the committing
// process or by a later checker run.
func MarkCommitted(f *os.File) error {
	buf := make([]byte, 4)
	if _, err := f.ReadAt(buf, offFlags); err != nil {
		return fmt.Errorf("journal: read flags: %w", err)
	}
	flags := binary.LittleEndian.Uint32(buf) | committedBit
	binary.LittleEndian.PutUint32(buf, flags)
	if _, err := f.WriteAt(buf, offFlags); err != nil {
		return fmt.Errorf("journal: write commit mark: %w", err)
	}
	return f.Sync()
}

// Decode parses a record file fully, validating its magic, version,
// declared sizes, and checksum. The caller typically only needs this for
// checker runs; the committing process already knows what it wrote.
func Decode(f *os.File) (*Record, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size < headerSize {
		return nil, ErrTruncated
	}

	header := make([]byte, headerSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("journal: read header: %w", err)
	}

	magic := binary.LittleEndian.Uint32(header[offMagic:])
	if magic != magicValue {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(header[offVersion:])
	if version != CurrentVersion {
		return nil, ErrVersionMismatch
	}
	flags := Flags(binary.LittleEndian.Uint32(header[offFlags:]))
	nOps := binary.LittleEndian.Uint32(header[offNOps:])
	totalLen := binary.LittleEndian.Uint64(header[offTotal:])
	transID := binary.LittleEndian.Uint64(header[offTransID:])

	descBytes := int64(nOps) * descriptorSize
	if headerSize+descBytes > size {
		return nil, ErrTruncated
	}

	descBuf := make([]byte, descBytes)
	if descBytes > 0 {
		if _, err := f.ReadAt(descBuf, headerSize); err != nil {
			return nil, fmt.Errorf("journal: read descriptors: %w", err)
		}
	}

	descs := make([]Descriptor, nOps)
	var sumLen uint64
	for i := range descs {
		b := descBuf[i*descriptorSize:]
		descs[i].Off = int64(binary.LittleEndian.Uint64(b[0:]))
		descs[i].Len = binary.LittleEndian.Uint32(b[8:])
		sumLen += uint64(descs[i].Len)
	}
	if sumLen != totalLen {
		return nil, ErrSizeMismatch
	}

	payloadsStart := headerSize + descBytes
	withoutUndo := payloadsStart + int64(totalLen) + checksumSize
	withUndo := payloadsStart + 2*int64(totalLen) + checksumSize

	var hasUndo bool
	switch size {
	case withoutUndo:
		hasUndo = false
	case withUndo:
		hasUndo = true
	default:
		return nil, ErrSizeMismatch
	}

	payloads := make([][]byte, nOps)
	offset := payloadsStart
	for i, d := range descs {
		buf := make([]byte, d.Len)
		if d.Len > 0 {
			if _, err := f.ReadAt(buf, offset); err != nil {
				return nil, fmt.Errorf("journal: read payload: %w", err)
			}
		}
		payloads[i] = buf
		offset += int64(d.Len)
	}

	var undo [][]byte
	if hasUndo {
		undo = make([][]byte, nOps)
		for i, d := range descs {
			buf := make([]byte, d.Len)
			if d.Len > 0 {
				if _, err := f.ReadAt(buf, offset); err != nil {
					return nil, fmt.Errorf("journal: read undo image: %w", err)
				}
			}
			undo[i] = buf
			offset += int64(d.Len)
		}
	}

	checksumBuf := make([]byte, checksumSize)
	if _, err := f.ReadAt(checksumBuf, offset); err != nil {
		return nil, fmt.Errorf("journal: read checksum: %w", err)
	}
	onDisk := binary.LittleEndian.Uint32(checksumBuf)

	computed, err := recomputeChecksum(f, header, descBuf, payloads, undo)
	if err != nil {
		return nil, err
	}
	if computed != onDisk {
		return nil, ErrChecksumMismatch
	}

	return &Record{
		Version:  version,
		Flags:    flags,
		TransID:  transID,
		Descs:    descs,
		Payloads: payloads,
		Undo:     undo,
	}, nil
}

// recomputeChecksum reproduces the checksum computed at encode time,
// which always saw the COMMITTED bit cleared.
func recomputeChecksum(_ *os.File, header, descBuf []byte, payloads, undo [][]byte) (uint32, error) {
	crc := crc32.NewIEEE()

	headerCopy := make([]byte, len(header))
	copy(headerCopy, header)
	flags := binary.LittleEndian.Uint32(headerCopy[offFlags:]) &^ committedBit
	binary.LittleEndian.PutUint32(headerCopy[offFlags:], flags)
	crc.Write(headerCopy)

	crc.Write(descBuf)
	for _, p := range payloads {
		crc.Write(p)
	}
	for _, u := range undo {
		crc.Write(u)
	}

	return crc.Sum32(), nil
}
