// Package bytesize parses the human-readable size strings jfsck's
// configuration accepts for the autosync flush threshold
// (jioconfig.AutosyncConfig.MaxBytes), and gives that threshold a
// domain-appropriate floor: it can never be set below the fixed cost of
// a single committed journal record.
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ByteSize is a count of bytes that decodes from strings like "1Gi",
// "500Mi", "100MB", or a bare integer, so a config file can size the
// autosync flush threshold without the reader doing unit arithmetic.
//
// Supported formats:
//   - Plain numbers: 1024, 1073741824
//   - Binary units (×1024): Ki/KiB, Mi/MiB, Gi/GiB, Ti/TiB
//   - Decimal units (×1000): K/KB, M/MB, G/GB, T/TB
//   - Bytes: B
type ByteSize uint64

// Unit constants for expressing ByteSize literals.
const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB
	TB ByteSize = 1000 * GB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

// RecordHeaderSize is the fixed header every journal record pays before
// a single byte of its own payload: magic, version, flags, op count,
// total length, and transaction id (see internal/journal/codec.go). A
// flush threshold smaller than this could never hold even an empty
// committed record, so it's the floor autosync configuration is checked
// against.
const RecordHeaderSize ByteSize = 32

// DescriptorSize is the fixed per-operation cost a record pays for each
// (offset, length) descriptor it carries, independent of payload size.
const DescriptorSize ByteSize = 12

// MinAutosyncThreshold is the smallest flush threshold accepted: one
// record header, one descriptor, and a single byte of payload. The
// record's 4-byte trailing checksum is not counted.
const MinAutosyncThreshold ByteSize = RecordHeaderSize + DescriptorSize + B

// byteSizePattern matches a number followed by an optional unit suffix.
var byteSizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

// unitMultipliers maps a lowercased unit suffix to its byte multiplier.
var unitMultipliers = map[string]ByteSize{
	"":    B,
	"b":   B,
	"k":   KB,
	"kb":  KB,
	"m":   MB,
	"mb":  MB,
	"g":   GB,
	"gb":  GB,
	"t":   TB,
	"tb":  TB,
	"ki":  KiB,
	"kib": KiB,
	"mi":  MiB,
	"mib": MiB,
	"gi":  GiB,
	"gib": GiB,
	"ti":  TiB,
	"tib": TiB,
}

// ParseByteSize parses a human-readable byte size string ("1Gi", "500Mi",
// "100MB", "1024", ...) into a ByteSize.
func ParseByteSize(s string) (ByteSize, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	matches := byteSizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid byte size format: %q", s)
	}

	numStr := matches[1]
	unit := strings.ToLower(matches[2])

	multiplier, ok := unitMultipliers[unit]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", matches[2])
	}

	if strings.Contains(numStr, ".") {
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in byte size: %q", numStr)
		}
		return ByteSize(num * float64(multiplier)), nil
	}

	num, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte size: %q", numStr)
	}
	return ByteSize(num) * multiplier, nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so a ByteSize field
// decodes straight out of a YAML config file or environment variable via
// mapstructure's text-unmarshaler hook.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// String renders the size using the largest binary unit that keeps the
// value at least 1, matching the units ParseByteSize accepts back.
func (b ByteSize) String() string {
	switch {
	case b >= TiB:
		return fmt.Sprintf("%.2fTiB", float64(b)/float64(TiB))
	case b >= GiB:
		return fmt.Sprintf("%.2fGiB", float64(b)/float64(GiB))
	case b >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(b)/float64(MiB))
	case b >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(b)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// Uint64 returns the ByteSize as a uint64, the width autosync.Config
// itself uses for its pending-byte threshold.
func (b ByteSize) Uint64() uint64 {
	return uint64(b)
}

// Int64 returns the ByteSize as an int64. May overflow for sizes beyond
// math.MaxInt64, which no realistic autosync threshold approaches.
func (b ByteSize) Int64() int64 {
	return int64(b)
}

// FitsOneRecord reports whether a flush threshold is at least
// MinAutosyncThreshold, i.e. large enough that crossing it could ever
// correspond to a real committed record rather than firing on every
// single byte written.
func (b ByteSize) FitsOneRecord() bool {
	return b >= MinAutosyncThreshold
}
