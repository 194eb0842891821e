package journal

// Descriptor is the on-disk (offset, length) pair identifying one
// operation's placement in the data file.
type Descriptor struct {
	Off int64
	Len uint32
}

// Record is the in-memory form of one transaction's journal record: the
// header fields plus the operation descriptors, their payloads, and
// (unless rollback was disabled for the transaction) the undo images
// captured at commit time.
type Record struct {
	Version uint32
	Flags   Flags
	TransID uint64
	Descs   []Descriptor
	// Payloads holds one entry per descriptor, in the same order.
	Payloads [][]byte
	// Undo holds one entry per descriptor, in the same order, or is nil
	// if the transaction was committed with NOROLLBACK.
	Undo [][]byte
}

// HasRollback reports whether this record carries undo images.
func (r *Record) HasRollback() bool {
	return r.Undo != nil
}

// TotalLen returns the sum of every descriptor's payload length.
func (r *Record) TotalLen() uint64 {
	var total uint64
	for _, d := range r.Descs {
		total += uint64(d.Len)
	}
	return total
}
