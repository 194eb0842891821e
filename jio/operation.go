package jio

// Operation is an unscheduled write: a byte buffer bound to an offset in
// the data file. It is bound to exactly one transaction and is immutable
// once added. Operations within a transaction may overlap; on apply, a
// later operation's bytes win over any earlier overlap.
type Operation struct {
	Buf    []byte
	Offset int64
}

// Len returns the number of bytes the operation writes.
func (o Operation) Len() int {
	return len(o.Buf)
}
