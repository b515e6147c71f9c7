// Package bytesutil implements the byte-range protocol shared by the store
// interface and every partial decoder: a ByteRange addresses a span of an
// opaque value either from its start or from its end, and
// ExtractByteRanges turns a set of ranges into owned sub-buffers.
package bytesutil

import "fmt"

// ByteRange is a tagged union over "from the start of the value" and "from
// the end of the value" addressing. Length nil means "to the other end".
type ByteRange struct {
	fromEnd bool
	offset  uint64
	length  *uint64
}

// FromStart builds a range starting at offset. A nil length means "to the
// end of the value".
func FromStart(offset uint64, length *uint64) ByteRange {
	return ByteRange{fromEnd: false, offset: offset, length: length}
}

// FromEnd builds a range that ends offset bytes before the end of the value
// and extends length bytes back towards its start. A nil length means "to
// the start of the value".
func FromEnd(offset uint64, length *uint64) ByteRange {
	return ByteRange{fromEnd: true, offset: offset, length: length}
}

// IsFromEnd reports whether the range is anchored to the end of the value.
func (r ByteRange) IsFromEnd() bool { return r.fromEnd }

// Offset returns the raw offset as given to FromStart/FromEnd.
func (r ByteRange) Offset() uint64 { return r.offset }

// Length returns the explicit length, if any.
func (r ByteRange) Length() (uint64, bool) {
	if r.length == nil {
		return 0, false
	}
	return *r.length, true
}

// Start resolves the absolute start offset of the range given the total
// length of the value it addresses.
func (r ByteRange) Start(valueLen uint64) uint64 {
	if !r.fromEnd {
		return r.offset
	}
	if r.offset >= valueLen {
		return 0
	}
	start := valueLen - r.offset
	if r.length != nil && *r.length <= start {
		return start - *r.length
	}
	return 0
}

// End resolves the absolute exclusive end offset of the range given the
// total length of the value it addresses. A nil length resolves to
// valueLen (the range genuinely runs "to the end"); an explicit length
// that pushes past valueLen is returned unclamped so callers can detect
// and reject the over-long range instead of silently truncating it.
func (r ByteRange) End(valueLen uint64) uint64 {
	if !r.fromEnd {
		if r.length == nil {
			return valueLen
		}
		return r.offset + *r.length
	}
	if r.offset >= valueLen {
		return valueLen
	}
	return valueLen - r.offset
}

// Extent returns [start, end) for valueLen. end may exceed valueLen when
// the range's explicit length runs past it — callers that must reject
// out-of-bounds ranges (ExtractByteRanges, GetPartialValuesKey) check for
// that themselves rather than relying on Extent to clamp it away.
func (r ByteRange) Extent(valueLen uint64) (start, end uint64) {
	return r.Start(valueLen), r.End(valueLen)
}

// InvalidByteRangeError reports a range that falls outside the bounds of the
// buffer it was applied to.
type InvalidByteRangeError struct {
	Range    ByteRange
	ValueLen uint64
}

func (e *InvalidByteRangeError) Error() string {
	start, end := e.Range.Extent(e.ValueLen)
	return fmt.Sprintf("byte range [%d, %d) is invalid for a value of length %d", start, end, e.ValueLen)
}

// ExtractByteRanges returns, for each requested range, an owned copy of the
// corresponding subrange of b. It fails hard on any out-of-bounds range: a
// partial decoder or store dealing with absence should filter those out
// before calling this, not rely on it to be lenient.
func ExtractByteRanges(b []byte, ranges []ByteRange) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	valueLen := uint64(len(b))
	for i, r := range ranges {
		start, end := r.Extent(valueLen)
		if start > end || end > valueLen {
			return nil, &InvalidByteRangeError{Range: r, ValueLen: valueLen}
		}
		buf := make([]byte, end-start)
		copy(buf, b[start:end])
		out[i] = buf
	}
	return out, nil
}

// Clip rebases a range by subtracting offset from its resolved extent over
// a value of the given total length, then intersects with [0, length). It
// is the building block behind the sharding codec's byte-interval partial
// decoder (clip a caller range to one inner chunk's slice of a shard).
func (r ByteRange) Clip(valueLen, offset, length uint64) (ByteRange, bool) {
	start, end := r.Extent(valueLen)
	if start < offset {
		start = offset
	}
	if end > offset+length {
		end = offset + length
	}
	if start >= end {
		return ByteRange{}, false
	}
	l := end - start
	return FromStart(start-offset, &l), true
}
