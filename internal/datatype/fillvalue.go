package datatype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FillValue is the canonical bit pattern used for elements of an absent
// chunk. For fixed-size types it is exactly one element's worth of bytes;
// for variable-length types it is the single encoded element (its own
// little "offsets table" of one entry is implicit: callers building a
// fill-value buffer for N elements repeat Bytes N times and derive offsets
// from its length).
type FillValue struct {
	dtype DataType
	bytes []byte
}

// New validates that b is a legal encoding of one element of dtype and
// returns the corresponding FillValue.
func New(dtype DataType, b []byte) (FillValue, error) {
	if size, ok := dtype.FixedSize(); ok {
		if len(b) != size {
			return FillValue{}, fmt.Errorf("datatype: fill value for %s must be %d bytes, got %d", dtype.Name(), size, len(b))
		}
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return FillValue{dtype: dtype, bytes: cp}, nil
}

// Bytes returns the one-element encoded fill value.
func (f FillValue) Bytes() []byte { return f.bytes }

// DataType returns the data type this fill value was constructed for.
func (f FillValue) DataType() DataType { return f.dtype }

// Repeat returns the fill value tiled n times, the canonical "empty chunk
// of n elements" buffer for fixed-size types.
func (f FillValue) Repeat(n int) []byte {
	out := make([]byte, len(f.bytes)*n)
	for i := 0; i < n; i++ {
		copy(out[i*len(f.bytes):], f.bytes)
	}
	return out
}

// EqualsAll performs the canonical "is this chunk entirely fill value" test:
// a bitwise comparison over len(b)/element_size replications, except for
// float kinds where NaN fill values must compare by bit pattern rather than
// IEEE equality (NaN != NaN would otherwise make every float chunk
// "non-empty"). Because the fill value and the candidate bytes are both
// raw little-endian element encodings, a literal byte-for-byte comparison
// already implements bit-pattern comparison for floats: no separate NaN
// branch is needed, but we call it out for readers who'd otherwise reach
// for math.IsNaN.
func (f FillValue) EqualsAll(b []byte) bool {
	if len(f.bytes) == 0 {
		return len(b) == 0
	}
	if len(b)%len(f.bytes) != 0 {
		return false
	}
	for i := 0; i < len(b); i += len(f.bytes) {
		for j, fb := range f.bytes {
			if b[i+j] != fb {
				return false
			}
		}
	}
	return true
}

// FromJSONNumber builds a fixed-size fill value from a JSON-decoded number
// or sentinel string ("NaN", "Infinity", "-Infinity") per §6's metadata
// rules. For float dtypes the float width follows dtype.
func FromJSONNumber(dtype DataType, v float64, isNaN, isPosInf, isNegInf bool) (FillValue, error) {
	size, ok := dtype.FixedSize()
	if !ok {
		return FillValue{}, fmt.Errorf("datatype: %s has no numeric fill-value encoding", dtype.Name())
	}
	buf := make([]byte, size)
	switch dtype.Kind {
	case KindFloat32:
		var bits uint32
		switch {
		case isNaN:
			bits = math.Float32bits(float32(math.NaN()))
		case isPosInf:
			bits = math.Float32bits(float32(math.Inf(1)))
		case isNegInf:
			bits = math.Float32bits(float32(math.Inf(-1)))
		default:
			bits = math.Float32bits(float32(v))
		}
		binary.LittleEndian.PutUint32(buf, bits)
	case KindFloat64:
		var bits uint64
		switch {
		case isNaN:
			bits = math.Float64bits(math.NaN())
		case isPosInf:
			bits = math.Float64bits(math.Inf(1))
		case isNegInf:
			bits = math.Float64bits(math.Inf(-1))
		default:
			bits = math.Float64bits(v)
		}
		binary.LittleEndian.PutUint64(buf, bits)
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindDateTime64, KindTimeDelta64:
		iv := int64(v)
		switch size {
		case 1:
			buf[0] = byte(iv)
		case 2:
			binary.LittleEndian.PutUint16(buf, uint16(iv))
		case 4:
			binary.LittleEndian.PutUint32(buf, uint32(iv))
		case 8:
			binary.LittleEndian.PutUint64(buf, uint64(iv))
		}
	case KindBool:
		if v != 0 {
			buf[0] = 1
		}
	default:
		return FillValue{}, fmt.Errorf("datatype: numeric fill value not applicable to %s", dtype.Name())
	}
	return New(dtype, buf)
}

// Zero returns the all-zero fill value for dtype, the default when no
// fill_value is given and the type has an obvious additive identity.
func Zero(dtype DataType) FillValue {
	size, ok := dtype.FixedSize()
	if !ok {
		return FillValue{dtype: dtype, bytes: nil}
	}
	return FillValue{dtype: dtype, bytes: make([]byte, size)}
}
