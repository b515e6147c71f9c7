// Package datatype models the Zarr data type variants (§3, §4.J of the
// core spec): fixed-size scalars, complex/float/int, variable-length string
// and bytes, opaque raw bits, and datetime/timedelta, plus the element-size
// arithmetic the codec chain and the array façade need to size buffers.
package datatype

import "fmt"

// Kind tags the variant of DataType.
type Kind int

const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat16
	KindFloat32
	KindFloat64
	KindComplex64
	KindComplex128
	KindString     // variable-length UTF-8
	KindBytes      // variable-length opaque bytes
	KindRawBits    // fixed-size opaque n-byte blob
	KindDateTime64 // epoch ticks at a fixed unit, stored as int64
	KindTimeDelta64
)

// DataType is a tagged variant over the supported Zarr data types. RawBits
// carries its element size in RawBitsSize; the rest are self-describing.
type DataType struct {
	Kind       Kind
	RawBitsSize int // valid only for KindRawBits, in bytes
}

func Bool() DataType        { return DataType{Kind: KindBool} }
func Int8() DataType        { return DataType{Kind: KindInt8} }
func Int16() DataType       { return DataType{Kind: KindInt16} }
func Int32() DataType       { return DataType{Kind: KindInt32} }
func Int64() DataType       { return DataType{Kind: KindInt64} }
func Uint8() DataType       { return DataType{Kind: KindUint8} }
func Uint16() DataType      { return DataType{Kind: KindUint16} }
func Uint32() DataType      { return DataType{Kind: KindUint32} }
func Uint64() DataType      { return DataType{Kind: KindUint64} }
func Float16() DataType     { return DataType{Kind: KindFloat16} }
func Float32() DataType     { return DataType{Kind: KindFloat32} }
func Float64() DataType     { return DataType{Kind: KindFloat64} }
func Complex64() DataType   { return DataType{Kind: KindComplex64} }
func Complex128() DataType  { return DataType{Kind: KindComplex128} }
func String() DataType      { return DataType{Kind: KindString} }
func Bytes() DataType       { return DataType{Kind: KindBytes} }
func DateTime64() DataType  { return DataType{Kind: KindDateTime64} }
func TimeDelta64() DataType { return DataType{Kind: KindTimeDelta64} }

// RawBits constructs an opaque fixed-size blob type of n bytes.
func RawBits(n int) DataType { return DataType{Kind: KindRawBits, RawBitsSize: n} }

// IsVariableLength reports whether elements of this type have no fixed
// byte size (string, bytes).
func (d DataType) IsVariableLength() bool {
	return d.Kind == KindString || d.Kind == KindBytes
}

// FixedSize returns the element size in bytes for a fixed-size type. ok is
// false for variable-length types.
func (d DataType) FixedSize() (size int, ok bool) {
	switch d.Kind {
	case KindBool, KindInt8, KindUint8:
		return 1, true
	case KindInt16, KindUint16, KindFloat16:
		return 2, true
	case KindInt32, KindUint32, KindFloat32:
		return 4, true
	case KindInt64, KindUint64, KindFloat64, KindComplex64, KindDateTime64, KindTimeDelta64:
		return 8, true
	case KindComplex128:
		return 16, true
	case KindRawBits:
		return d.RawBitsSize, true
	default:
		return 0, false
	}
}

// MustFixedSize panics if d is variable-length; for call sites that have
// already checked IsVariableLength.
func (d DataType) MustFixedSize() int {
	n, ok := d.FixedSize()
	if !ok {
		panic(fmt.Sprintf("datatype: %s has no fixed size", d.Name()))
	}
	return n
}

// IsFloat reports whether d is one of the IEEE float kinds bitround and NaN
// fill-value comparison care about.
func (d DataType) IsFloat() bool {
	switch d.Kind {
	case KindFloat16, KindFloat32, KindFloat64:
		return true
	default:
		return false
	}
}

// Name returns the Zarr V3 metadata name for d (the "data_type" JSON value
// for fixed types; raw_bits/datetime/timedelta use structured forms handled
// by the metadata layer, Name here is for diagnostics/errors only).
func (d DataType) Name() string {
	switch d.Kind {
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat16:
		return "float16"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindComplex64:
		return "complex64"
	case KindComplex128:
		return "complex128"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindRawBits:
		return fmt.Sprintf("r%d", d.RawBitsSize*8)
	case KindDateTime64:
		return "datetime64"
	case KindTimeDelta64:
		return "timedelta64"
	default:
		return "unknown"
	}
}

// ParseName parses a Zarr V3 data_type name back into a DataType. raw_bits
// and parameterised datetime/timedelta forms are handled by the metadata
// layer, which already has the full JSON token; ParseName covers the
// self-describing scalar names.
func ParseName(name string) (DataType, error) {
	switch name {
	case "bool":
		return Bool(), nil
	case "int8":
		return Int8(), nil
	case "int16":
		return Int16(), nil
	case "int32":
		return Int32(), nil
	case "int64":
		return Int64(), nil
	case "uint8":
		return Uint8(), nil
	case "uint16":
		return Uint16(), nil
	case "uint32":
		return Uint32(), nil
	case "uint64":
		return Uint64(), nil
	case "float16":
		return Float16(), nil
	case "float32":
		return Float32(), nil
	case "float64":
		return Float64(), nil
	case "complex64":
		return Complex64(), nil
	case "complex128":
		return Complex128(), nil
	case "string":
		return String(), nil
	case "bytes":
		return Bytes(), nil
	default:
		return DataType{}, fmt.Errorf("datatype: unrecognised data type name %q", name)
	}
}
