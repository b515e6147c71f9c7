package codec

import "fmt"

// UnsupportedDataTypeError is raised when a codec is asked to operate on a
// data type it cannot handle (§7 CodecError::UnsupportedDataType).
type UnsupportedDataTypeError struct {
	DataType string
	Codec    string
}

func (e *UnsupportedDataTypeError) Error() string {
	return fmt.Sprintf("codec: %s does not support data type %s", e.Codec, e.DataType)
}

// UnexpectedDecodedSizeError is raised when a decode produces a buffer of
// the wrong size (§7 CodecError::UnexpectedChunkDecodedSize) — treated as
// corrupted data, not a programmer error.
type UnexpectedDecodedSizeError struct {
	Codec    string
	Expected uint64
	Actual   uint64
}

func (e *UnexpectedDecodedSizeError) Error() string {
	return fmt.Sprintf("codec: %s: expected decoded size %d, got %d", e.Codec, e.Expected, e.Actual)
}

// InvalidChecksumError is raised when a checksum codec's trailer fails to
// verify (§7 CodecError::InvalidChecksum).
type InvalidChecksumError struct {
	Codec string
}

func (e *InvalidChecksumError) Error() string {
	return fmt.Sprintf("codec: %s: checksum verification failed", e.Codec)
}

// ExpectedFixedLengthBytesError / ExpectedVariableLengthBytesError signal a
// dtype/codec agreement violation (§7) — a programmer error, surfaced
// rather than recovered.
type ExpectedFixedLengthBytesError struct{ Codec string }

func (e *ExpectedFixedLengthBytesError) Error() string {
	return fmt.Sprintf("codec: %s expected fixed-length array bytes", e.Codec)
}

type ExpectedVariableLengthBytesError struct{ Codec string }

func (e *ExpectedVariableLengthBytesError) Error() string {
	return fmt.Sprintf("codec: %s expected variable-length array bytes", e.Codec)
}

// PluginCreateError is raised at array-open time when metadata names a
// codec (or storage transformer) that is not registered (§7
// PluginCreateError::Unsupported).
type PluginCreateError struct {
	Kind string // "codec" or "storage_transformer"
	Name string
}

func (e *PluginCreateError) Error() string {
	return fmt.Sprintf("codec: unsupported %s %q", e.Kind, e.Name)
}
