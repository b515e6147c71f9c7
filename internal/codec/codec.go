// Package codec implements the three codec kinds (array→array,
// array→bytes, bytes→bytes), their composition into a codec chain, and the
// concrete codecs required by the core spec (§4.E, §4.F). Partial decoding
// — retrieving a subregion of a chunk without materialising the whole
// thing — is a first-class part of every codec kind's contract, since it is
// what makes chunked array I/O and the sharding codec tractable.
package codec

import (
	"context"
	"errors"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

// ChunkRepresentation describes the shape, data type, and fill value a
// codec operates against. It is transformed left-to-right through a codec
// chain's ComputeEncodedSize chain (§4.F).
type ChunkRepresentation struct {
	Shape     []uint64
	DataType  datatype.DataType
	FillValue datatype.FillValue
}

// NumElements is the product of Shape.
func (c ChunkRepresentation) NumElements() uint64 {
	n := uint64(1)
	for _, s := range c.Shape {
		n *= s
	}
	return n
}

// Options bundles the per-call knobs every codec operation is handed: the
// concurrency target this call may use internally (§4.F/§4.I), and whether
// checksum codecs should verify their trailer on decode (§6).
type Options struct {
	ConcurrentTarget  uint64
	VerifyChecksums   bool
}

// DefaultOptions is a reasonable default: serial, verify checksums.
func DefaultOptions() Options {
	return Options{ConcurrentTarget: 1, VerifyChecksums: true}
}

// ErrPartialEncodeUnsupported is returned by PartialEncoder constructors
// for codecs that have no cheap partial-rewrite strategy; callers fall back
// to the array façade's read-modify-write path (§4.H), which the spec
// explicitly allows.
var ErrPartialEncodeUnsupported = errors.New("codec: partial encoding is not supported by this codec")

// OutputView is a write-only view over a (possibly shared) destination
// buffer for a single fixed-size array subset. It is the "typed
// disjoint-view abstraction" §4.H/§5/§9 require: many goroutines each hold
// a distinct OutputView over non-overlapping element ranges of one
// allocation, so unsynchronised concurrent writes are safe.
type OutputView interface {
	// Shape is the element shape this view covers.
	Shape() []uint64
	// ElementSize is the fixed per-element byte size.
	ElementSize() int
	// WriteRun writes n elements' worth of encoded bytes, contiguous in
	// this view's own C order, starting at multi-index start within this
	// view's shape.
	WriteRun(start []uint64, data []byte) error
}

// CodecTraits is the supertrait every codec kind implements: identity,
// metadata round-trip naming, and the two caching hints the chain (§4.F)
// consults when building a partial-decoder pipeline.
type CodecTraits interface {
	// Name is the codec's registry/metadata identifier (e.g. "bytes",
	// "gzip", "sharding_indexed").
	Name() string
	// PartialDecoderShouldCacheInput reports whether the chain should
	// insert a cache BELOW this codec's partial decoder (i.e. the input
	// this codec reads from should be memoised on first touch).
	PartialDecoderShouldCacheInput() bool
	// PartialDecoderDecodesAll reports whether this codec's partial
	// decoder always decodes the entire input regardless of what subset
	// was requested, in which case the chain inserts a cache ABOVE it so
	// repeated small requests don't redo the full decode.
	PartialDecoderDecodesAll() bool
}

// BytesPartialDecoder decodes selected byte ranges of an opaque value
// without materialising the whole thing. A false second return means the
// underlying chunk is entirely absent — the caller (never this interface)
// is responsible for turning that into fill-value bytes.
type BytesPartialDecoder interface {
	PartialDecode(ctx context.Context, ranges []bytesutil.ByteRange) ([][]byte, bool, error)
}

// BytesPartialEncoder writes selected byte ranges of an opaque value.
type BytesPartialEncoder interface {
	PartialEncode(ctx context.Context, writes []BytesWrite) error
}

// BytesWrite is one (range, data) pair for a BytesPartialEncoder. The range
// is always a FromStart range over the target's current or to-be-extended
// length.
type BytesWrite struct {
	Offset uint64
	Data   []byte
}

// ArrayPartialDecoder decodes selected array subsets of a chunk. Unlike
// BytesPartialDecoder it is infallible with respect to absence: a missing
// chunk is materialised as fill value transparently.
type ArrayPartialDecoder interface {
	PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, rep ChunkRepresentation, opts Options) ([]datatype.ArrayBytes, error)
	// PartialDecodeInto writes directly into out for fixed-size types.
	PartialDecodeInto(ctx context.Context, subset indexer.ArraySubset, rep ChunkRepresentation, out OutputView, opts Options) error
}

// ArrayPartialEncoder writes selected array subsets of a chunk.
type ArrayPartialEncoder interface {
	PartialEncode(ctx context.Context, subset indexer.ArraySubset, data datatype.ArrayBytes, rep ChunkRepresentation, opts Options) error
}

// ArrayToArrayCodec transforms decoded array elements into other decoded
// array elements (e.g. transpose, bitround).
type ArrayToArrayCodec interface {
	CodecTraits
	// RecommendedConcurrency reports the [min,max] useful internal
	// concurrency for operating on rep.
	RecommendedConcurrency(rep ChunkRepresentation) RecommendedConcurrency
	Encode(input datatype.ArrayBytes, rep ChunkRepresentation, opts Options) (datatype.ArrayBytes, error)
	Decode(input datatype.ArrayBytes, rep ChunkRepresentation, opts Options) (datatype.ArrayBytes, error)
	// ComputeEncodedSize transforms rep (e.g. transpose permutes Shape).
	ComputeEncodedSize(rep ChunkRepresentation) (ChunkRepresentation, error)
	// PartialDecoder builds a partial decoder over an array partial
	// decoder input handle (the next codec down the chain, innermost
	// being the array→bytes codec's own partial decoder).
	PartialDecoder(input ArrayPartialDecoder, rep ChunkRepresentation, opts Options) (ArrayPartialDecoder, error)
	PartialEncoder(input ArrayPartialEncoder, rep ChunkRepresentation, opts Options) (ArrayPartialEncoder, error)
}

// ArrayToBytesCodec transforms decoded array elements into an opaque byte
// value. Exactly one must appear in a codec chain (§3).
type ArrayToBytesCodec interface {
	CodecTraits
	RecommendedConcurrency(rep ChunkRepresentation) RecommendedConcurrency
	Encode(input datatype.ArrayBytes, rep ChunkRepresentation, opts Options) ([]byte, error)
	Decode(input []byte, rep ChunkRepresentation, opts Options) (datatype.ArrayBytes, error)
	// DecodeInto decodes directly into out for fixed-size types, avoiding
	// an intermediate allocation.
	DecodeInto(input []byte, rep ChunkRepresentation, out OutputView, opts Options) error
	ComputeEncodedSize(rep ChunkRepresentation) (datatype.BytesRepresentation, error)
	// PartialDecoder builds an array partial decoder over a bytes
	// partial-decoder input handle (typically the store's own partial
	// decoder, wrapped by any bytes→bytes codecs below this one).
	PartialDecoder(input BytesPartialDecoder, rep ChunkRepresentation, opts Options) (ArrayPartialDecoder, error)
	PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, rep ChunkRepresentation, opts Options) (ArrayPartialEncoder, error)
}

// BytesToBytesCodec transforms one opaque byte value into another (e.g.
// compression, checksums).
type BytesToBytesCodec interface {
	CodecTraits
	// RecommendedConcurrency reports the [min,max] useful internal
	// concurrency for operating on an encoded value described by rep.
	RecommendedConcurrency(rep datatype.BytesRepresentation) RecommendedConcurrency
	Encode(input []byte, opts Options) ([]byte, error)
	Decode(input []byte, opts Options) ([]byte, error)
	ComputeEncodedSize(rep datatype.BytesRepresentation) (datatype.BytesRepresentation, error)
	// PartialDecoder wraps a lower bytes partial decoder (the next codec
	// down the chain, or the store's own partial decoder if this is the
	// innermost bytes→bytes codec).
	PartialDecoder(input BytesPartialDecoder, opts Options) (BytesPartialDecoder, error)
	PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, opts Options) (BytesPartialEncoder, error)
}
