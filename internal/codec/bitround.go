package codec

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

// BitRound is an array→array codec that rounds the mantissa of
// floating-point elements to `keepBits` bits, trading precision for
// downstream compressibility. It is lossy and has no meaningful inverse:
// Decode is the identity (the rounded value already IS the decoded value).
// Partial decoding is full pass-through — rounding has already happened by
// encode time, so there is nothing left for the partial decoder to redo.
type BitRound struct {
	keepBits int
}

func NewBitRound(keepBits int) *BitRound { return &BitRound{keepBits: keepBits} }

func init() {
	RegisterArrayToArray("bitround", func(cfg map[string]any) (ArrayToArrayCodec, error) {
		return NewBitRound(configInt(cfg, "keepbits", 0)), nil
	})
}

func (b *BitRound) Name() string                        { return "bitround" }
func (b *BitRound) PartialDecoderShouldCacheInput() bool { return false }
func (b *BitRound) PartialDecoderDecodesAll() bool       { return false }
func (b *BitRound) RecommendedConcurrency(ChunkRepresentation) RecommendedConcurrency {
	return Serial()
}

func (b *BitRound) ComputeEncodedSize(rep ChunkRepresentation) (ChunkRepresentation, error) {
	return rep, nil
}

func roundMantissa32(bits uint32, keepBits int) uint32 {
	const mantissaBits = 23
	if keepBits >= mantissaBits {
		return bits
	}
	shift := uint(mantissaBits - keepBits)
	half := uint32(1) << (shift - 1)
	// Round-to-nearest-even on the mantissa; exponent/sign bits are never
	// touched by the add because of how float32 bit layout reserves
	// overflow into the exponent only on all-ones mantissa, which is the
	// correct "round up into the next exponent" behaviour.
	rounded := bits + half - 1 + ((bits >> shift) & 1)
	mask := ^uint32(0) << shift
	return rounded & mask
}

func roundMantissa64(bits uint64, keepBits int) uint64 {
	const mantissaBits = 52
	if keepBits >= mantissaBits {
		return bits
	}
	shift := uint(mantissaBits - keepBits)
	half := uint64(1) << (shift - 1)
	rounded := bits + half - 1 + ((bits >> shift) & 1)
	mask := ^uint64(0) << shift
	return rounded & mask
}

func (b *BitRound) roundBuffer(buf []byte, dtype datatype.DataType) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	switch dtype.Kind {
	case datatype.KindFloat32:
		for off := 0; off+4 <= len(out); off += 4 {
			bits := binary.LittleEndian.Uint32(out[off:])
			if !math.IsNaN(float64(math.Float32frombits(bits))) {
				bits = roundMantissa32(bits, b.keepBits)
			}
			binary.LittleEndian.PutUint32(out[off:], bits)
		}
	case datatype.KindFloat64:
		for off := 0; off+8 <= len(out); off += 8 {
			bits := binary.LittleEndian.Uint64(out[off:])
			if !math.IsNaN(math.Float64frombits(bits)) {
				bits = roundMantissa64(bits, b.keepBits)
			}
			binary.LittleEndian.PutUint64(out[off:], bits)
		}
	}
	return out
}

func (b *BitRound) Encode(input datatype.ArrayBytes, rep ChunkRepresentation, _ Options) (datatype.ArrayBytes, error) {
	buf, err := input.IntoFixed()
	if err != nil {
		return datatype.ArrayBytes{}, &ExpectedFixedLengthBytesError{Codec: b.Name()}
	}
	if !rep.DataType.IsFloat() {
		return input, nil
	}
	return datatype.NewFixed(rep.DataType, b.roundBuffer(buf, rep.DataType))
}

func (b *BitRound) Decode(input datatype.ArrayBytes, rep ChunkRepresentation, _ Options) (datatype.ArrayBytes, error) {
	return input, nil
}

type passthroughArrayPartialDecoder struct {
	inner ArrayPartialDecoder
}

func (b *BitRound) PartialDecoder(input ArrayPartialDecoder, rep ChunkRepresentation, _ Options) (ArrayPartialDecoder, error) {
	return &passthroughArrayPartialDecoder{inner: input}, nil
}

func (d *passthroughArrayPartialDecoder) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, rep ChunkRepresentation, opts Options) ([]datatype.ArrayBytes, error) {
	return d.inner.PartialDecode(ctx, subsets, rep, opts)
}

func (d *passthroughArrayPartialDecoder) PartialDecodeInto(ctx context.Context, subset indexer.ArraySubset, rep ChunkRepresentation, out OutputView, opts Options) error {
	return d.inner.PartialDecodeInto(ctx, subset, rep, out, opts)
}

func (b *BitRound) PartialEncoder(input ArrayPartialEncoder, rep ChunkRepresentation, _ Options) (ArrayPartialEncoder, error) {
	return input, nil
}
