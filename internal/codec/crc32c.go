package codec

import (
	"context"
	"encoding/binary"

	kcrc32 "github.com/klauspost/crc32"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/datatype"
)

// crc32cTable is the hardware-accelerated (SSE4.2/ARM64, where available)
// Castagnoli table from github.com/klauspost/crc32 — the same author's
// ecosystem as the teacher's klauspost/compress dependency, and the
// natural choice over hand-rolling a software CRC table.
var crc32cTable = kcrc32.MakeTable(kcrc32.Castagnoli)

// Crc32c is a bytes→bytes checksum codec: it appends a 4-byte
// little-endian CRC32C trailer on encode and verifies (optionally) +
// strips it on decode (§6). Its partial decoder resolves ranges against
// the payload with the trailer excluded — the checksum covers the whole
// value, so a partial read cannot itself be verified; VerifyChecksums only
// applies to full decodes.
type Crc32c struct{}

func NewCrc32c() *Crc32c { return &Crc32c{} }

func init() {
	RegisterBytesToBytes("crc32c", func(map[string]any) (BytesToBytesCodec, error) {
		return NewCrc32c(), nil
	})
}

func (c *Crc32c) Name() string                        { return "crc32c" }
func (c *Crc32c) PartialDecoderShouldCacheInput() bool { return false }
func (c *Crc32c) PartialDecoderDecodesAll() bool       { return false }

func (c *Crc32c) RecommendedConcurrency(datatype.BytesRepresentation) RecommendedConcurrency {
	return Serial()
}

func (c *Crc32c) ComputeEncodedSize(rep datatype.BytesRepresentation) (datatype.BytesRepresentation, error) {
	switch rep.Kind {
	case datatype.FixedSize:
		return datatype.Fixed(rep.Size + 4), nil
	case datatype.BoundedSize:
		return datatype.Bounded(rep.Size + 4), nil
	default:
		return datatype.Unbounded(), nil
	}
}

func (c *Crc32c) Encode(input []byte, _ Options) ([]byte, error) {
	sum := kcrc32.Checksum(input, crc32cTable)
	out := make([]byte, len(input)+4)
	copy(out, input)
	binary.LittleEndian.PutUint32(out[len(input):], sum)
	return out, nil
}

func (c *Crc32c) Decode(input []byte, opts Options) ([]byte, error) {
	if len(input) < 4 {
		return nil, &UnexpectedDecodedSizeError{Codec: c.Name(), Expected: 4, Actual: uint64(len(input))}
	}
	payload := input[:len(input)-4]
	if opts.VerifyChecksums {
		want := binary.LittleEndian.Uint32(input[len(input)-4:])
		got := kcrc32.Checksum(payload, crc32cTable)
		if want != got {
			return nil, &InvalidChecksumError{Codec: c.Name()}
		}
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

type crc32cPartialDecoder struct {
	input BytesPartialDecoder
}

func (c *Crc32c) PartialDecoder(input BytesPartialDecoder, _ Options) (BytesPartialDecoder, error) {
	return &crc32cPartialDecoder{input: input}, nil
}

func (d *crc32cPartialDecoder) PartialDecode(ctx context.Context, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	// A FromStart range with an explicit length addresses the same bytes
	// in the payload and in the underlying value, so such ranges are
	// forwarded unchanged. Any other range depends on the payload length:
	// the payload (the value minus its 4-byte trailer, FromEnd(4, nil)) is
	// read and the ranges are extracted from it.
	for _, r := range ranges {
		if _, hasLen := r.Length(); r.IsFromEnd() || !hasLen {
			payload, present, err := d.input.PartialDecode(ctx, []bytesutil.ByteRange{bytesutil.FromEnd(4, nil)})
			if err != nil || !present {
				return nil, present, err
			}
			out, err := bytesutil.ExtractByteRanges(payload[0], ranges)
			return out, true, err
		}
	}
	return d.input.PartialDecode(ctx, ranges)
}

// PartialEncoder always fails: the trailer covers the whole encoded value,
// so rewriting a subset of the payload without recomputing it would leave
// a stale checksum behind. Callers fall back to decode-merge-encode, the
// same as gzip/zstd/blosc.
func (c *Crc32c) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, _ Options) (BytesPartialEncoder, error) {
	return nil, ErrPartialEncodeUnsupported
}
