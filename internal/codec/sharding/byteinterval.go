package sharding

import (
	"context"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/codec"
)

// byteIntervalPartialDecoder wraps an underlying bytes partial decoder,
// rebasing every requested range by offset and clipping it to length
// (§4.G.1). It is what lets an inner chunk's codec chain be pointed at
// "this inner chunk's slice of the shard" without copying the shard.
type byteIntervalPartialDecoder struct {
	inner  codec.BytesPartialDecoder
	offset uint64
	length uint64
}

func newByteIntervalPartialDecoder(inner codec.BytesPartialDecoder, offset, length uint64) codec.BytesPartialDecoder {
	return &byteIntervalPartialDecoder{inner: inner, offset: offset, length: length}
}

func (d *byteIntervalPartialDecoder) PartialDecode(ctx context.Context, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	rebased := make([]bytesutil.ByteRange, len(ranges))
	for i, r := range ranges {
		clipped, ok := r.Clip(d.length, 0, d.length)
		if !ok {
			rebased[i] = bytesutil.FromStart(d.offset, uint64Ptr(0))
			continue
		}
		start := clipped.Offset() + d.offset
		length, _ := clipped.Length()
		rebased[i] = bytesutil.FromStart(start, &length)
	}
	return d.inner.PartialDecode(ctx, rebased)
}

func uint64Ptr(v uint64) *uint64 { return &v }
