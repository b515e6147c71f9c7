package codec

import (
	"context"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

// Endian selects the byte order the "bytes" codec writes multi-byte
// elements in.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

// BytesCodec is the mandatory array→bytes codec for fixed-size data types:
// a pure endian conversion from the array's canonical (little-endian)
// in-memory element encoding to the configured wire endianness. Partial
// decoding is a direct per-element-stride byte-range extraction — no
// decompression is involved, so requesting a subset costs exactly the
// bytes of that subset.
type BytesCodec struct {
	endian Endian
}

func NewBytesCodec(endian Endian) *BytesCodec { return &BytesCodec{endian: endian} }

func init() {
	RegisterArrayToBytes("bytes", func(cfg map[string]any) (ArrayToBytesCodec, error) {
		endian := LittleEndian
		if configString(cfg, "endian", "little") == "big" {
			endian = BigEndian
		}
		return NewBytesCodec(endian), nil
	})
}

func (c *BytesCodec) Name() string { return "bytes" }

func (c *BytesCodec) PartialDecoderShouldCacheInput() bool { return false }
func (c *BytesCodec) PartialDecoderDecodesAll() bool        { return false }

func (c *BytesCodec) RecommendedConcurrency(ChunkRepresentation) RecommendedConcurrency {
	return Serial()
}

func (c *BytesCodec) ComputeEncodedSize(rep ChunkRepresentation) (datatype.BytesRepresentation, error) {
	size, ok := rep.DataType.FixedSize()
	if !ok {
		return datatype.BytesRepresentation{}, &ExpectedFixedLengthBytesError{Codec: c.Name()}
	}
	return datatype.Fixed(rep.NumElements() * uint64(size)), nil
}

func swapBytes(buf []byte, elementSize int) []byte {
	if elementSize <= 1 {
		return buf
	}
	out := make([]byte, len(buf))
	for off := 0; off+elementSize <= len(buf); off += elementSize {
		for i := 0; i < elementSize; i++ {
			out[off+i] = buf[off+elementSize-1-i]
		}
	}
	return out
}

func (c *BytesCodec) Encode(input datatype.ArrayBytes, rep ChunkRepresentation, _ Options) ([]byte, error) {
	buf, err := input.IntoFixed()
	if err != nil {
		return nil, &ExpectedFixedLengthBytesError{Codec: c.Name()}
	}
	size, _ := rep.DataType.FixedSize()
	if c.endian == BigEndian {
		return swapBytes(buf, size), nil
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

func (c *BytesCodec) Decode(input []byte, rep ChunkRepresentation, _ Options) (datatype.ArrayBytes, error) {
	size, ok := rep.DataType.FixedSize()
	if !ok {
		return datatype.ArrayBytes{}, &ExpectedFixedLengthBytesError{Codec: c.Name()}
	}
	expected := rep.NumElements() * uint64(size)
	if uint64(len(input)) != expected {
		return datatype.ArrayBytes{}, &UnexpectedDecodedSizeError{Codec: c.Name(), Expected: expected, Actual: uint64(len(input))}
	}
	buf := input
	if c.endian == BigEndian {
		buf = swapBytes(input, size)
	} else {
		cp := make([]byte, len(input))
		copy(cp, input)
		buf = cp
	}
	return datatype.NewFixed(rep.DataType, buf)
}

func (c *BytesCodec) DecodeInto(input []byte, rep ChunkRepresentation, out OutputView, _ Options) error {
	size, ok := rep.DataType.FixedSize()
	if !ok {
		return &ExpectedFixedLengthBytesError{Codec: c.Name()}
	}
	buf := input
	if c.endian == BigEndian {
		buf = swapBytes(input, size)
	}
	return out.WriteRun(make([]uint64, len(rep.Shape)), buf)
}

// bytesCodecPartialDecoder implements ArrayPartialDecoder on top of a lower
// BytesPartialDecoder by translating each requested subset into a set of
// contiguous byte ranges (one per contiguous run of rep.Shape) and
// reassembling + endian-swapping the result.
type bytesCodecPartialDecoder struct {
	input  BytesPartialDecoder
	rep    ChunkRepresentation
	endian Endian
	size   int
}

func (c *BytesCodec) PartialDecoder(input BytesPartialDecoder, rep ChunkRepresentation, _ Options) (ArrayPartialDecoder, error) {
	size, ok := rep.DataType.FixedSize()
	if !ok {
		return nil, &ExpectedFixedLengthBytesError{Codec: c.Name()}
	}
	return &bytesCodecPartialDecoder{input: input, rep: rep, endian: c.endian, size: size}, nil
}

func (d *bytesCodecPartialDecoder) runsFor(subset indexer.ArraySubset) ([]bytesutil.ByteRange, []uint64) {
	it := subset.ContiguousLinearisedIndices(d.rep.Shape)
	var ranges []bytesutil.ByteRange
	var runLens []uint64
	for {
		lin, runLen, ok := it.Next()
		if !ok {
			break
		}
		off := lin * uint64(d.size)
		length := runLen * uint64(d.size)
		ranges = append(ranges, bytesutil.FromStart(off, &length))
		runLens = append(runLens, runLen)
	}
	return ranges, runLens
}

func (d *bytesCodecPartialDecoder) decodeSubset(ctx context.Context, subset indexer.ArraySubset) ([]byte, bool, error) {
	ranges, _ := d.runsFor(subset)
	if len(ranges) == 0 {
		return []byte{}, true, nil
	}
	parts, present, err := d.input.PartialDecode(ctx, ranges)
	if err != nil || !present {
		return nil, present, err
	}
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	if d.endian == BigEndian {
		out = swapBytes(out, d.size)
	}
	return out, true, nil
}

func (d *bytesCodecPartialDecoder) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, rep ChunkRepresentation, opts Options) ([]datatype.ArrayBytes, error) {
	out := make([]datatype.ArrayBytes, len(subsets))
	for i, s := range subsets {
		buf, present, err := d.decodeSubset(ctx, s)
		if err != nil {
			return nil, err
		}
		if !present {
			buf = rep.FillValue.Repeat(int(s.NumElements()))
		}
		ab, err := datatype.NewFixed(rep.DataType, buf)
		if err != nil {
			return nil, err
		}
		out[i] = ab
	}
	return out, nil
}

func (d *bytesCodecPartialDecoder) PartialDecodeInto(ctx context.Context, subset indexer.ArraySubset, rep ChunkRepresentation, out OutputView, opts Options) error {
	ranges, runLens := d.runsFor(subset)
	if len(ranges) == 0 {
		return nil
	}
	parts, present, err := d.input.PartialDecode(ctx, ranges)
	if err != nil {
		return err
	}
	it := subset.ContiguousIndices(d.rep.Shape)
	relOrigin := subset.Start()
	for i := range ranges {
		start, runLen, ok := it.Next()
		if !ok {
			break
		}
		var data []byte
		if present {
			data = parts[i]
			if d.endian == BigEndian {
				data = swapBytes(data, d.size)
			}
		} else {
			data = rep.FillValue.Repeat(int(runLen))
		}
		relStart := make([]uint64, len(start))
		for k := range start {
			relStart[k] = start[k] - relOrigin[k]
		}
		if err := out.WriteRun(relStart, data); err != nil {
			return err
		}
	}
	return nil
}

// bytesCodecPartialEncoder writes subsets through to a lower
// BytesPartialEncoder using the same contiguous-run translation as the
// decoder.
type bytesCodecPartialEncoder struct {
	output BytesPartialEncoder
	rep    ChunkRepresentation
	endian Endian
	size   int
}

func (c *BytesCodec) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, rep ChunkRepresentation, _ Options) (ArrayPartialEncoder, error) {
	size, ok := rep.DataType.FixedSize()
	if !ok {
		return nil, &ExpectedFixedLengthBytesError{Codec: c.Name()}
	}
	return &bytesCodecPartialEncoder{output: output, rep: rep, endian: c.endian, size: size}, nil
}

func (e *bytesCodecPartialEncoder) PartialEncode(ctx context.Context, subset indexer.ArraySubset, data datatype.ArrayBytes, rep ChunkRepresentation, _ Options) error {
	buf, err := data.IntoFixed()
	if err != nil {
		return &ExpectedFixedLengthBytesError{Codec: "bytes"}
	}
	if e.endian == BigEndian {
		buf = swapBytes(buf, e.size)
	}
	it := subset.ContiguousLinearisedIndices(e.rep.Shape)
	pos := 0
	var writes []BytesWrite
	for {
		lin, runLen, ok := it.Next()
		if !ok {
			break
		}
		n := int(runLen) * e.size
		writes = append(writes, BytesWrite{Offset: lin * uint64(e.size), Data: buf[pos : pos+n]})
		pos += n
	}
	return e.output.PartialEncode(ctx, writes)
}
