package codec

import (
	"context"
	"sync"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

// CodecChain composes the three codec kinds into the single pipeline every
// chunk is encoded/decoded through (§4.F): zero or more array→array codecs,
// exactly one array→bytes codec, then zero or more bytes→bytes codecs. On
// encode, data flows in that order; on decode, the reverse.
type CodecChain struct {
	arrayToArray []ArrayToArrayCodec
	arrayToBytes ArrayToBytesCodec
	bytesToBytes []BytesToBytesCodec
}

// NewChain builds a CodecChain. arrayToBytes must not be nil — every chain
// needs exactly one (§3).
func NewChain(arrayToArray []ArrayToArrayCodec, arrayToBytes ArrayToBytesCodec, bytesToBytes []BytesToBytesCodec) *CodecChain {
	return &CodecChain{arrayToArray: arrayToArray, arrayToBytes: arrayToBytes, bytesToBytes: bytesToBytes}
}

// EncodedRepresentation runs ComputeEncodedSize across the whole chain
// left-to-right, the size-tracking pass the chain performs before ever
// touching real bytes (§4.F).
func (c *CodecChain) EncodedRepresentation(rep ChunkRepresentation) (datatype.BytesRepresentation, error) {
	cur := rep
	for _, aa := range c.arrayToArray {
		var err error
		cur, err = aa.ComputeEncodedSize(cur)
		if err != nil {
			return datatype.BytesRepresentation{}, err
		}
	}
	bytesRep, err := c.arrayToBytes.ComputeEncodedSize(cur)
	if err != nil {
		return datatype.BytesRepresentation{}, err
	}
	for _, bb := range c.bytesToBytes {
		bytesRep, err = bb.ComputeEncodedSize(bytesRep)
		if err != nil {
			return datatype.BytesRepresentation{}, err
		}
	}
	return bytesRep, nil
}

// RecommendedConcurrency folds every codec's recommendation into one range:
// the smallest lower bound and the largest upper bound any codec reports,
// the combination the concurrency-split formula (§4.I) consumes.
func (c *CodecChain) RecommendedConcurrency(rep ChunkRepresentation) RecommendedConcurrency {
	out := RecommendedConcurrency{Min: ^uint64(0), Max: 0}
	fold := func(r RecommendedConcurrency) {
		if r.Min < out.Min {
			out.Min = r.Min
		}
		if r.Max > out.Max {
			out.Max = r.Max
		}
	}
	for _, aa := range c.arrayToArray {
		fold(aa.RecommendedConcurrency(rep))
	}
	fold(c.arrayToBytes.RecommendedConcurrency(rep))
	bytesRep := datatype.Unbounded()
	if r, err := c.arrayToBytes.ComputeEncodedSize(rep); err == nil {
		bytesRep = r
	}
	for _, bb := range c.bytesToBytes {
		fold(bb.RecommendedConcurrency(bytesRep))
		if r, err := bb.ComputeEncodedSize(bytesRep); err == nil {
			bytesRep = r
		}
	}
	if out.Min < 1 {
		out.Min = 1
	}
	if out.Max < out.Min {
		out.Max = out.Min
	}
	return out
}

// Encode runs the full forward pipeline: array→array codecs in order, the
// array→bytes codec, then bytes→bytes codecs in order.
func (c *CodecChain) Encode(input datatype.ArrayBytes, rep ChunkRepresentation, opts Options) ([]byte, error) {
	cur := input
	curRep := rep
	for _, aa := range c.arrayToArray {
		next, err := aa.Encode(cur, curRep, opts)
		if err != nil {
			return nil, err
		}
		nextRep, err := aa.ComputeEncodedSize(curRep)
		if err != nil {
			return nil, err
		}
		cur, curRep = next, nextRep
	}
	buf, err := c.arrayToBytes.Encode(cur, curRep, opts)
	if err != nil {
		return nil, err
	}
	for _, bb := range c.bytesToBytes {
		buf, err = bb.Encode(buf, opts)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Decode runs the full reverse pipeline.
func (c *CodecChain) Decode(input []byte, rep ChunkRepresentation, opts Options) (datatype.ArrayBytes, error) {
	// Recompute the intermediate ChunkRepresentation each array→array codec
	// saw on encode, since Decode needs it symmetrically.
	reps := make([]ChunkRepresentation, len(c.arrayToArray)+1)
	reps[0] = rep
	for i, aa := range c.arrayToArray {
		next, err := aa.ComputeEncodedSize(reps[i])
		if err != nil {
			return datatype.ArrayBytes{}, err
		}
		reps[i+1] = next
	}

	buf := input
	var err error
	for i := len(c.bytesToBytes) - 1; i >= 0; i-- {
		buf, err = c.bytesToBytes[i].Decode(buf, opts)
		if err != nil {
			return datatype.ArrayBytes{}, err
		}
	}
	cur, err := c.arrayToBytes.Decode(buf, reps[len(c.arrayToArray)], opts)
	if err != nil {
		return datatype.ArrayBytes{}, err
	}
	for i := len(c.arrayToArray) - 1; i >= 0; i-- {
		cur, err = c.arrayToArray[i].Decode(cur, reps[i], opts)
		if err != nil {
			return datatype.ArrayBytes{}, err
		}
	}
	return cur, nil
}

// DecodeInto decodes straight into out, skipping an intermediate ArrayBytes
// allocation when there are no array→array codecs to reverse (the common
// case: "bytes" plus a handful of bytes→bytes compressors). When array→array
// codecs are present it falls back to Decode followed by one WriteRun of the
// whole buffer, since none of the array→array codecs in this core need
// their own DecodeInto fast path.
func (c *CodecChain) DecodeInto(input []byte, rep ChunkRepresentation, out OutputView, opts Options) error {
	buf := input
	var err error
	for i := len(c.bytesToBytes) - 1; i >= 0; i-- {
		buf, err = c.bytesToBytes[i].Decode(buf, opts)
		if err != nil {
			return err
		}
	}
	if len(c.arrayToArray) == 0 {
		return c.arrayToBytes.DecodeInto(buf, rep, out, opts)
	}
	ab, err := c.Decode(input, rep, opts)
	if err != nil {
		return err
	}
	flat, err := ab.IntoFixed()
	if err != nil {
		return err
	}
	return out.WriteRun(make([]uint64, len(rep.Shape)), flat)
}

// ---- partial decoding ----

// cachingBytesPartialDecoder memoises the full underlying value on first
// touch and serves every subsequent PartialDecode from that copy. The chain
// inserts one wherever a codec's traits ask for it: below a codec that
// wants its raw input cached (PartialDecoderShouldCacheInput), or above a
// codec whose own partial decoder always decodes everything regardless of
// the requested ranges (PartialDecoderDecodesAll), so repeated small
// requests do not repeat that work.
type cachingBytesPartialDecoder struct {
	mu      sync.Mutex
	inner   BytesPartialDecoder
	fetched bool
	present bool
	cached  []byte
	err     error
}

func newCachingBytesPartialDecoder(inner BytesPartialDecoder) BytesPartialDecoder {
	return &cachingBytesPartialDecoder{inner: inner}
}

func (c *cachingBytesPartialDecoder) PartialDecode(ctx context.Context, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	c.mu.Lock()
	if !c.fetched {
		full, present, err := c.inner.PartialDecode(ctx, []bytesutil.ByteRange{bytesutil.FromStart(0, nil)})
		c.fetched = true
		c.err = err
		c.present = present
		if err == nil && present {
			c.cached = full[0]
		}
	}
	cached, present, fetchErr := c.cached, c.present, c.err
	c.mu.Unlock()
	if fetchErr != nil {
		return nil, false, fetchErr
	}
	if !present {
		return nil, false, nil
	}
	out, err := bytesutil.ExtractByteRanges(cached, ranges)
	return out, true, err
}

// buildBytesPartialDecoderChain wraps store (the innermost bytes partial
// decoder) with each bytes→bytes codec's own PartialDecoder, innermost
// first, inserting caches per each codec's hints.
func (c *CodecChain) buildBytesPartialDecoderChain(store BytesPartialDecoder, opts Options) (BytesPartialDecoder, error) {
	cur := store
	for i := len(c.bytesToBytes) - 1; i >= 0; i-- {
		bb := c.bytesToBytes[i]
		if bb.PartialDecoderShouldCacheInput() {
			cur = newCachingBytesPartialDecoder(cur)
		}
		next, err := bb.PartialDecoder(cur, opts)
		if err != nil {
			return nil, err
		}
		if bb.PartialDecoderDecodesAll() {
			next = newCachingBytesPartialDecoder(next)
		}
		cur = next
	}
	return cur, nil
}

// cachingArrayPartialDecoder memoises the whole-chunk decode (as a flat
// fixed-size buffer) on first touch, the array-level analogue of
// cachingBytesPartialDecoder, used above an array→bytes codec whose own
// partial decoder always decodes everything.
type cachingArrayPartialDecoder struct {
	mu      sync.Mutex
	inner   ArrayPartialDecoder
	rep     ChunkRepresentation
	fetched bool
	buf     []byte
	err     error
}

func newCachingArrayPartialDecoder(inner ArrayPartialDecoder, rep ChunkRepresentation) ArrayPartialDecoder {
	return &cachingArrayPartialDecoder{inner: inner, rep: rep}
}

func (c *cachingArrayPartialDecoder) ensure(ctx context.Context, opts Options) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetched {
		return c.buf, c.err
	}
	c.fetched = true
	whole := indexer.NewFromShape(c.rep.Shape)
	ab, err := c.inner.PartialDecode(ctx, []indexer.ArraySubset{whole}, c.rep, opts)
	if err != nil {
		c.err = err
		return nil, err
	}
	buf, err := ab[0].IntoFixed()
	if err != nil {
		c.err = err
		return nil, err
	}
	c.buf = buf
	return buf, nil
}

func (c *cachingArrayPartialDecoder) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, rep ChunkRepresentation, opts Options) ([]datatype.ArrayBytes, error) {
	whole, err := c.ensure(ctx, opts)
	if err != nil {
		return nil, err
	}
	size, _ := rep.DataType.FixedSize()
	out := make([]datatype.ArrayBytes, len(subsets))
	for i, s := range subsets {
		buf := extractFixedSubset(whole, rep.Shape, size, s)
		ab, err := datatype.NewFixed(rep.DataType, buf)
		if err != nil {
			return nil, err
		}
		out[i] = ab
	}
	return out, nil
}

func (c *cachingArrayPartialDecoder) PartialDecodeInto(ctx context.Context, subset indexer.ArraySubset, rep ChunkRepresentation, out OutputView, opts Options) error {
	whole, err := c.ensure(ctx, opts)
	if err != nil {
		return err
	}
	size, _ := rep.DataType.FixedSize()
	buf := extractFixedSubset(whole, rep.Shape, size, subset)
	return out.WriteRun(make([]uint64, subset.Dimensionality()), buf)
}

// extractFixedSubset copies the elements of subset out of whole, a flat
// fixed-size buffer laid out in C order over arrayShape.
func extractFixedSubset(whole []byte, arrayShape []uint64, elementSize int, subset indexer.ArraySubset) []byte {
	out := make([]byte, 0, subset.NumElements()*uint64(elementSize))
	it := subset.ContiguousLinearisedIndices(arrayShape)
	for {
		lin, runLen, ok := it.Next()
		if !ok {
			break
		}
		off := lin * uint64(elementSize)
		n := runLen * uint64(elementSize)
		out = append(out, whole[off:off+n]...)
	}
	return out
}

// PartialDecoder builds the full partial-decoder pipeline over store (the
// innermost handle, typically backed directly by the chunk's stored bytes):
// bytes→bytes codecs wrap store innermost-first, then the array→bytes codec
// turns that into an ArrayPartialDecoder, then array→array codecs wrap that
// outward in order.
func (c *CodecChain) PartialDecoder(store BytesPartialDecoder, rep ChunkRepresentation, opts Options) (ArrayPartialDecoder, error) {
	reps := make([]ChunkRepresentation, len(c.arrayToArray)+1)
	reps[0] = rep
	for i, aa := range c.arrayToArray {
		next, err := aa.ComputeEncodedSize(reps[i])
		if err != nil {
			return nil, err
		}
		reps[i+1] = next
	}
	bytesChain, err := c.buildBytesPartialDecoderChain(store, opts)
	if err != nil {
		return nil, err
	}
	var cur ArrayPartialDecoder
	cur, err = c.arrayToBytes.PartialDecoder(bytesChain, reps[len(c.arrayToArray)], opts)
	if err != nil {
		return nil, err
	}
	if c.arrayToBytes.PartialDecoderDecodesAll() {
		cur = newCachingArrayPartialDecoder(cur, reps[len(c.arrayToArray)])
	}
	for i := len(c.arrayToArray) - 1; i >= 0; i-- {
		cur, err = c.arrayToArray[i].PartialDecoder(cur, reps[i], opts)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// PartialEncoder builds the write-side pipeline, mirroring PartialDecoder.
// storeRead and storeWrite are the innermost bytes partial decoder/encoder
// (typically both backed by the same store value). Any codec in the chain
// reporting ErrPartialEncodeUnsupported propagates that error so the array
// façade can fall back to a read-modify-write of the whole chunk (§4.H).
func (c *CodecChain) PartialEncoder(storeRead BytesPartialDecoder, storeWrite BytesPartialEncoder, rep ChunkRepresentation, opts Options) (ArrayPartialEncoder, error) {
	reps := make([]ChunkRepresentation, len(c.arrayToArray)+1)
	reps[0] = rep
	for i, aa := range c.arrayToArray {
		next, err := aa.ComputeEncodedSize(reps[i])
		if err != nil {
			return nil, err
		}
		reps[i+1] = next
	}
	bytesReadChain, err := c.buildBytesPartialDecoderChain(storeRead, opts)
	if err != nil {
		return nil, err
	}
	// bytesToBytes[0] sits closest to the array→bytes codec (applied first
	// on Encode); bytesToBytes[last] sits closest to the store. The write
	// chain is built the same direction, outermost (closest to the store)
	// in first, so it mirrors the read chain's innermost-first construction.
	bytesWriteChain := storeWrite
	for i := len(c.bytesToBytes) - 1; i >= 0; i-- {
		bytesWriteChain, err = c.bytesToBytes[i].PartialEncoder(bytesReadChain, bytesWriteChain, opts)
		if err != nil {
			return nil, err
		}
	}
	cur, err := c.arrayToBytes.PartialEncoder(bytesReadChain, bytesWriteChain, reps[len(c.arrayToArray)], opts)
	if err != nil {
		return nil, err
	}
	for i := len(c.arrayToArray) - 1; i >= 0; i-- {
		cur, err = c.arrayToArray[i].PartialEncoder(cur, reps[i], opts)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}
