package codec

import (
	"context"
	"fmt"

	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

// Transpose is an array→array codec that permutes axes. Its partial
// decoder permutes the caller's subset by the codec's order before
// delegating to the wrapped (pre-transpose) partial decoder, so a
// request for "rows 2..4 of the transposed view" becomes "columns 2..4 of
// the underlying view" without ever materialising the whole chunk.
type Transpose struct {
	order []int // order[d] = source axis feeding output axis d
}

// NewTranspose validates that order is a permutation of [0, n) and builds
// a Transpose codec.
func NewTranspose(order []int) (*Transpose, error) {
	seen := make([]bool, len(order))
	for _, o := range order {
		if o < 0 || o >= len(order) || seen[o] {
			return nil, fmt.Errorf("codec: transpose order %v is not a permutation", order)
		}
		seen[o] = true
	}
	return &Transpose{order: append([]int(nil), order...)}, nil
}

func init() {
	RegisterArrayToArray("transpose", func(cfg map[string]any) (ArrayToArrayCodec, error) {
		orderU, err := configUintSlice(cfg, "order")
		if err != nil {
			return nil, err
		}
		order := make([]int, len(orderU))
		for i, v := range orderU {
			order[i] = int(v)
		}
		return NewTranspose(order)
	})
}

func (t *Transpose) Name() string                                   { return "transpose" }
func (t *Transpose) PartialDecoderShouldCacheInput() bool            { return false }
func (t *Transpose) PartialDecoderDecodesAll() bool                  { return false }
func (t *Transpose) RecommendedConcurrency(ChunkRepresentation) RecommendedConcurrency {
	return Serial()
}

// inverse returns the permutation p such that p[order[d]] == d.
func (t *Transpose) inverse() []int {
	inv := make([]int, len(t.order))
	for d, src := range t.order {
		inv[src] = d
	}
	return inv
}

func permute(in []uint64, order []int) []uint64 {
	out := make([]uint64, len(in))
	for d, src := range order {
		out[d] = in[src]
	}
	return out
}

func (t *Transpose) ComputeEncodedSize(rep ChunkRepresentation) (ChunkRepresentation, error) {
	if len(t.order) != len(rep.Shape) {
		return ChunkRepresentation{}, fmt.Errorf("codec: transpose order length %d does not match shape dimensionality %d", len(t.order), len(rep.Shape))
	}
	rep.Shape = permute(rep.Shape, t.order)
	return rep, nil
}

// reshapeElements permutes a flat C-order element buffer of shape
// `fromShape` into one of shape permute(fromShape, order), where order[d]
// says "output axis d comes from input axis order[d]".
func reshapeElements(elementSize int, buf []byte, fromShape []uint64, order []int) []byte {
	toShape := permute(fromShape, order)
	out := make([]byte, len(buf))
	d := len(fromShape)
	fromStrides := makeStrides(fromShape)
	toStrides := makeStrides(toShape)
	idx := make([]uint64, d)
	total := uint64(1)
	for _, s := range toShape {
		total *= s
	}
	for lin := uint64(0); lin < total; lin++ {
		// Decompose lin into to-coordinates.
		rem := lin
		for i := 0; i < d; i++ {
			idx[i] = rem / toStrides[i]
			rem %= toStrides[i]
		}
		// Map to-coordinates back to from-coordinates: from[order[d]] = idx[d].
		var fromLin uint64
		fromIdx := make([]uint64, d)
		for i, src := range order {
			fromIdx[src] = idx[i]
		}
		for i := 0; i < d; i++ {
			fromLin += fromIdx[i] * fromStrides[i]
		}
		copy(out[lin*uint64(elementSize):], buf[fromLin*uint64(elementSize):fromLin*uint64(elementSize)+uint64(elementSize)])
	}
	return out
}

func makeStrides(shape []uint64) []uint64 {
	strides := make([]uint64, len(shape))
	stride := uint64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

func (t *Transpose) Encode(input datatype.ArrayBytes, rep ChunkRepresentation, _ Options) (datatype.ArrayBytes, error) {
	buf, err := input.IntoFixed()
	if err != nil {
		return datatype.ArrayBytes{}, &ExpectedFixedLengthBytesError{Codec: t.Name()}
	}
	size, ok := rep.DataType.FixedSize()
	if !ok {
		return datatype.ArrayBytes{}, &ExpectedFixedLengthBytesError{Codec: t.Name()}
	}
	out := reshapeElements(size, buf, rep.Shape, t.order)
	return datatype.NewFixed(rep.DataType, out)
}

func (t *Transpose) Decode(input datatype.ArrayBytes, rep ChunkRepresentation, _ Options) (datatype.ArrayBytes, error) {
	buf, err := input.IntoFixed()
	if err != nil {
		return datatype.ArrayBytes{}, &ExpectedFixedLengthBytesError{Codec: t.Name()}
	}
	size, ok := rep.DataType.FixedSize()
	if !ok {
		return datatype.ArrayBytes{}, &ExpectedFixedLengthBytesError{Codec: t.Name()}
	}
	// rep here is the PRE-transpose (decoded) representation; the buffer
	// we were handed is shaped like the POST-transpose (encoded) one, so
	// decode using the inverse permutation.
	encodedShape := permute(rep.Shape, t.order)
	out := reshapeElements(size, buf, encodedShape, t.inverse())
	return datatype.NewFixed(rep.DataType, out)
}

type transposePartialDecoder struct {
	inner ArrayPartialDecoder
	t     *Transpose
}

func (t *Transpose) PartialDecoder(input ArrayPartialDecoder, rep ChunkRepresentation, _ Options) (ArrayPartialDecoder, error) {
	return &transposePartialDecoder{inner: input, t: t}, nil
}

// translate maps a subset expressed in pre-transpose (decoded, caller-
// facing) coordinates into the post-transpose coordinates the wrapped
// decoder expects, by permuting start/shape with the codec's order
// (encoded axis d is decoded axis order[d]).
func (t *Transpose) translateSubset(s indexer.ArraySubset) (indexer.ArraySubset, error) {
	start := permute(s.Start(), t.order)
	shape := permute(s.Shape(), t.order)
	return indexer.New(start, shape)
}

func (t *Transpose) translateRep(rep ChunkRepresentation) ChunkRepresentation {
	rep.Shape = permute(rep.Shape, t.order)
	return rep
}

func (d *transposePartialDecoder) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, rep ChunkRepresentation, opts Options) ([]datatype.ArrayBytes, error) {
	encRep := d.t.translateRep(rep)
	translated := make([]indexer.ArraySubset, len(subsets))
	for i, s := range subsets {
		ts, err := d.t.translateSubset(s)
		if err != nil {
			return nil, err
		}
		translated[i] = ts
	}
	decoded, err := d.inner.PartialDecode(ctx, translated, encRep, opts)
	if err != nil {
		return nil, err
	}
	size, ok := rep.DataType.FixedSize()
	if !ok {
		return decoded, nil
	}
	out := make([]datatype.ArrayBytes, len(decoded))
	for i, db := range decoded {
		buf, err := db.IntoFixed()
		if err != nil {
			return nil, err
		}
		// decoded[i] is laid out in encoded-axis order over the translated
		// (post-permute) subset shape; reorder it back to decoded-axis order
		// using the inverse permutation, as Decode does.
		reshaped := reshapeElements(size, buf, permute(subsets[i].Shape(), d.t.order), d.t.inverse())
		ab, err := datatype.NewFixed(rep.DataType, reshaped)
		if err != nil {
			return nil, err
		}
		out[i] = ab
	}
	return out, nil
}


func (d *transposePartialDecoder) PartialDecodeInto(ctx context.Context, subset indexer.ArraySubset, rep ChunkRepresentation, out OutputView, opts Options) error {
	decoded, err := d.PartialDecode(ctx, []indexer.ArraySubset{subset}, rep, opts)
	if err != nil {
		return err
	}
	buf, err := decoded[0].IntoFixed()
	if err != nil {
		return err
	}
	return out.WriteRun(make([]uint64, subset.Dimensionality()), buf)
}

func (t *Transpose) PartialEncoder(input ArrayPartialEncoder, rep ChunkRepresentation, _ Options) (ArrayPartialEncoder, error) {
	return nil, ErrPartialEncodeUnsupported
}
