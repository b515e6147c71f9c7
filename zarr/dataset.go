package zarr

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
	"github.com/nimbusdata/zarrgo/internal/storage/storeadapter"
)

// Dataset wraps an Array opened from a bucket URL with a batching cursor
// along its leading dimension, the same convenience shape the teacher's
// NextBatch gave callers feeding a training loop — rebuilt over the façade
// instead of direct bucket reads and hand-rolled chunk arithmetic.
type Dataset struct {
	store        *storeadapter.BlobStore
	array        *Array
	opts         CodecOptions
	CurrentIndex uint64
}

// NewDataset opens the array at path's root (zarr.json at the bucket root)
// and returns a Dataset positioned at the start of its leading dimension.
func NewDataset(ctx context.Context, path string) (*Dataset, error) {
	store, err := storeadapter.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	arr, err := OpenArray(ctx, store, Root())
	if err != nil {
		store.Close()
		return nil, err
	}
	return &Dataset{store: store, array: arr, opts: DefaultCodecOptions()}, nil
}

// Close releases the underlying bucket.
func (d *Dataset) Close() error { return d.store.Close() }

// Array returns the underlying façade, for callers that want direct
// chunk- or subset-level access alongside batching.
func (d *Dataset) Array() *Array { return d.array }

// NextBatch reads the next batchSize elements along dimension 0 as a dense
// tensor of shape [n, Shape[1], Shape[2], ...], n <= batchSize. Returns
// io.EOF once the leading dimension is exhausted.
func (d *Dataset) NextBatch(ctx context.Context, batchSize int) (*tensors.Tensor, error) {
	shape := d.array.Shape()
	if len(shape) == 0 {
		return nil, fmt.Errorf("zarr: dataset array must have at least one dimension")
	}
	if d.CurrentIndex >= shape[0] {
		return nil, io.EOF
	}

	start := d.CurrentIndex
	end := start + uint64(batchSize)
	if end > shape[0] {
		end = shape[0]
	}

	subStart := make([]uint64, len(shape))
	subShape := make([]uint64, len(shape))
	subStart[0] = start
	subShape[0] = end - start
	for i := 1; i < len(shape); i++ {
		subShape[i] = shape[i]
	}
	subset, err := indexer.New(subStart, subShape)
	if err != nil {
		return nil, err
	}

	ab, err := d.array.RetrieveArraySubset(ctx, subset, d.opts)
	if err != nil {
		return nil, err
	}
	buf, err := ab.IntoFixed()
	if err != nil {
		return nil, fmt.Errorf("zarr: dataset batches must be fixed-size elements: %w", err)
	}

	batchShape := make([]int, len(subShape))
	for i, s := range subShape {
		batchShape[i] = int(s)
	}

	d.CurrentIndex = end
	switch d.array.DataType().Kind {
	case datatype.KindFloat32:
		return tensors.FromFlatDataAndDimensions(asFloat32Slice(buf), batchShape...), nil
	case datatype.KindFloat64:
		return tensors.FromFlatDataAndDimensions(asFloat64Slice(buf), batchShape...), nil
	case datatype.KindInt32:
		return tensors.FromFlatDataAndDimensions(asInt32Slice(buf), batchShape...), nil
	case datatype.KindInt64:
		return tensors.FromFlatDataAndDimensions(asInt64Slice(buf), batchShape...), nil
	default:
		return nil, fmt.Errorf("zarr: unsupported dataset dtype: %s", d.array.DataType().Name())
	}
}

func asFloat32Slice(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func asFloat64Slice(buf []byte) []float64 {
	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}

func asInt32Slice(buf []byte) []int32 {
	out := make([]int32, len(buf)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func asInt64Slice(buf []byte) []int64 {
	out := make([]int64, len(buf)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}
