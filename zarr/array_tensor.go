package zarr

import (
	"context"
	"unsafe"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

// TensorElement bounds the Go numeric types RetrieveArraySubsetTensor and
// StoreArraySubsetTensor can move in and out of a gomlx tensor without a
// per-element conversion pass — the same fixed-width scalar kinds
// Dataset.NextBatch already converts by hand for its four supported dtypes,
// generalized here via generics since a method cannot carry a type
// parameter.
type TensorElement interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// RetrieveArraySubsetTensor decodes subset and reinterprets it as a dense
// gomlx tensor of element type T, failing with IncompatibleElementSizeError
// if the array's data type isn't fixed-size T-wide. It assumes a
// little-endian host, true of every platform the module targets.
func RetrieveArraySubsetTensor[T TensorElement](ctx context.Context, a *Array, subset indexer.ArraySubset, opts CodecOptions) (*tensors.Tensor, error) {
	if err := checkTensorElementSize[T](a); err != nil {
		return nil, err
	}
	ab, err := a.RetrieveArraySubset(ctx, subset, opts)
	if err != nil {
		return nil, err
	}
	buf, err := ab.IntoFixed()
	if err != nil {
		return nil, err
	}
	return tensors.FromFlatDataAndDimensions(bytesToElements[T](buf), intShape(subset.Shape())...), nil
}

// StoreArraySubsetTensor encodes a flat slice of T, shaped to match subset,
// and stores it into a via StoreArraySubset, failing with
// IncompatibleElementSizeError if the array's data type isn't fixed-size
// T-wide.
func StoreArraySubsetTensor[T TensorElement](ctx context.Context, a *Array, subset indexer.ArraySubset, elems []T, opts CodecOptions) error {
	if err := checkTensorElementSize[T](a); err != nil {
		return err
	}
	data, err := datatype.NewFixed(a.dtype, elementsToBytes(elems))
	if err != nil {
		return err
	}
	return a.StoreArraySubset(ctx, subset, data, opts)
}

func checkTensorElementSize[T TensorElement](a *Array) error {
	var zero T
	wanted := int(unsafe.Sizeof(zero))
	got, ok := a.dtype.FixedSize()
	if !ok || got != wanted {
		return &IncompatibleElementSizeError{DataType: a.dtype.Name(), Wanted: wanted, Got: got}
	}
	return nil
}

func intShape(shape []uint64) []int {
	out := make([]int, len(shape))
	for i, s := range shape {
		out[i] = int(s)
	}
	return out
}

// bytesToElements reinterprets buf's bytes as a []T, copying so the
// returned slice doesn't alias the decoded chunk buffer.
func bytesToElements[T TensorElement](buf []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	n := len(buf) / size
	view := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(buf))), n)
	return append([]T(nil), view...)
}

// elementsToBytes reinterprets elems's backing array as a []byte, copying
// so the returned slice doesn't alias the caller's slice.
func elementsToBytes[T TensorElement](elems []T) []byte {
	var zero T
	size := int(unsafe.Sizeof(zero))
	view := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(elems))), len(elems)*size)
	return append([]byte(nil), view...)
}

