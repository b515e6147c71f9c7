package zarr_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
	"github.com/nimbusdata/zarrgo/internal/storage"
	"github.com/nimbusdata/zarrgo/zarr"
)

// buildSequentialArray stores a 4x4 int32 array, chunked 2x2, with element
// (r,c) = r*4+c+1, exercising StoreArraySubset's multi-chunk fan-out.
func buildSequentialArray(t *testing.T) (*zarr.Array, storage.Store) {
	t.Helper()
	store := storage.NewMemory()
	arr, err := zarr.NewArrayBuilder([]uint64{4, 4}, []uint64{2, 2}, datatype.Int32()).
		Create(context.Background(), store, zarr.Root())
	require.NoError(t, err)

	vals := make([]int32, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			vals[r*4+c] = int32(r*4 + c + 1)
		}
	}
	data, err := datatype.NewFixed(datatype.Int32(), int32Bytes(vals...))
	require.NoError(t, err)
	subset, err := indexer.New([]uint64{0, 0}, []uint64{4, 4})
	require.NoError(t, err)
	require.NoError(t, arr.StoreArraySubset(context.Background(), subset, data, zarr.DefaultCodecOptions()))
	return arr, store
}

func TestArray_StoreArraySubset_ThenRetrieveFullArray(t *testing.T) {
	arr, _ := buildSequentialArray(t)
	subset, err := indexer.New([]uint64{0, 0}, []uint64{4, 4})
	require.NoError(t, err)

	out, err := arr.RetrieveArraySubset(context.Background(), subset, zarr.DefaultCodecOptions())
	require.NoError(t, err)
	buf, err := out.IntoFixed()
	require.NoError(t, err)

	vals := make([]int32, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			vals[r*4+c] = int32(r*4 + c + 1)
		}
	}
	require.Equal(t, int32Bytes(vals...), buf)
}

func TestArray_RetrieveArraySubset_SpansFourChunks(t *testing.T) {
	arr, _ := buildSequentialArray(t)
	subset, err := indexer.New([]uint64{1, 1}, []uint64{2, 2})
	require.NoError(t, err)

	out, err := arr.RetrieveArraySubset(context.Background(), subset, zarr.DefaultCodecOptions())
	require.NoError(t, err)
	buf, err := out.IntoFixed()
	require.NoError(t, err)
	require.Equal(t, int32Bytes(6, 7, 10, 11), buf)
}

func TestArray_RetrieveArraySubset_FastPathSingleWholeChunk(t *testing.T) {
	arr, _ := buildSequentialArray(t)
	subset, err := indexer.New([]uint64{0, 0}, []uint64{2, 2})
	require.NoError(t, err)

	out, err := arr.RetrieveArraySubset(context.Background(), subset, zarr.DefaultCodecOptions())
	require.NoError(t, err)
	buf, err := out.IntoFixed()
	require.NoError(t, err)
	require.Equal(t, int32Bytes(1, 2, 5, 6), buf)
}

func TestArray_StoreArraySubset_SpansFourChunks(t *testing.T) {
	arr, _ := buildSequentialArray(t)
	ctx := context.Background()

	patch, err := datatype.NewFixed(datatype.Int32(), int32Bytes(100, 101, 102, 103))
	require.NoError(t, err)
	subset, err := indexer.New([]uint64{1, 1}, []uint64{2, 2})
	require.NoError(t, err)
	require.NoError(t, arr.StoreArraySubset(ctx, subset, patch, zarr.DefaultCodecOptions()))

	full, err := indexer.New([]uint64{0, 0}, []uint64{4, 4})
	require.NoError(t, err)
	out, err := arr.RetrieveArraySubset(ctx, full, zarr.DefaultCodecOptions())
	require.NoError(t, err)
	buf, err := out.IntoFixed()
	require.NoError(t, err)

	want := []int32{1, 2, 3, 4, 5, 100, 101, 8, 9, 102, 103, 12, 13, 14, 15, 16}
	require.Equal(t, int32Bytes(want...), buf)
}

func TestArray_RetrieveArraySubset_OutOfBounds(t *testing.T) {
	arr, _ := buildSequentialArray(t)
	subset, err := indexer.New([]uint64{0, 0}, []uint64{5, 5})
	require.NoError(t, err)
	_, err = arr.RetrieveArraySubset(context.Background(), subset, zarr.DefaultCodecOptions())
	var want *zarr.InvalidArraySubsetError
	require.ErrorAs(t, err, &want)
}

func TestArray_StoreArraySubset_WrongDimensionality(t *testing.T) {
	arr, _ := buildSequentialArray(t)
	subset, err := indexer.New([]uint64{0}, []uint64{4})
	require.NoError(t, err)
	data, err := datatype.NewFixed(datatype.Int32(), int32Bytes(1, 2, 3, 4))
	require.NoError(t, err)
	err = arr.StoreArraySubset(context.Background(), subset, data, zarr.DefaultCodecOptions())
	var want *zarr.InvalidArraySubsetError
	require.ErrorAs(t, err, &want)
}
