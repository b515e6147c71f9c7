package zarr_test

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	_ "gocloud.dev/blob/memblob"

	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/storage/storeadapter"
	"github.com/nimbusdata/zarrgo/zarr"
)

func encodeFloat32LE(vals []float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func TestDataset_NextBatch(t *testing.T) {
	ctx := context.Background()
	store, err := storeadapter.Open(ctx, "mem://")
	require.NoError(t, err)

	// Shape=[10,2], chunk shape=[5,2], float32, default codecs ("bytes").
	_, err = zarr.NewArrayBuilder([]uint64{10, 2}, []uint64{5, 2}, datatype.Float32()).
		Create(ctx, store, zarr.Root())
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "c/0/0", encodeFloat32LE([]float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})))
	require.NoError(t, store.Set(ctx, "c/1/0", encodeFloat32LE([]float32{10, 11, 12, 13, 14, 15, 16, 17, 18, 19})))

	ds, err := zarr.NewDataset(ctx, "mem://")
	require.NoError(t, err)
	defer ds.Close()

	batch1, err := ds.NextBatch(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []int{3, 2}, batch1.Shape().Dimensions)

	batch2, err := ds.NextBatch(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []int{3, 2}, batch2.Shape().Dimensions)

	batch3, err := ds.NextBatch(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, []int{4, 2}, batch3.Shape().Dimensions)

	_, err = ds.NextBatch(ctx, 1)
	require.ErrorIs(t, err, io.EOF)
}

func TestDataset_NextBatch_Zstd(t *testing.T) {
	ctx := context.Background()
	store, err := storeadapter.Open(ctx, "mem://")
	require.NoError(t, err)

	builder := zarr.NewArrayBuilder([]uint64{10, 2}, []uint64{5, 2}, datatype.Float32()).
		WithCodecs(zarr.NamedConfig{Name: "bytes"}, zarr.NamedConfig{Name: "zstd"})
	arr, err := builder.Create(ctx, store, zarr.Root())
	require.NoError(t, err)

	data0 := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	data1 := []float32{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	opts := zarr.DefaultCodecOptions()
	ab0, err := datatype.NewFixed(datatype.Float32(), encodeFloat32LE(data0))
	require.NoError(t, err)
	require.NoError(t, arr.StoreChunk(ctx, []uint64{0, 0}, ab0, opts))
	ab1, err := datatype.NewFixed(datatype.Float32(), encodeFloat32LE(data1))
	require.NoError(t, err)
	require.NoError(t, arr.StoreChunk(ctx, []uint64{1, 0}, ab1, opts))

	ds, err := zarr.NewDataset(ctx, "mem://")
	require.NoError(t, err)
	defer ds.Close()

	batch, err := ds.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []int{10, 2}, batch.Shape().Dimensions)
}
