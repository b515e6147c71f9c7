package codec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/concurrency"
	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

func buildChain(t *testing.T, bb ...codec.BytesToBytesCodec) *codec.CodecChain {
	t.Helper()
	ab, err := codec.NewArrayToBytes(codec.Config{Name: "bytes"})
	require.NoError(t, err)
	return codec.NewChain(nil, ab, bb)
}

func TestCodecChain_EncodeDecodeRoundTrip(t *testing.T) {
	chain := buildChain(t, codec.NewZstd(3))
	rep := codec.ChunkRepresentation{Shape: []uint64{4}, DataType: datatype.Int32(), FillValue: datatype.Zero(datatype.Int32())}
	ab, err := datatype.NewFixed(datatype.Int32(), []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0})
	require.NoError(t, err)

	encoded, err := chain.Encode(ab, rep, codec.DefaultOptions())
	require.NoError(t, err)

	decoded, err := chain.Decode(encoded, rep, codec.DefaultOptions())
	require.NoError(t, err)
	buf, err := decoded.IntoFixed()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0}, buf)
}

func TestCodecChain_EncodedRepresentation(t *testing.T) {
	chain := buildChain(t)
	rep := codec.ChunkRepresentation{Shape: []uint64{2, 3}, DataType: datatype.Int32()}
	size, err := chain.EncodedRepresentation(rep)
	require.NoError(t, err)
	require.Equal(t, datatype.Fixed(24), size)
}

func TestCodecChain_DecodeInto_NoArrayToArray(t *testing.T) {
	chain := buildChain(t)
	rep := codec.ChunkRepresentation{Shape: []uint64{2}, DataType: datatype.Int32()}
	buf := make([]byte, 8)
	view := concurrency.NewBufferView(buf, []uint64{2}, 4)
	require.NoError(t, chain.DecodeInto([]byte{1, 0, 0, 0, 2, 0, 0, 0}, rep, view, codec.DefaultOptions()))
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, buf)
}

func TestCodecChain_PartialDecoder_ThroughCompressor(t *testing.T) {
	chain := buildChain(t, codec.NewZstd(3))
	rep := codec.ChunkRepresentation{
		Shape: []uint64{4}, DataType: datatype.Int32(),
		FillValue: datatype.Zero(datatype.Int32()),
	}
	ab, err := datatype.NewFixed(datatype.Int32(), []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0})
	require.NoError(t, err)
	encoded, err := chain.Encode(ab, rep, codec.DefaultOptions())
	require.NoError(t, err)

	decoder, err := chain.PartialDecoder(&memBytesPartialDecoder{data: encoded}, rep, codec.DefaultOptions())
	require.NoError(t, err)

	subset, err := indexer.New([]uint64{1}, []uint64{2})
	require.NoError(t, err)
	out, err := decoder.PartialDecode(context.Background(), []indexer.ArraySubset{subset}, rep, codec.DefaultOptions())
	require.NoError(t, err)
	buf, err := out[0].IntoFixed()
	require.NoError(t, err)
	require.Equal(t, []byte{2, 0, 0, 0, 3, 0, 0, 0}, buf)
}

func TestCodecChain_RecommendedConcurrency_FoldsAcrossCodecs(t *testing.T) {
	chain := buildChain(t, codec.NewZstd(3))
	rc := chain.RecommendedConcurrency(codec.ChunkRepresentation{Shape: []uint64{4}, DataType: datatype.Int32()})
	require.Equal(t, uint64(1), rc.Min)
	require.Equal(t, uint64(4), rc.Max)
}
