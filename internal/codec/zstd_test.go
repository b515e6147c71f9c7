package codec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/datatype"
)

func TestZstd_EncodeDecodeRoundTrip(t *testing.T) {
	z := codec.NewZstd(3)
	input := []byte("the quick brown fox jumps over the lazy dog, repeated many times")
	encoded, err := z.Encode(input, codec.DefaultOptions())
	require.NoError(t, err)

	decoded, err := z.Decode(encoded, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, input, decoded)
}

func TestZstd_RecommendedConcurrency(t *testing.T) {
	z := codec.NewZstd(3)
	rc := z.RecommendedConcurrency(datatype.BytesRepresentation{})
	require.Equal(t, uint64(1), rc.Min)
	require.Equal(t, uint64(4), rc.Max)
}

func TestZstd_PartialDecoder(t *testing.T) {
	z := codec.NewZstd(3)
	input := []byte("0123456789")
	encoded, err := z.Encode(input, codec.DefaultOptions())
	require.NoError(t, err)

	dec, err := z.PartialDecoder(&memBytesPartialDecoder{data: encoded}, codec.DefaultOptions())
	require.NoError(t, err)

	length := uint64(4)
	out, present, err := dec.PartialDecode(context.Background(), []bytesutil.ByteRange{bytesutil.FromStart(0, &length)})
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, []byte("0123"), out[0])
}
