package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/codec"
)

func TestCrc32c_EncodeDecodeRoundTrip(t *testing.T) {
	c := codec.NewCrc32c()
	input := []byte("payload bytes")
	encoded, err := c.Encode(input, codec.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, encoded, len(input)+4)

	decoded, err := c.Decode(encoded, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, input, decoded)
}

func TestCrc32c_Decode_RejectsCorruptedTrailer(t *testing.T) {
	c := codec.NewCrc32c()
	encoded, err := c.Encode([]byte("payload bytes"), codec.DefaultOptions())
	require.NoError(t, err)
	encoded[len(encoded)-1] ^= 0xff

	_, err = c.Decode(encoded, codec.DefaultOptions())
	require.Error(t, err)
}

func TestCrc32c_Decode_SkipsVerificationWhenDisabled(t *testing.T) {
	c := codec.NewCrc32c()
	encoded, err := c.Encode([]byte("payload bytes"), codec.DefaultOptions())
	require.NoError(t, err)
	encoded[len(encoded)-1] ^= 0xff

	_, err = c.Decode(encoded, codec.Options{VerifyChecksums: false})
	require.NoError(t, err)
}

func TestCrc32c_Decode_RejectsTooShortInput(t *testing.T) {
	c := codec.NewCrc32c()
	_, err := c.Decode([]byte{1, 2}, codec.DefaultOptions())
	require.Error(t, err)
}

func TestCrc32c_PartialEncoder_Unsupported(t *testing.T) {
	c := codec.NewCrc32c()
	_, err := c.PartialEncoder(nil, nil, codec.DefaultOptions())
	require.ErrorIs(t, err, codec.ErrPartialEncodeUnsupported)
}
