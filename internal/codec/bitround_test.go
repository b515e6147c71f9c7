package codec_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/datatype"
)

func encodeF32(vals ...float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func TestBitRound_RoundsMantissaOfFloat32(t *testing.T) {
	b := codec.NewBitRound(4)
	rep := codec.ChunkRepresentation{Shape: []uint64{1}, DataType: datatype.Float32()}
	ab, err := datatype.NewFixed(datatype.Float32(), encodeF32(3.14159265))
	require.NoError(t, err)

	out, err := b.Encode(ab, rep, codec.DefaultOptions())
	require.NoError(t, err)
	buf, err := out.IntoFixed()
	require.NoError(t, err)

	bits := binary.LittleEndian.Uint32(buf)
	// low bits beyond keepBits must be zeroed.
	require.Equal(t, uint32(0), bits&((1<<(23-4))-1))
}

func TestBitRound_PassesThroughNonFloat(t *testing.T) {
	b := codec.NewBitRound(4)
	rep := codec.ChunkRepresentation{Shape: []uint64{1}, DataType: datatype.Int32()}
	ab, _ := datatype.NewFixed(datatype.Int32(), []byte{1, 2, 3, 4})
	out, err := b.Encode(ab, rep, codec.DefaultOptions())
	require.NoError(t, err)
	buf, _ := out.IntoFixed()
	require.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestBitRound_DecodeIsIdentity(t *testing.T) {
	b := codec.NewBitRound(8)
	ab, _ := datatype.NewFixed(datatype.Float32(), encodeF32(1.5))
	out, err := b.Decode(ab, codec.ChunkRepresentation{DataType: datatype.Float32()}, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, ab, out)
}

func TestBitRound_PreservesNaN(t *testing.T) {
	b := codec.NewBitRound(4)
	rep := codec.ChunkRepresentation{Shape: []uint64{1}, DataType: datatype.Float32()}
	ab, _ := datatype.NewFixed(datatype.Float32(), encodeF32(float32(math.NaN())))
	out, err := b.Encode(ab, rep, codec.DefaultOptions())
	require.NoError(t, err)
	buf, _ := out.IntoFixed()
	require.True(t, math.IsNaN(float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))))
}
