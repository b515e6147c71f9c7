package codec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/concurrency"
	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

// memBytesPartialDecoder serves PartialDecode requests out of an in-memory
// buffer, the simplest possible stand-in for a store's own partial decoder.
type memBytesPartialDecoder struct {
	data []byte
}

func (d *memBytesPartialDecoder) PartialDecode(ctx context.Context, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end := r.Extent(uint64(len(d.data)))
		out[i] = append([]byte(nil), d.data[start:end]...)
	}
	return out, true, nil
}

type memBytesPartialEncoder struct {
	data []byte
}

func (e *memBytesPartialEncoder) PartialEncode(ctx context.Context, writes []codec.BytesWrite) error {
	for _, w := range writes {
		end := w.Offset + uint64(len(w.Data))
		if uint64(len(e.data)) < end {
			grown := make([]byte, end)
			copy(grown, e.data)
			e.data = grown
		}
		copy(e.data[w.Offset:end], w.Data)
	}
	return nil
}

func TestBytesCodec_EncodeDecodeRoundTrip(t *testing.T) {
	c := codec.NewBytesCodec(codec.LittleEndian)
	rep := codec.ChunkRepresentation{Shape: []uint64{2}, DataType: datatype.Int32()}
	ab, err := datatype.NewFixed(datatype.Int32(), []byte{1, 0, 0, 0, 2, 0, 0, 0})
	require.NoError(t, err)

	encoded, err := c.Encode(ab, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, encoded)

	decoded, err := c.Decode(encoded, rep, codec.DefaultOptions())
	require.NoError(t, err)
	buf, err := decoded.IntoFixed()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, buf)
}

func TestBytesCodec_BigEndianSwapsBytes(t *testing.T) {
	c := codec.NewBytesCodec(codec.BigEndian)
	rep := codec.ChunkRepresentation{Shape: []uint64{1}, DataType: datatype.Int32()}
	ab, _ := datatype.NewFixed(datatype.Int32(), []byte{1, 2, 3, 4})

	encoded, err := c.Encode(ab, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []byte{4, 3, 2, 1}, encoded)
}

func TestBytesCodec_ComputeEncodedSize(t *testing.T) {
	c := codec.NewBytesCodec(codec.LittleEndian)
	rep := codec.ChunkRepresentation{Shape: []uint64{3, 2}, DataType: datatype.Float64()}
	size, err := c.ComputeEncodedSize(rep)
	require.NoError(t, err)
	require.Equal(t, datatype.Fixed(48), size)
}

func TestBytesCodec_ComputeEncodedSize_VariableLengthRejected(t *testing.T) {
	c := codec.NewBytesCodec(codec.LittleEndian)
	rep := codec.ChunkRepresentation{Shape: []uint64{1}, DataType: datatype.String()}
	_, err := c.ComputeEncodedSize(rep)
	require.Error(t, err)
}

func TestBytesCodec_DecodeInto(t *testing.T) {
	c := codec.NewBytesCodec(codec.LittleEndian)
	rep := codec.ChunkRepresentation{Shape: []uint64{2}, DataType: datatype.Int32()}
	buf := make([]byte, 8)
	view := concurrency.NewBufferView(buf, []uint64{2}, 4)
	require.NoError(t, c.DecodeInto([]byte{1, 0, 0, 0, 2, 0, 0, 0}, rep, view, codec.DefaultOptions()))
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, buf)
}

func TestBytesCodec_PartialDecoder(t *testing.T) {
	c := codec.NewBytesCodec(codec.LittleEndian)
	rep := codec.ChunkRepresentation{
		Shape: []uint64{4}, DataType: datatype.Int32(),
		FillValue: datatype.Zero(datatype.Int32()),
	}
	data := []byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}
	dec, err := c.PartialDecoder(&memBytesPartialDecoder{data: data}, rep, codec.DefaultOptions())
	require.NoError(t, err)

	subset, err := indexer.New([]uint64{1}, []uint64{2})
	require.NoError(t, err)
	out, err := dec.PartialDecode(context.Background(), []indexer.ArraySubset{subset}, rep, codec.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, out, 1)
	buf, err := out[0].IntoFixed()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, buf)
}

func TestBytesCodec_PartialEncoder(t *testing.T) {
	c := codec.NewBytesCodec(codec.LittleEndian)
	rep := codec.ChunkRepresentation{Shape: []uint64{4}, DataType: datatype.Int32()}
	out := &memBytesPartialEncoder{}
	enc, err := c.PartialEncoder(nil, out, rep, codec.DefaultOptions())
	require.NoError(t, err)

	subset, err := indexer.New([]uint64{1}, []uint64{2})
	require.NoError(t, err)
	ab, _ := datatype.NewFixed(datatype.Int32(), []byte{9, 0, 0, 0, 8, 0, 0, 0})
	require.NoError(t, enc.PartialEncode(context.Background(), subset, ab, rep, codec.DefaultOptions()))
	require.Equal(t, []byte{0, 0, 0, 0, 9, 0, 0, 0, 8, 0, 0, 0}, out.data)
}
