package zarr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMetadataV2_RejectsWrongFormat(t *testing.T) {
	_, err := LoadMetadataV2(strings.NewReader(`{"zarr_format": 3}`))
	require.Error(t, err)
}

func TestParseDType_LittleEndianFloat(t *testing.T) {
	name, size, err := ParseDType("<f8")
	require.NoError(t, err)
	require.Equal(t, "float64", name)
	require.Equal(t, 8, size)
}

func TestParseDType_RejectsBigEndian(t *testing.T) {
	_, _, err := ParseDType(">i4")
	require.Error(t, err)
}

func TestParseDType_Bool(t *testing.T) {
	name, size, err := ParseDType("|b1")
	require.NoError(t, err)
	require.Equal(t, "bool", name)
	require.Equal(t, 1, size)
}

const testZarrayJSON = `{
  "zarr_format": 2,
  "shape": [4, 4],
  "chunks": [2, 2],
  "dtype": "<i4",
  "compressor": {"id": "zstd", "clevel": 3},
  "fill_value": 0,
  "order": "C"
}`

func TestMetadataV2_ToArrayMetadata(t *testing.T) {
	m, err := LoadMetadataV2(strings.NewReader(testZarrayJSON))
	require.NoError(t, err)

	am, err := m.toArrayMetadata()
	require.NoError(t, err)
	require.Equal(t, 3, am.ZarrFormat)
	require.Equal(t, []uint64{4, 4}, am.Shape)
	require.Equal(t, "v2", am.ChunkKeyEncoding.Name)
	require.Len(t, am.Codecs, 2)
	require.Equal(t, "bytes", am.Codecs[0].Name)
	require.Equal(t, "zstd", am.Codecs[1].Name)
}

func TestMetadataV2_ToArrayMetadata_NoCompressor(t *testing.T) {
	m, err := LoadMetadataV2(strings.NewReader(`{
		"zarr_format": 2, "shape": [2], "chunks": [2], "dtype": "<i4",
		"compressor": null, "fill_value": 0, "order": "C"
	}`))
	require.NoError(t, err)
	am, err := m.toArrayMetadata()
	require.NoError(t, err)
	require.Len(t, am.Codecs, 1)
	require.Equal(t, "bytes", am.Codecs[0].Name)
}

func TestCompressorConfig_ToCodec_Blosc(t *testing.T) {
	c := &CompressorConfig{ID: "blosc", Clevel: 5, Shuffle: 1}
	nc, err := c.toCodec()
	require.NoError(t, err)
	require.Equal(t, "blosc", nc.Name)
	require.Equal(t, "zstd", nc.Configuration["cname"])
}

func TestCompressorConfig_ToCodec_BloscHonoursCname(t *testing.T) {
	c := &CompressorConfig{ID: "blosc", Cname: "lz4", Clevel: 5}
	nc, err := c.toCodec()
	require.NoError(t, err)
	require.Equal(t, "lz4", nc.Configuration["cname"])
}

func TestCompressorConfig_ToCodec_UnsupportedID(t *testing.T) {
	c := &CompressorConfig{ID: "lz4"}
	_, err := c.toCodec()
	require.Error(t, err)
}
