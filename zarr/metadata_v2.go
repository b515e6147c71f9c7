package zarr

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/nimbusdata/zarrgo/internal/datatype"
)

// CompressorConfig is a Zarr V2 compressor descriptor, as carried in
// .zarray's "compressor" field (numcodecs-style {id, ...params}).
type CompressorConfig struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// MetadataV2 is the Zarr V2 .zarray document: the legacy metadata format
// this core reads for interoperability with existing V2 stores, translated
// to an ArrayMetadata-shaped view at open time (see OpenArray in array.go).
type MetadataV2 struct {
	ZarrFormat int               `json:"zarr_format"`
	Shape      []int             `json:"shape"`
	Chunks     []int             `json:"chunks"`
	DType      string            `json:"dtype"`
	Compressor *CompressorConfig `json:"compressor"`
	FillValue  any               `json:"fill_value"`
	Order      string            `json:"order"`
}

// LoadMetadataV2 reads and parses a .zarray document from r.
func LoadMetadataV2(r io.Reader) (*MetadataV2, error) {
	var meta MetadataV2
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("zarr: decode .zarray: %w", err)
	}
	if meta.ZarrFormat != 2 {
		return nil, fmt.Errorf("zarr: unsupported zarr_format %d, expected 2", meta.ZarrFormat)
	}
	return &meta, nil
}

// ParseDType parses a numpy-style dtype string like "<f4", "|b1", "<i8"
// into a simplified name ("float32", "bool", "int64") and byte size.
// Big-endian ('>') encodings are rejected: this core is little-endian only.
func ParseDType(s string) (string, int, error) {
	if len(s) < 3 {
		return "", 0, fmt.Errorf("zarr: invalid dtype: %s", s)
	}

	endian := s[0]
	if endian == '>' {
		return "", 0, fmt.Errorf("zarr: big-endian dtypes are unsupported: %s", s)
	}

	kind := s[1]
	size, err := strconv.Atoi(s[2:])
	if err != nil {
		return "", 0, fmt.Errorf("zarr: invalid size in dtype: %s", s)
	}

	switch kind {
	case 'b':
		return "bool", size, nil
	case 'i':
		return fmt.Sprintf("int%d", size*8), size, nil
	case 'u':
		return fmt.Sprintf("uint%d", size*8), size, nil
	case 'f':
		return fmt.Sprintf("float%d", size*8), size, nil
	case 'c':
		return fmt.Sprintf("complex%d", size*8), size, nil
	default:
		return "", 0, fmt.Errorf("zarr: unsupported dtype kind %q in %s", kind, s)
	}
}

// toArrayMetadata translates a .zarray document into the ArrayMetadata
// shape newArray builds over, so callers can open a legacy V2 store through
// the same façade as a V3 one: the V2 key encoding has no "c" prefix and
// defaults to '.', and a compressor (if any) becomes a bytes→bytes codec
// appended after the mandatory "bytes" array→bytes codec.
func (m *MetadataV2) toArrayMetadata() (*ArrayMetadata, error) {
	name, _, err := ParseDType(m.DType)
	if err != nil {
		return nil, err
	}
	dt, err := datatype.ParseName(name)
	if err != nil {
		return nil, err
	}
	dataType, err := encodeDataType(dt)
	if err != nil {
		return nil, err
	}

	shape := make([]uint64, len(m.Shape))
	for i, s := range m.Shape {
		shape[i] = uint64(s)
	}
	chunkShape := make([]uint64, len(m.Chunks))
	for i, c := range m.Chunks {
		chunkShape[i] = uint64(c)
	}

	fv := datatype.Zero(dt)
	if m.FillValue != nil {
		var err error
		fv, err = decodeFillValue(dt, m.FillValue)
		if err != nil {
			return nil, err
		}
	}
	fillValue, err := encodeFillValue(fv)
	if err != nil {
		return nil, err
	}

	codecs := []NamedConfig{{Name: "bytes"}}
	if m.Compressor != nil {
		c, err := m.Compressor.toCodec()
		if err != nil {
			return nil, err
		}
		codecs = append(codecs, c)
	}

	return &ArrayMetadata{
		ZarrFormat:       3,
		NodeType:         "array",
		Shape:            shape,
		DataType:         dataType,
		ChunkGrid:        NamedConfig{Name: "regular", Configuration: map[string]any{"chunk_shape": toAnySlice(chunkShape)}},
		ChunkKeyEncoding: NamedConfig{Name: "v2", Configuration: map[string]any{"separator": "."}},
		FillValue:        fillValue,
		Codecs:           codecs,
	}, nil
}

// toCodec maps a numcodecs-style compressor descriptor to this core's
// bytes→bytes codec configuration. Only the compressors this core
// implements (zstd, gzip, blosc) are supported; anything else is a hard
// error rather than silently reading uncompressed garbage.
func (c *CompressorConfig) toCodec() (NamedConfig, error) {
	switch c.ID {
	case "zstd":
		return NamedConfig{Name: "zstd", Configuration: map[string]any{"level": c.Clevel}}, nil
	case "gzip", "zlib":
		return NamedConfig{Name: "gzip", Configuration: map[string]any{"level": c.Clevel}}, nil
	case "blosc":
		cname := c.Cname
		if cname == "" {
			cname = "zstd"
		}
		return NamedConfig{Name: "blosc", Configuration: map[string]any{
			"cname": cname, "clevel": c.Clevel, "shuffle": c.Shuffle,
		}}, nil
	default:
		return NamedConfig{}, fmt.Errorf("zarr: unsupported V2 compressor %q", c.ID)
	}
}
