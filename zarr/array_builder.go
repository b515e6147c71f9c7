package zarr

import (
	"context"
	"fmt"

	"github.com/nimbusdata/zarrgo/internal/chunkgrid"
	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/storage"
)

// ArrayBuilder constructs a zarr.json document and, via Create, writes it to
// a store and opens the resulting Array — the write counterpart to
// OpenArray. Every field but Shape, ChunkShape, and DataType has a spec
// default (§6): row-major "default" chunk key encoding with '/', the zero
// fill value, and a single "bytes" codec.
type ArrayBuilder struct {
	Shape      []uint64
	ChunkShape []uint64
	DataType   datatype.DataType

	FillValue        *datatype.FillValue
	ChunkKeyEncoding *chunkgrid.KeyEncoding
	Codecs           []NamedConfig
	Attributes       map[string]any
	DimensionNames   []*string
}

// NewArrayBuilder returns a builder for an array of shape, chunked as
// chunkShape, holding elements of dt.
func NewArrayBuilder(shape, chunkShape []uint64, dt datatype.DataType) *ArrayBuilder {
	return &ArrayBuilder{Shape: shape, ChunkShape: chunkShape, DataType: dt}
}

// WithFillValue overrides the default zero fill value.
func (b *ArrayBuilder) WithFillValue(fv datatype.FillValue) *ArrayBuilder {
	b.FillValue = &fv
	return b
}

// WithCodecs overrides the default single "bytes" codec with an explicit
// array→array*, array→bytes, bytes→bytes* chain.
func (b *ArrayBuilder) WithCodecs(codecs ...NamedConfig) *ArrayBuilder {
	b.Codecs = codecs
	return b
}

// WithAttributes sets the node's user attributes.
func (b *ArrayBuilder) WithAttributes(attrs map[string]any) *ArrayBuilder {
	b.Attributes = attrs
	return b
}

// Metadata builds the zarr.json document this builder describes, without
// touching any store.
func (b *ArrayBuilder) Metadata() (*ArrayMetadata, error) {
	if len(b.Shape) != len(b.ChunkShape) {
		return nil, fmt.Errorf("zarr: shape has %d dims, chunk shape has %d", len(b.Shape), len(b.ChunkShape))
	}
	dataType, err := encodeDataType(b.DataType)
	if err != nil {
		return nil, err
	}

	fv := datatype.Zero(b.DataType)
	if b.FillValue != nil {
		fv = *b.FillValue
	}
	fillValue, err := encodeFillValue(fv)
	if err != nil {
		return nil, err
	}

	keyEnc := chunkgrid.NewDefault(chunkgrid.SeparatorSlash)
	if b.ChunkKeyEncoding != nil {
		keyEnc = *b.ChunkKeyEncoding
	}
	var sep *string
	s := keyEnc.Separator().String()
	sep = &s

	codecs := b.Codecs
	if codecs == nil {
		codecs = []NamedConfig{{Name: "bytes"}}
	}

	return &ArrayMetadata{
		ZarrFormat:       3,
		NodeType:         "array",
		Shape:            append([]uint64(nil), b.Shape...),
		DataType:         dataType,
		ChunkGrid:        NamedConfig{Name: "regular", Configuration: map[string]any{"chunk_shape": toAnySlice(b.ChunkShape)}},
		ChunkKeyEncoding: NamedConfig{Name: keyEnc.Name(), Configuration: map[string]any{"separator": *sep}},
		FillValue:        fillValue,
		Codecs:           codecs,
		Attributes:       b.Attributes,
		DimensionNames:   b.DimensionNames,
	}, nil
}

// Create writes this builder's zarr.json to store at path and returns the
// opened Array.
func (b *ArrayBuilder) Create(ctx context.Context, store storage.Store, path NodePath) (*Array, error) {
	meta, err := b.Metadata()
	if err != nil {
		return nil, err
	}
	raw, err := meta.Encode()
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, path.MetadataKey(), raw); err != nil {
		return nil, err
	}
	return newArray(store, path, meta)
}

func toAnySlice(u []uint64) []any {
	out := make([]any, len(u))
	for i, v := range u {
		out[i] = v
	}
	return out
}
