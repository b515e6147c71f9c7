package codec

import (
	kzstd "github.com/klauspost/compress/zstd"

	"github.com/nimbusdata/zarrgo/internal/datatype"
)

// Zstd is a bytes→bytes codec backed by github.com/klauspost/compress/zstd
// — the exact dependency the teacher already imports directly in
// dataset.go to decompress zarr chunks. Like gzip it has no seekable wire
// format, so partial decoding decompresses the whole value and is cached
// by the chain.
type Zstd struct {
	level kzstd.EncoderLevel
}

func NewZstd(level int) *Zstd {
	return &Zstd{level: kzstd.EncoderLevelFromZstd(level)}
}

func init() {
	RegisterBytesToBytes("zstd", func(cfg map[string]any) (BytesToBytesCodec, error) {
		return NewZstd(configInt(cfg, "level", 3)), nil
	})
}

func (z *Zstd) Name() string                        { return "zstd" }
func (z *Zstd) PartialDecoderShouldCacheInput() bool { return false }
func (z *Zstd) PartialDecoderDecodesAll() bool       { return true }

func (z *Zstd) RecommendedConcurrency(datatype.BytesRepresentation) RecommendedConcurrency {
	return RecommendedConcurrency{Min: 1, Max: 4}
}

func (z *Zstd) ComputeEncodedSize(datatype.BytesRepresentation) (datatype.BytesRepresentation, error) {
	return datatype.Unbounded(), nil
}

func (z *Zstd) Encode(input []byte, _ Options) ([]byte, error) {
	enc, err := kzstd.NewWriter(nil, kzstd.WithEncoderLevel(z.level))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(input, nil), nil
}

func (z *Zstd) Decode(input []byte, _ Options) ([]byte, error) {
	dec, err := kzstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(input, nil)
}

func (z *Zstd) PartialDecoder(input BytesPartialDecoder, _ Options) (BytesPartialDecoder, error) {
	return &decodeAllPartialDecoder{input: input, decode: func(b []byte) ([]byte, error) { return z.Decode(b, Options{}) }}, nil
}

func (z *Zstd) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, _ Options) (BytesPartialEncoder, error) {
	return nil, ErrPartialEncodeUnsupported
}
