package codec

import (
	"bytes"
	"context"
	"io"

	kgzip "github.com/klauspost/compress/gzip"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/datatype"
)

// Gzip is a bytes→bytes codec backed by klauspost/compress/gzip, a
// drop-in-faster gzip implementation from the same module the teacher
// already depends on for zstd. Like every general-purpose compressor in
// this core, its partial decoder must decompress the whole value before it
// can slice a byte range out of it — there is no seekable gzip format —
// so it declares PartialDecoderDecodesAll so the chain inserts a cache.
type Gzip struct {
	level int
}

func NewGzip(level int) *Gzip { return &Gzip{level: level} }

func init() {
	RegisterBytesToBytes("gzip", func(cfg map[string]any) (BytesToBytesCodec, error) {
		return NewGzip(configInt(cfg, "level", kgzip.DefaultCompression)), nil
	})
}

func (g *Gzip) Name() string                        { return "gzip" }
func (g *Gzip) PartialDecoderShouldCacheInput() bool { return false }
func (g *Gzip) PartialDecoderDecodesAll() bool       { return true }

func (g *Gzip) RecommendedConcurrency(datatype.BytesRepresentation) RecommendedConcurrency {
	return Serial()
}

func (g *Gzip) ComputeEncodedSize(datatype.BytesRepresentation) (datatype.BytesRepresentation, error) {
	return datatype.Unbounded(), nil
}

func (g *Gzip) Encode(input []byte, _ Options) ([]byte, error) {
	var buf bytes.Buffer
	w, err := kgzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(input); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Gzip) Decode(input []byte, _ Options) ([]byte, error) {
	r, err := kgzip.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type decodeAllPartialDecoder struct {
	input  BytesPartialDecoder
	decode func([]byte) ([]byte, error)
}

func (g *Gzip) PartialDecoder(input BytesPartialDecoder, _ Options) (BytesPartialDecoder, error) {
	return &decodeAllPartialDecoder{input: input, decode: g.Decode2}, nil
}

// Decode2 adapts Decode to the Options-free shape decodeAllPartialDecoder
// wants; it always verifies nothing (bytes→bytes compressors here carry no
// checksum of their own).
func (g *Gzip) Decode2(b []byte) ([]byte, error) { return g.Decode(b, Options{}) }

func (d *decodeAllPartialDecoder) PartialDecode(ctx context.Context, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	full, present, err := d.input.PartialDecode(ctx, []bytesutil.ByteRange{bytesutil.FromStart(0, nil)})
	if err != nil || !present {
		return nil, present, err
	}
	decoded, err := d.decode(full[0])
	if err != nil {
		return nil, true, err
	}
	out, err := bytesutil.ExtractByteRanges(decoded, ranges)
	return out, true, err
}

func (g *Gzip) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, _ Options) (BytesPartialEncoder, error) {
	return nil, ErrPartialEncodeUnsupported
}
