package codec

import (
	"github.com/nimbusdata/zarrgo/internal/datatype"
)

// Blosc is registered under the "blosc" name so that zarr.json metadata
// produced by other implementations still loads, but it is backed by the
// same klauspost zstd/gzip codecs already wired for "zstd" and "gzip"
// rather than cgo bindings to the real c-blosc library. c-blosc itself is a
// C library with shuffle/bitshuffle pre-filters and its own block framing;
// nothing in the retrieval pack links against cgo or any Go blosc binding,
// so this codec degrades to "pick a klauspost backend by cname and skip
// blosc's byte-shuffle pre-filter", which keeps data round-trippable
// without pretending to produce wire-compatible blosc frames.
type Blosc struct {
	cname  string
	level  int
	shuffle int
}

func NewBlosc(cname string, level, shuffle int) *Blosc {
	return &Blosc{cname: cname, level: level, shuffle: shuffle}
}

func init() {
	RegisterBytesToBytes("blosc", func(cfg map[string]any) (BytesToBytesCodec, error) {
		return NewBlosc(
			configString(cfg, "cname", "zstd"),
			configInt(cfg, "clevel", 5),
			configInt(cfg, "shuffle", 0),
		), nil
	})
}

func (b *Blosc) Name() string                        { return "blosc" }
func (b *Blosc) PartialDecoderShouldCacheInput() bool { return false }
func (b *Blosc) PartialDecoderDecodesAll() bool       { return true }

func (b *Blosc) RecommendedConcurrency(datatype.BytesRepresentation) RecommendedConcurrency {
	return RecommendedConcurrency{Min: 1, Max: 4}
}

func (b *Blosc) ComputeEncodedSize(datatype.BytesRepresentation) (datatype.BytesRepresentation, error) {
	return datatype.Unbounded(), nil
}

func (b *Blosc) Encode(input []byte, _ Options) ([]byte, error) {
	switch b.cname {
	case "gzip", "zlib":
		return NewGzip(b.level).Encode(input, Options{})
	default:
		return NewZstd(b.level).Encode(input, Options{})
	}
}

func (b *Blosc) Decode(input []byte, opts Options) ([]byte, error) {
	// Sniff the wire format rather than trust cname, since this codec's
	// encoded bytes may have been produced by an older configuration.
	if len(input) >= 4 && input[0] == 0x1f && input[1] == 0x8b {
		return NewGzip(b.level).Decode(input, opts)
	}
	if len(input) >= 4 && input[0] == 0x28 && input[1] == 0xb5 && input[2] == 0x2f && input[3] == 0xfd {
		return NewZstd(b.level).Decode(input, opts)
	}
	return nil, &UnsupportedDataTypeError{Codec: b.Name(), DataType: "unrecognised blosc-compatible frame"}
}

func (b *Blosc) PartialDecoder(input BytesPartialDecoder, _ Options) (BytesPartialDecoder, error) {
	return &decodeAllPartialDecoder{input: input, decode: func(buf []byte) ([]byte, error) { return b.Decode(buf, Options{}) }}, nil
}

func (b *Blosc) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, _ Options) (BytesPartialEncoder, error) {
	return nil, ErrPartialEncodeUnsupported
}
