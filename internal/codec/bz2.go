package codec

// bz2 is registered only as a named plugin that refuses construction.
// Go's standard library compress/bzip2 is decode-only (there is no
// bzip2.Writer), and no example anywhere in the retrieval pack links a
// bzip2 encoder of any kind. Rather than hand-roll a bzip2 encoder (a
// Burrows-Wheeler transform plus Huffman stage, far past what any codec
// here needs) or silently fall back to a different wire format under the
// "bz2" name, construction fails with a clear PluginCreateError so callers
// find out at store-open time instead of shipping data nothing else can
// read back as bz2.
func init() {
	RegisterBytesToBytes("bz2", func(map[string]any) (BytesToBytesCodec, error) {
		return nil, &PluginCreateError{Kind: "codec", Name: "bz2"}
	})
}
