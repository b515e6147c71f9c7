package zarr

import (
	"context"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/storage"
)

// storeKeyPartialDecoder adapts a single store key to codec.BytesPartialDecoder.
type storeKeyPartialDecoder struct {
	store storage.ReadableStore
	key   string
}

func (d storeKeyPartialDecoder) PartialDecode(ctx context.Context, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	return d.store.GetPartialValuesKey(ctx, d.key, ranges)
}

// storeKeyPartialEncoder adapts a single store key to codec.BytesPartialEncoder.
type storeKeyPartialEncoder struct {
	store storage.WritableStore
	key   string
}

func (e storeKeyPartialEncoder) PartialEncode(ctx context.Context, writes []codec.BytesWrite) error {
	sets := make([]storage.KeyValueSet, len(writes))
	for i, w := range writes {
		sets[i] = storage.KeyValueSet{Key: e.key, Offset: w.Offset, Value: w.Data}
	}
	return e.store.SetPartialValues(ctx, sets)
}
