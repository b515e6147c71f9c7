package zarr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/storage"
)

func TestStoreKeyPartialDecoder_DelegatesToStoreKey(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(context.Background(), "a/b", []byte("0123456789")))

	d := storeKeyPartialDecoder{store: store, key: "a/b"}
	length := uint64(3)
	out, present, err := d.PartialDecode(context.Background(), []bytesutil.ByteRange{bytesutil.FromStart(2, &length)})
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, []byte("234"), out[0])
}

func TestStoreKeyPartialEncoder_WritesAtOffset(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(context.Background(), "a/b", []byte("0000000000")))

	e := storeKeyPartialEncoder{store: store, key: "a/b"}
	require.NoError(t, e.PartialEncode(context.Background(), []codec.BytesWrite{{Offset: 2, Data: []byte("XY")}}))

	got, ok, err := store.Get(context.Background(), "a/b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("00XY000000"), got)
}
