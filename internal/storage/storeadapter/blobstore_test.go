package storeadapter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	_ "gocloud.dev/blob/memblob"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/storage"
	"github.com/nimbusdata/zarrgo/internal/storage/storeadapter"
)

func TestBlobStore_GetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := storeadapter.Open(ctx, "mem://")
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("hello world")))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello world"), v)
}

func TestBlobStore_GetPartialValuesKey(t *testing.T) {
	ctx := context.Background()
	store, err := storeadapter.Open(ctx, "mem://")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", []byte("0123456789")))
	length := uint64(3)
	vals, ok, err := store.GetPartialValuesKey(ctx, "k", []bytesutil.ByteRange{
		bytesutil.FromStart(2, &length),
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("234"), vals[0])
}

func TestBlobStore_SetPartialValues_ExtendsValue(t *testing.T) {
	ctx := context.Background()
	store, err := storeadapter.Open(ctx, "mem://")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", []byte("ab")))
	require.NoError(t, store.SetPartialValues(ctx, []storage.KeyValueSet{
		{Key: "k", Offset: 4, Value: []byte("xy")},
	}))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{'a', 'b', 0, 0, 'x', 'y'}, v)
}

func TestBlobStore_EraseAndList(t *testing.T) {
	ctx := context.Background()
	store, err := storeadapter.Open(ctx, "mem://")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "a/1", []byte("x")))
	require.NoError(t, store.Set(ctx, "a/2", []byte("y")))

	keys, err := store.ListPrefix(ctx, "a/")
	require.NoError(t, err)
	require.Equal(t, []string{"a/1", "a/2"}, keys)

	removed, err := store.Erase(ctx, "a/1")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = store.Erase(ctx, "a/1")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestBlobStore_ErasePrefix(t *testing.T) {
	ctx := context.Background()
	store, err := storeadapter.Open(ctx, "mem://")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "a/1", []byte("x")))
	require.NoError(t, store.Set(ctx, "a/2", []byte("y")))
	require.NoError(t, store.Set(ctx, "b/1", []byte("z")))

	require.NoError(t, store.ErasePrefix(ctx, "a/"))
	keys, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b/1"}, keys)
}
