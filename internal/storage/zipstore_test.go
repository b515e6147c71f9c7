package storage_test

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/storage"
)

func buildTestZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("a/b.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("contents"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestZipStore_GetAndList(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemory()
	require.NoError(t, inner.Set(ctx, "archive.zip", buildTestZip(t)))

	z, err := storage.OpenZip(ctx, inner, "archive.zip")
	require.NoError(t, err)

	v, ok, err := z.Get(ctx, "a/b.txt")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("contents"), v)

	keys, err := z.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a/b.txt"}, keys)

	res, err := z.ListDir(ctx, "a/")
	require.NoError(t, err)
	require.Equal(t, []string{"a/b.txt"}, res.Keys)
}

func TestZipStore_GetMissingKey(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemory()
	require.NoError(t, inner.Set(ctx, "archive.zip", buildTestZip(t)))
	z, err := storage.OpenZip(ctx, inner, "archive.zip")
	require.NoError(t, err)

	_, ok, err := z.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenZip_MissingArchiveKey(t *testing.T) {
	ctx := context.Background()
	_, err := storage.OpenZip(ctx, storage.NewMemory(), "archive.zip")
	require.Error(t, err)
}
