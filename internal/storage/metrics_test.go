package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/storage"
)

func TestMetricsStore_CountsReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemory()
	m := storage.NewMetrics(inner)

	require.NoError(t, m.Set(ctx, "k", []byte("hello")))
	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.Writes)
	require.Equal(t, uint64(5), snap.BytesWritten)
	require.Equal(t, uint64(1), snap.Reads)
	require.Equal(t, uint64(5), snap.BytesRead)
}

func TestMetricsStore_RecordLock(t *testing.T) {
	m := storage.NewMetrics(storage.NewMemory())
	m.RecordLock()
	m.RecordLock()
	require.Equal(t, uint64(2), m.Snapshot().Locks)
}

func TestMetricsStore_PassesThroughListAndErase(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMetrics(storage.NewMemory())
	require.NoError(t, m.Set(ctx, "a", []byte("1")))

	keys, err := m.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, keys)

	removed, err := m.Erase(ctx, "a")
	require.NoError(t, err)
	require.True(t, removed)
}
