package concurrency_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/concurrency"
)

func TestResolve_SplitsTargetAcrossChunksAndCodec(t *testing.T) {
	p := concurrency.Resolve(8, 10, 2, 0)
	require.Equal(t, uint64(4), p.ChunkConcurrentLimit)
	require.Equal(t, uint64(2), p.CodecTarget)
}

func TestResolve_ChunkLimitCappedByN(t *testing.T) {
	p := concurrency.Resolve(100, 3, 1, 0)
	require.Equal(t, uint64(3), p.ChunkConcurrentLimit)
}

func TestResolve_ZeroTargetTreatedAsOne(t *testing.T) {
	p := concurrency.Resolve(0, 5, 1, 0)
	require.Equal(t, uint64(1), p.ChunkConcurrentLimit)
	require.Equal(t, uint64(1), p.CodecTarget)
}

func TestResolve_CodecTargetCappedByCmax(t *testing.T) {
	p := concurrency.Resolve(16, 1, 1, 4)
	require.Equal(t, uint64(1), p.ChunkConcurrentLimit)
	require.Equal(t, uint64(4), p.CodecTarget)
}

func TestResolve_ZeroCminTreatedAsOne(t *testing.T) {
	p := concurrency.Resolve(4, 10, 0, 0)
	require.Equal(t, uint64(4), p.ChunkConcurrentLimit)
}
