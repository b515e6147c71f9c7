package chunkgrid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/chunkgrid"
)

func TestRegular_GridShape(t *testing.T) {
	g, err := chunkgrid.NewRegular([]uint64{5, 2})
	require.NoError(t, err)
	shape, err := g.GridShape([]uint64{10, 3})
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 2}, shape)
}

func TestRegular_ChunkIndicesFor(t *testing.T) {
	g, _ := chunkgrid.NewRegular([]uint64{5, 2})
	idx, err := g.ChunkIndicesFor([]uint64{7, 1})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 0}, idx)
}

func TestRegular_ChunkSubset_LastChunkTruncated(t *testing.T) {
	g, _ := chunkgrid.NewRegular([]uint64{5, 2})
	s, err := g.ChunkSubset([]uint64{1, 0}, []uint64{7, 2})
	require.NoError(t, err)
	require.Equal(t, []uint64{5, 0}, s.Start())
	require.Equal(t, []uint64{2, 2}, s.Shape())
}

func TestRegular_ChunkSubset_OutOfBounds(t *testing.T) {
	g, _ := chunkgrid.NewRegular([]uint64{5, 2})
	_, err := g.ChunkSubset([]uint64{2, 0}, []uint64{7, 2})
	require.Error(t, err)
}

func TestRegular_ChunksInArray(t *testing.T) {
	g, _ := chunkgrid.NewRegular([]uint64{5, 2})
	s, err := g.ChunksInArray([]uint64{10, 3})
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 0}, s.Start())
	require.Equal(t, []uint64{2, 2}, s.Shape())
}

func TestNewRegular_RejectsZeroDimension(t *testing.T) {
	_, err := chunkgrid.NewRegular([]uint64{0, 2})
	require.Error(t, err)
}
