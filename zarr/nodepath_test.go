package zarr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/chunkgrid"
	"github.com/nimbusdata/zarrgo/zarr"
)

func TestNewNodePath_RejectsMissingLeadingSlash(t *testing.T) {
	_, err := zarr.NewNodePath("foo")
	require.Error(t, err)
}

func TestNewNodePath_RejectsTrailingSlash(t *testing.T) {
	_, err := zarr.NewNodePath("/foo/")
	require.Error(t, err)
}

func TestNewNodePath_RejectsDoubleSlash(t *testing.T) {
	_, err := zarr.NewNodePath("/foo//bar")
	require.Error(t, err)
}

func TestRoot_StringAndMetadataKey(t *testing.T) {
	root := zarr.Root()
	require.Equal(t, "/", root.String())
	require.Equal(t, "", root.StripLeadingSlash())
	require.Equal(t, "zarr.json", root.MetadataKey())
}

func TestNodePath_MetadataKey_NonRoot(t *testing.T) {
	p, err := zarr.NewNodePath("/foo/bar")
	require.NoError(t, err)
	require.Equal(t, "foo/bar", p.StripLeadingSlash())
	require.Equal(t, "foo/bar/zarr.json", p.MetadataKey())
}

func TestNodePath_Child(t *testing.T) {
	root := zarr.Root()
	child, err := root.Child("foo")
	require.NoError(t, err)
	require.Equal(t, "/foo", child.String())

	grandchild, err := child.Child("bar")
	require.NoError(t, err)
	require.Equal(t, "/foo/bar", grandchild.String())
}

func TestNodePath_Child_RejectsEmptyOrSlashed(t *testing.T) {
	root := zarr.Root()
	_, err := root.Child("")
	require.Error(t, err)
	_, err = root.Child("a/b")
	require.Error(t, err)
}

func TestNodePath_ChunkKey(t *testing.T) {
	p, err := zarr.NewNodePath("/foo")
	require.NoError(t, err)
	enc := chunkgrid.NewDefault(0)
	key := p.ChunkKey(enc, []uint64{1, 2})
	require.Equal(t, "foo/c/1/2", key)
}

func TestNodePath_ChunkKey_Root(t *testing.T) {
	root := zarr.Root()
	enc := chunkgrid.NewDefault(0)
	key := root.ChunkKey(enc, []uint64{0})
	require.Equal(t, "c/0", key)
}
