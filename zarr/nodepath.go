package zarr

import (
	"fmt"
	"strings"

	"github.com/nimbusdata/zarrgo/internal/chunkgrid"
)

// NodePath is a validated, '/'-rooted path addressing an array or group
// within a store: no trailing slash (except the root, which is "/"), and
// no "//" anywhere. This is the minimal node/path model the core needs to
// address arrays — full hierarchy traversal (walking a group's children,
// discovering arrays under a prefix) is out of scope.
type NodePath struct {
	path string
}

// Root is the path of the top-level node.
func Root() NodePath { return NodePath{path: "/"} }

// NewNodePath validates and constructs a NodePath from p, which must start
// with '/'.
func NewNodePath(p string) (NodePath, error) {
	if !strings.HasPrefix(p, "/") {
		return NodePath{}, fmt.Errorf("zarr: node path %q must start with '/'", p)
	}
	if p != "/" && strings.HasSuffix(p, "/") {
		return NodePath{}, fmt.Errorf("zarr: node path %q must not end with '/'", p)
	}
	if strings.Contains(p, "//") {
		return NodePath{}, fmt.Errorf("zarr: node path %q must not contain '//'", p)
	}
	return NodePath{path: p}, nil
}

// String returns the path as given ("/" for the root).
func (n NodePath) String() string { return n.path }

// StripLeadingSlash returns the path with its single leading '/' removed
// (the root becomes ""), the form used as a store key prefix per §6:
// "strip_leading_slash(P) + '/' + chunk_key_encoding.encode(I)".
func (n NodePath) StripLeadingSlash() string {
	return strings.TrimPrefix(n.path, "/")
}

// MetadataKey returns the store key of this node's zarr.json document.
func (n NodePath) MetadataKey() string {
	prefix := n.StripLeadingSlash()
	if prefix == "" {
		return "zarr.json"
	}
	return prefix + "/zarr.json"
}

// Child returns the path of a child node named name (no slashes).
func (n NodePath) Child(name string) (NodePath, error) {
	if name == "" || strings.Contains(name, "/") {
		return NodePath{}, fmt.Errorf("zarr: invalid child node name %q", name)
	}
	if n.path == "/" {
		return NodePath{path: "/" + name}, nil
	}
	return NodePath{path: n.path + "/" + name}, nil
}

// ChunkKey returns the store key of the chunk at indices within this
// array's node, per §6: strip_leading_slash(P) + "/" + encode(I).
func (n NodePath) ChunkKey(enc chunkgrid.KeyEncoding, indices []uint64) string {
	prefix := n.StripLeadingSlash()
	frag := enc.Encode(indices)
	if prefix == "" {
		return frag
	}
	return prefix + "/" + frag
}
