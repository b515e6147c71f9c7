package zarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/nimbusdata/zarrgo/internal/storage"
)

// Group binds a store to a node's zarr.json group document (§6: zarr_format
// 3, node_type "group", optional attributes). A group has no shape, chunk
// grid, or codecs of its own — it exists only to carry attributes and give
// child arrays/groups a path prefix.
type Group struct {
	store storage.Store
	path  NodePath
	meta  *GroupMetadata
}

// CreateGroup writes a fresh zarr.json group document at path and returns
// the opened Group.
func CreateGroup(ctx context.Context, store storage.Store, path NodePath, attrs map[string]any) (*Group, error) {
	meta := &GroupMetadata{ZarrFormat: 3, NodeType: "group", Attributes: attrs}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("zarr: encode zarr.json: %w", err)
	}
	if err := store.Set(ctx, path.MetadataKey(), raw); err != nil {
		return nil, err
	}
	return &Group{store: store, path: path, meta: meta}, nil
}

// OpenGroup reads path's zarr.json and builds the façade over it.
func OpenGroup(ctx context.Context, store storage.Store, path NodePath) (*Group, error) {
	raw, ok, err := store.Get(ctx, path.MetadataKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("zarr: no zarr.json at %s", path.MetadataKey())
	}
	var meta GroupMetadata
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&meta); err != nil {
		return nil, fmt.Errorf("zarr: decode zarr.json: %w", err)
	}
	if meta.ZarrFormat != 3 {
		return nil, fmt.Errorf("zarr: unsupported zarr_format %d, expected 3", meta.ZarrFormat)
	}
	if meta.NodeType != "group" {
		return nil, fmt.Errorf("zarr: zarr.json node_type %q, expected \"group\"", meta.NodeType)
	}
	return &Group{store: store, path: path, meta: &meta}, nil
}

// Path returns the node path this group was opened at.
func (g *Group) Path() NodePath { return g.path }

// Attributes returns the group's user attributes.
func (g *Group) Attributes() map[string]any { return g.meta.Attributes }

// CreateGroup creates a child group named name under g.
func (g *Group) CreateGroup(ctx context.Context, name string, attrs map[string]any) (*Group, error) {
	child, err := g.path.Child(name)
	if err != nil {
		return nil, err
	}
	return CreateGroup(ctx, g.store, child, attrs)
}

// CreateArray creates a child array named name under g, via b.
func (g *Group) CreateArray(ctx context.Context, name string, b *ArrayBuilder) (*Array, error) {
	child, err := g.path.Child(name)
	if err != nil {
		return nil, err
	}
	return b.Create(ctx, g.store, child)
}

// OpenGroup opens a child group named name under g.
func (g *Group) OpenGroup(ctx context.Context, name string) (*Group, error) {
	child, err := g.path.Child(name)
	if err != nil {
		return nil, err
	}
	return OpenGroup(ctx, g.store, child)
}

// OpenArray opens a child array named name under g.
func (g *Group) OpenArray(ctx context.Context, name string) (*Array, error) {
	child, err := g.path.Child(name)
	if err != nil {
		return nil, err
	}
	return OpenArray(ctx, g.store, child)
}
