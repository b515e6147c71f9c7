package zarr

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/nimbusdata/zarrgo/internal/chunkgrid"
	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/concurrency"
	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
	"github.com/nimbusdata/zarrgo/internal/storage"
)

// Array binds a store, a node's zarr.json metadata, the chunk grid it
// implies, and the codec chain that encodes and decodes chunks (§4.H). All
// chunk- and array-subset-level operations are methods on it.
type Array struct {
	store     storage.Store
	path      NodePath
	meta      *ArrayMetadata
	dtype     datatype.DataType
	fillValue datatype.FillValue
	grid      *chunkgrid.Regular
	keyEnc    chunkgrid.KeyEncoding
	chain     *codec.CodecChain
	locks     *concurrency.ChunkLocks

	// innerChunkShape is non-nil when the array's array→bytes codec is
	// sharding_indexed, giving the sharded readable extension (§4.K) the
	// inner grid it needs without introspecting the opaque codec chain.
	innerChunkShape []uint64
}

// OpenArray reads path's zarr.json from store and builds the façade over it.
func OpenArray(ctx context.Context, store storage.Store, path NodePath) (*Array, error) {
	raw, ok, err := store.Get(ctx, path.MetadataKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("zarr: no zarr.json at %s", path.MetadataKey())
	}
	meta, err := LoadArrayMetadata(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return newArray(store, path, meta)
}

// OpenArrayV2 reads path's legacy .zarray document from store and builds the
// façade over it, translating it to the V3 metadata shape first (§6, via
// MetadataV2.toArrayMetadata) — the same store, grid, and codec-chain
// plumbing OpenArray uses, so V2 and V3 arrays are interchangeable once
// opened.
func OpenArrayV2(ctx context.Context, store storage.Store, path NodePath) (*Array, error) {
	key := ".zarray"
	if prefix := path.StripLeadingSlash(); prefix != "" {
		key = prefix + "/.zarray"
	}
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("zarr: no .zarray at %s", key)
	}
	v2, err := LoadMetadataV2(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	meta, err := v2.toArrayMetadata()
	if err != nil {
		return nil, err
	}
	return newArray(store, path, meta)
}

func newArray(store storage.Store, path NodePath, meta *ArrayMetadata) (*Array, error) {
	dt, err := meta.resolveDataType()
	if err != nil {
		return nil, err
	}
	chunkShape, err := meta.resolveChunkShape()
	if err != nil {
		return nil, err
	}
	grid, err := chunkgrid.NewRegular(chunkShape)
	if err != nil {
		return nil, err
	}
	keyEnc, err := meta.resolveKeyEncoding()
	if err != nil {
		return nil, err
	}
	fv, err := meta.resolveFillValue(dt)
	if err != nil {
		return nil, err
	}
	chain, err := buildChain(meta.resolveCodecs())
	if err != nil {
		return nil, err
	}
	var innerChunkShape []uint64
	for _, c := range meta.Codecs {
		if c.Name == "sharding_indexed" {
			innerChunkShape, err = configUintSliceLocal(c.Configuration, "chunk_shape")
			if err != nil {
				return nil, err
			}
			break
		}
	}
	return &Array{
		store:           store,
		path:            path,
		meta:            meta,
		dtype:           dt,
		fillValue:       fv,
		grid:            grid,
		keyEnc:          keyEnc,
		chain:           chain,
		locks:           concurrency.NewChunkLocks(),
		innerChunkShape: innerChunkShape,
	}, nil
}

// Path returns the node path this array was opened at.
func (a *Array) Path() NodePath { return a.path }

// Shape returns the array's logical shape.
func (a *Array) Shape() []uint64 { return append([]uint64(nil), a.meta.Shape...) }

// DataType returns the array's element type.
func (a *Array) DataType() datatype.DataType { return a.dtype }

// FillValue returns the array's fill value.
func (a *Array) FillValue() datatype.FillValue { return a.fillValue }

// ChunkShape returns the regular grid's chunk shape.
func (a *Array) ChunkShape() []uint64 { return a.grid.ChunkShape() }

// Dimensionality returns the array's number of dimensions.
func (a *Array) Dimensionality() int { return len(a.meta.Shape) }

// GridShape returns the number of chunks along each axis.
func (a *Array) GridShape() ([]uint64, error) { return a.grid.GridShape(a.meta.Shape) }

// Attributes returns the array's user attributes as stored in zarr.json.
// The returned map is shared with the in-memory metadata; callers that want
// to mutate it should go through SetAttributes followed by StoreMetadata.
func (a *Array) Attributes() map[string]any { return a.meta.Attributes }

// SetAttributes replaces the array's in-memory attributes. It does not
// write through to the store; call StoreMetadata to persist the change.
func (a *Array) SetAttributes(attrs map[string]any) { a.meta.Attributes = attrs }

// SetShape resizes the array in place, the grow/shrink-along-existing-axes
// operation resizable arrays need (§4.H resize): dimensionality cannot
// change, but individual axis extents can grow or shrink freely since
// chunks are addressed by chunk-grid index and out-of-range chunks are
// simply never read again. It does not write through to the store; call
// StoreMetadata to persist the change.
func (a *Array) SetShape(shape []uint64) error {
	if len(shape) != len(a.meta.Shape) {
		return fmt.Errorf("zarr: cannot change array dimensionality from %d to %d", len(a.meta.Shape), len(shape))
	}
	a.meta.Shape = append([]uint64(nil), shape...)
	return nil
}

// StoreMetadata re-encodes the array's current metadata and writes it back
// to its zarr.json key, persisting changes made via SetAttributes or
// SetShape.
func (a *Array) StoreMetadata(ctx context.Context) error {
	raw, err := a.meta.Encode()
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.path.MetadataKey(), raw)
}

// chunkKeyExists reports whether a chunk is present at key without decoding
// its contents, via the store's size probe rather than a full Get — the
// existence check StoreChunk's all-fill-value path uses to avoid issuing a
// store write (an Erase) for a chunk that was never written in the first
// place.
func (a *Array) chunkKeyExists(ctx context.Context, key string) (bool, error) {
	_, ok, err := a.store.SizeKey(ctx, key)
	return ok, err
}

func (a *Array) chunkRep(chunkShape []uint64) codec.ChunkRepresentation {
	return codec.ChunkRepresentation{Shape: chunkShape, DataType: a.dtype, FillValue: a.fillValue}
}

func (a *Array) chunkKey(indices []uint64) string {
	return a.path.ChunkKey(a.keyEnc, indices)
}

func (a *Array) validateChunkIndices(indices []uint64) error {
	gridShape, err := a.grid.GridShape(a.meta.Shape)
	if err != nil {
		return err
	}
	if len(indices) != len(gridShape) {
		return &InvalidChunkGridIndicesError{Indices: indices, Shape: a.meta.Shape}
	}
	for d, idx := range indices {
		if idx >= gridShape[d] {
			return &InvalidChunkGridIndicesError{Indices: indices, Shape: a.meta.Shape}
		}
	}
	return nil
}

func productUint64(shape []uint64) uint64 {
	n := uint64(1)
	for _, s := range shape {
		n *= s
	}
	return n
}

// fillArrayBytes builds the canonical "entirely absent chunk" buffer of
// chunkShape: the fill value tiled for fixed-size types, or the fill
// value's single encoded element repeated with a fresh offsets table for
// variable-length types.
func fillArrayBytes(dt datatype.DataType, fv datatype.FillValue, chunkShape []uint64) (datatype.ArrayBytes, error) {
	n := productUint64(chunkShape)
	if !dt.IsVariableLength() {
		return datatype.NewFixed(dt, fv.Repeat(int(n)))
	}
	elem := fv.Bytes()
	payload := make([]byte, 0, uint64(len(elem))*n)
	offsets := make([]uint64, n+1)
	for i := uint64(0); i < n; i++ {
		payload = append(payload, elem...)
		offsets[i+1] = uint64(len(payload))
	}
	return datatype.NewVariable(dt, payload, offsets)
}

func (a *Array) isAllFillValue(data datatype.ArrayBytes) bool {
	if data.IsVariableLength() {
		return false
	}
	buf, err := data.IntoFixed()
	if err != nil {
		return false
	}
	return a.fillValue.EqualsAll(buf)
}

// retrieveDecoded fetches and decodes the chunk stored at key, substituting
// the fill value if it is absent (§4.H retrieve_chunk's core).
func (a *Array) retrieveDecoded(ctx context.Context, key string, chunkShape []uint64, opts CodecOptions) (datatype.ArrayBytes, error) {
	raw, ok, err := a.store.Get(ctx, key)
	if err != nil {
		return datatype.ArrayBytes{}, err
	}
	if !ok {
		return fillArrayBytes(a.dtype, a.fillValue, chunkShape)
	}
	return a.chain.Decode(raw, a.chunkRep(chunkShape), opts.toInternal())
}

// RetrieveChunk returns the decoded elements of the chunk at indices, or the
// array's fill value tiled to the chunk's shape if the chunk is absent.
func (a *Array) RetrieveChunk(ctx context.Context, indices []uint64, opts CodecOptions) (datatype.ArrayBytes, error) {
	if err := a.validateChunkIndices(indices); err != nil {
		return datatype.ArrayBytes{}, err
	}
	chunkSubset, err := a.grid.ChunkSubset(indices, a.meta.Shape)
	if err != nil {
		return datatype.ArrayBytes{}, err
	}
	return a.retrieveDecoded(ctx, a.chunkKey(indices), chunkSubset.Shape(), opts)
}

// RetrieveChunkIfExists returns the decoded chunk at indices and true, or
// (zero value, false, nil) if the chunk is genuinely absent — the variant
// callers that need to distinguish "absent" from "present and fill value"
// use.
func (a *Array) RetrieveChunkIfExists(ctx context.Context, indices []uint64, opts CodecOptions) (datatype.ArrayBytes, bool, error) {
	if err := a.validateChunkIndices(indices); err != nil {
		return datatype.ArrayBytes{}, false, err
	}
	chunkSubset, err := a.grid.ChunkSubset(indices, a.meta.Shape)
	if err != nil {
		return datatype.ArrayBytes{}, false, err
	}
	raw, ok, err := a.store.Get(ctx, a.chunkKey(indices))
	if err != nil || !ok {
		return datatype.ArrayBytes{}, false, err
	}
	ab, err := a.chain.Decode(raw, a.chunkRep(chunkSubset.Shape()), opts.toInternal())
	if err != nil {
		return datatype.ArrayBytes{}, false, err
	}
	return ab, true, nil
}

// StoreChunk encodes data and writes it as the chunk at indices. A chunk
// whose data is entirely fill value is erased rather than stored, the
// canonical "sparse by omission" representation (§4.H store_chunk).
func (a *Array) StoreChunk(ctx context.Context, indices []uint64, data datatype.ArrayBytes, opts CodecOptions) error {
	if err := a.validateChunkIndices(indices); err != nil {
		return err
	}
	chunkSubset, err := a.grid.ChunkSubset(indices, a.meta.Shape)
	if err != nil {
		return err
	}
	if a.isAllFillValue(data) {
		key := a.chunkKey(indices)
		exists, err := a.chunkKeyExists(ctx, key)
		if err != nil || !exists {
			return err
		}
		_, err = a.store.Erase(ctx, key)
		return err
	}
	encoded, err := a.chain.Encode(data, a.chunkRep(chunkSubset.Shape()), opts.toInternal())
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.chunkKey(indices), encoded)
}

// EraseChunk removes the chunk at indices, if present.
func (a *Array) EraseChunk(ctx context.Context, indices []uint64) error {
	if err := a.validateChunkIndices(indices); err != nil {
		return err
	}
	_, err := a.store.Erase(ctx, a.chunkKey(indices))
	return err
}

// RetrieveChunkSubset decodes just the portion of the chunk at indices
// covered by subset (expressed in chunk-local coordinates), via the codec
// chain's partial decoder — without materialising the rest of the chunk
// (§4.H retrieve_chunk_subset).
func (a *Array) RetrieveChunkSubset(ctx context.Context, indices []uint64, subset indexer.ArraySubset, opts CodecOptions) (datatype.ArrayBytes, error) {
	if err := a.validateChunkIndices(indices); err != nil {
		return datatype.ArrayBytes{}, err
	}
	chunkSubset, err := a.grid.ChunkSubset(indices, a.meta.Shape)
	if err != nil {
		return datatype.ArrayBytes{}, err
	}
	chunkShape := chunkSubset.Shape()
	if !subset.Inbounds(chunkShape) {
		return datatype.ArrayBytes{}, &InvalidArraySubsetError{Subset: subset.String(), Shape: chunkShape}
	}
	key := a.chunkKey(indices)
	rep := a.chunkRep(chunkShape)
	iopts := opts.toInternal()
	decoder, err := a.chain.PartialDecoder(storeKeyPartialDecoder{store: a.store, key: key}, rep, iopts)
	if err != nil {
		return datatype.ArrayBytes{}, err
	}
	out, err := decoder.PartialDecode(ctx, []indexer.ArraySubset{subset}, rep, iopts)
	if err != nil {
		return datatype.ArrayBytes{}, err
	}
	return out[0], nil
}

// StoreChunkSubset writes data into the portion of the chunk at indices
// covered by subset. It serialises against other StoreChunkSubset calls
// targeting the same chunk via a per-chunk mutex, tries the codec chain's
// partial encoder first, and falls back to decode-merge-encode of the
// whole chunk when the chain reports ErrPartialEncodeUnsupported (§4.H).
func (a *Array) StoreChunkSubset(ctx context.Context, indices []uint64, subset indexer.ArraySubset, data datatype.ArrayBytes, opts CodecOptions) error {
	if err := a.validateChunkIndices(indices); err != nil {
		return err
	}
	chunkSubset, err := a.grid.ChunkSubset(indices, a.meta.Shape)
	if err != nil {
		return err
	}
	chunkShape := chunkSubset.Shape()
	if !subset.Inbounds(chunkShape) {
		return &InvalidArraySubsetError{Subset: subset.String(), Shape: chunkShape}
	}
	key := a.chunkKey(indices)
	unlock := a.locks.Lock(key)
	defer unlock()

	rep := a.chunkRep(chunkShape)
	iopts := opts.toInternal()
	encoder, err := a.chain.PartialEncoder(
		storeKeyPartialDecoder{store: a.store, key: key},
		storeKeyPartialEncoder{store: a.store, key: key},
		rep, iopts)
	if err == nil {
		return encoder.PartialEncode(ctx, subset, data, rep, iopts)
	}
	if !errors.Is(err, codec.ErrPartialEncodeUnsupported) {
		return err
	}

	whole, err := a.retrieveDecoded(ctx, key, chunkShape, opts)
	if err != nil {
		return err
	}
	merged, err := mergeSubsetIntoChunk(a.dtype, whole, chunkShape, subset, data)
	if err != nil {
		return err
	}
	if a.isAllFillValue(merged) {
		_, err := a.store.Erase(ctx, key)
		return err
	}
	encoded, err := a.chain.Encode(merged, rep, iopts)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, encoded)
}

// mergeSubsetIntoChunk overwrites the elements of whole (a full chunkShape
// buffer) at subset with data's elements, returning the merged chunk — the
// decode-merge-encode fallback StoreChunkSubset uses when no codec in the
// chain can partially rewrite its own encoding.
func mergeSubsetIntoChunk(dt datatype.DataType, whole datatype.ArrayBytes, chunkShape []uint64, subset indexer.ArraySubset, data datatype.ArrayBytes) (datatype.ArrayBytes, error) {
	if dt.IsVariableLength() {
		return mergeVariableSubset(dt, whole, chunkShape, subset, data)
	}
	buf, err := whole.IntoFixed()
	if err != nil {
		return datatype.ArrayBytes{}, err
	}
	src, err := data.IntoFixed()
	if err != nil {
		return datatype.ArrayBytes{}, err
	}
	size := dt.MustFixedSize()
	merged := make([]byte, len(buf))
	copy(merged, buf)
	it := subset.ContiguousLinearisedIndices(chunkShape)
	pos := 0
	for {
		lin, runLen, ok := it.Next()
		if !ok {
			break
		}
		n := int(runLen) * size
		off := int(lin) * size
		copy(merged[off:off+n], src[pos:pos+n])
		pos += n
	}
	return datatype.NewFixed(dt, merged)
}

func mergeVariableSubset(dt datatype.DataType, whole datatype.ArrayBytes, chunkShape []uint64, subset indexer.ArraySubset, data datatype.ArrayBytes) (datatype.ArrayBytes, error) {
	total := whole.NumElements()
	mask := make([]bool, total)
	order := make([]uint64, 0, subset.NumElements())
	it := subset.LinearisedIndices(chunkShape)
	for {
		lin, ok := it.Next()
		if !ok {
			break
		}
		mask[lin] = true
		order = append(order, lin)
	}
	pos := make(map[uint64]uint64, len(order))
	for i, lin := range order {
		pos[lin] = uint64(i)
	}

	parts := make([]datatype.ArrayBytes, total)
	for lin := uint64(0); lin < total; lin++ {
		var elem []byte
		if mask[lin] {
			elem = data.Element(pos[lin])
		} else {
			elem = whole.Element(lin)
		}
		cp := append([]byte(nil), elem...)
		ab, err := datatype.NewVariable(dt, cp, []uint64{0, uint64(len(cp))})
		if err != nil {
			return datatype.ArrayBytes{}, err
		}
		parts[lin] = ab
	}
	return datatype.ConcatVariable(dt, parts)
}
