package sharding

import (
	"context"
	"sync"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/chunkgrid"
	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

// shardPartialDecoder implements codec.ArrayPartialDecoder over a shard's
// raw bytes partial decoder, caching the decoded index for its lifetime
// (§4.G).
type shardPartialDecoder struct {
	c         *Codec
	store     codec.BytesPartialDecoder
	rep       codec.ChunkRepresentation
	opts      codec.Options
	grid      *chunkgrid.Regular
	gridShp   []uint64
	numChunks uint64

	mu      sync.Mutex
	fetched bool
	entries []IndexEntry
	err     error
}

func (c *Codec) PartialDecoder(store codec.BytesPartialDecoder, rep codec.ChunkRepresentation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	grid, gridShp, numChunks, err := c.innerGrid(rep.Shape)
	if err != nil {
		return nil, err
	}
	return &shardPartialDecoder{c: c, store: store, rep: rep, opts: opts, grid: grid, gridShp: gridShp, numChunks: numChunks}, nil
}

func (d *shardPartialDecoder) ensureIndex(ctx context.Context) ([]IndexEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fetched {
		return d.entries, d.err
	}
	d.fetched = true
	indexSize, err := indexByteSize(d.c.indexChain, d.numChunks)
	if err != nil {
		d.err = err
		return nil, err
	}
	var rng bytesutil.ByteRange
	if d.c.indexLocation == IndexStart {
		rng = bytesutil.FromStart(0, &indexSize)
	} else {
		rng = bytesutil.FromEnd(0, &indexSize)
	}
	parts, present, err := d.store.PartialDecode(ctx, []bytesutil.ByteRange{rng})
	if err != nil {
		d.err = err
		return nil, err
	}
	if !present {
		// An entirely-absent shard decodes as an all-absent index.
		entries := make([]IndexEntry, d.numChunks)
		for i := range entries {
			entries[i] = Sentinel
		}
		d.entries = entries
		return entries, nil
	}
	entries, err := decodeIndex(parts[0], d.numChunks, d.c.indexChain, d.opts)
	if err != nil {
		d.err = err
		return nil, err
	}
	d.entries = entries
	return entries, nil
}

// chunkPartialDecoder builds an inner codec-chain partial decoder backed by
// a byte-interval-clipped view of the shard's store handle, pointed at one
// inner chunk's slice.
func (d *shardPartialDecoder) chunkPartialDecoder(ctx context.Context, entry IndexEntry, innerRep codec.ChunkRepresentation) (codec.ArrayPartialDecoder, error) {
	clipped := newByteIntervalPartialDecoder(d.store, entry.Offset, entry.Length)
	return d.c.innerChain.PartialDecoder(clipped, innerRep, d.opts)
}

func (d *shardPartialDecoder) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, rep codec.ChunkRepresentation, opts codec.Options) ([]datatype.ArrayBytes, error) {
	out := make([]datatype.ArrayBytes, len(subsets))
	for i, s := range subsets {
		buf, err := d.decodeOne(ctx, s, rep, opts)
		if err != nil {
			return nil, err
		}
		ab, err := datatype.NewFixed(rep.DataType, buf)
		if err != nil {
			return nil, err
		}
		out[i] = ab
	}
	return out, nil
}

// decodeOne implements the three-step procedure of §4.G's partial decoding
// section: translate the subset into intersecting inner chunks, resolve
// each via the index (sentinel → fill value, else a byte-interval-clipped
// inner codec-chain partial decode), and copy results into the output in
// the caller's coordinate frame.
func (d *shardPartialDecoder) decodeOne(ctx context.Context, subset indexer.ArraySubset, rep codec.ChunkRepresentation, opts codec.Options) ([]byte, error) {
	size, ok := rep.DataType.FixedSize()
	if !ok {
		return nil, &codec.ExpectedFixedLengthBytesError{Codec: d.c.Name()}
	}
	entries, err := d.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, subset.NumElements()*uint64(size))
	chunkIt := subset.Chunks(d.c.chunkShape)
	for {
		chunkIdx, overlapInArray, ok := chunkIt.Next()
		if !ok {
			break
		}
		lin := linearChunkIndex(chunkIdx, d.gridShp)
		entry := entries[lin]
		chunkSubset, err := d.grid.ChunkSubset(chunkIdx, rep.Shape)
		if err != nil {
			return nil, err
		}
		relOverlap, err := overlapInArray.RelativeTo(subset)
		if err != nil {
			return nil, err
		}
		relInChunk, err := overlapInArray.RelativeToOrigin(chunkSubset.Start())
		if err != nil {
			return nil, err
		}
		var data []byte
		if entry.IsAbsent() {
			data = rep.FillValue.Repeat(int(overlapInArray.NumElements()))
		} else {
			innerRep := codec.ChunkRepresentation{Shape: chunkSubset.Shape(), DataType: rep.DataType, FillValue: rep.FillValue}
			inner, err := d.chunkPartialDecoder(ctx, entry, innerRep)
			if err != nil {
				return nil, err
			}
			decoded, err := inner.PartialDecode(ctx, []indexer.ArraySubset{relInChunk}, innerRep, opts)
			if err != nil {
				return nil, err
			}
			data, err = decoded[0].IntoFixed()
			if err != nil {
				return nil, err
			}
		}
		writeInnerChunk(out, subset.Shape(), size, relOverlap, data)
	}
	return out, nil
}

func (d *shardPartialDecoder) PartialDecodeInto(ctx context.Context, subset indexer.ArraySubset, rep codec.ChunkRepresentation, out codec.OutputView, opts codec.Options) error {
	buf, err := d.decodeOne(ctx, subset, rep, opts)
	if err != nil {
		return err
	}
	return out.WriteRun(make([]uint64, subset.Dimensionality()), buf)
}

func linearChunkIndex(idx, gridShape []uint64) uint64 {
	var lin uint64
	for d := range idx {
		lin = lin*gridShape[d] + idx[d]
	}
	return lin
}
