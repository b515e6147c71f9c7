package zarr

import (
	"context"

	"github.com/nimbusdata/zarrgo/internal/concurrency"
	"github.com/nimbusdata/zarrgo/internal/datatype"
	"github.com/nimbusdata/zarrgo/internal/indexer"
)

type chunkHit struct {
	indices []uint64
	overlap indexer.ArraySubset
}

// intersectingChunks enumerates every chunk subset intersects, paired with
// the portion (in array coordinates) of that chunk subset actually covers.
func (a *Array) intersectingChunks(subset indexer.ArraySubset) []chunkHit {
	var hits []chunkHit
	it := subset.Chunks(a.grid.ChunkShape())
	for {
		indices, overlap, ok := it.Next()
		if !ok {
			break
		}
		if overlap.IsEmpty() {
			continue
		}
		hits = append(hits, chunkHit{indices: indices, overlap: overlap})
	}
	return hits
}

func sameSubset(x, y indexer.ArraySubset) bool {
	xs, ys := x.Start(), y.Start()
	xsh, ysh := x.Shape(), y.Shape()
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if xs[i] != ys[i] || xsh[i] != ysh[i] {
			return false
		}
	}
	return true
}

// extractFixedSubset copies the elements of subset (expressed against
// arrayShape) out of a flat fixed-size buffer laid out in C order.
func extractFixedSubset(whole []byte, arrayShape []uint64, elementSize int, subset indexer.ArraySubset) []byte {
	out := make([]byte, 0, subset.NumElements()*uint64(elementSize))
	it := subset.ContiguousLinearisedIndices(arrayShape)
	for {
		lin, runLen, ok := it.Next()
		if !ok {
			break
		}
		off := lin * uint64(elementSize)
		n := runLen * uint64(elementSize)
		out = append(out, whole[off:off+n]...)
	}
	return out
}

// scatterVariable writes ab's elements (enumerated in row-major order over
// localSubset's own shape) into elements at the positions localSubset
// covers within an array of arrayShape.
func scatterVariable(elements [][]byte, arrayShape []uint64, localSubset indexer.ArraySubset, ab datatype.ArrayBytes) {
	it := localSubset.LinearisedIndices(arrayShape)
	var idx uint64
	for {
		lin, ok := it.Next()
		if !ok {
			break
		}
		elements[lin] = append([]byte(nil), ab.Element(idx)...)
		idx++
	}
}

// gatherVariable reads elements (enumerated in row-major order over
// localSubset's own shape) out of the elements covered by localSubset
// within an array of arrayShape.
func gatherVariable(data datatype.ArrayBytes, arrayShape []uint64, localSubset indexer.ArraySubset) [][]byte {
	it := localSubset.LinearisedIndices(arrayShape)
	out := make([][]byte, 0, localSubset.NumElements())
	for {
		lin, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, data.Element(lin))
	}
	return out
}

// RetrieveArraySubset decodes the portion of the array covered by subset,
// fanning out across every chunk subset intersects with the bounded
// concurrency the §4.I split derives from opts and the codec chain's
// reported recommendation (§4.H retrieve_array_subset).
func (a *Array) RetrieveArraySubset(ctx context.Context, subset indexer.ArraySubset, opts CodecOptions) (datatype.ArrayBytes, error) {
	if subset.Dimensionality() != a.Dimensionality() || !subset.Inbounds(a.meta.Shape) {
		return datatype.ArrayBytes{}, &InvalidArraySubsetError{Subset: subset.String(), Shape: a.meta.Shape}
	}

	hits := a.intersectingChunks(subset)

	// Fast path: the whole request lands in exactly one chunk and covers
	// its full extent — skip partial decoding entirely.
	if len(hits) == 1 {
		chunkSubset, err := a.grid.ChunkSubset(hits[0].indices, a.meta.Shape)
		if err == nil && sameSubset(hits[0].overlap, subset) && sameSubset(chunkSubset, subset) {
			return a.RetrieveChunk(ctx, hits[0].indices, opts)
		}
	}

	rep := a.chunkRep(a.grid.ChunkShape())
	rc := a.chain.RecommendedConcurrency(rep)
	policy := concurrency.Resolve(opts.target(), uint64(len(hits)), rc.Min, rc.Max)
	perChunkOpts := opts
	perChunkOpts.ConcurrentTarget = policy.CodecTarget

	if a.dtype.IsVariableLength() {
		elements := make([][]byte, subset.NumElements())
		for _, h := range hits {
			chunkSubset, err := a.grid.ChunkSubset(h.indices, a.meta.Shape)
			if err != nil {
				return datatype.ArrayBytes{}, err
			}
			chunkLocal, err := h.overlap.RelativeToOrigin(chunkSubset.Start())
			if err != nil {
				return datatype.ArrayBytes{}, err
			}
			ab, err := a.RetrieveChunkSubset(ctx, h.indices, chunkLocal, perChunkOpts)
			if err != nil {
				return datatype.ArrayBytes{}, err
			}
			subsetLocal, err := h.overlap.RelativeTo(subset)
			if err != nil {
				return datatype.ArrayBytes{}, err
			}
			scatterVariable(elements, subset.Shape(), subsetLocal, ab)
		}
		parts := make([]datatype.ArrayBytes, len(elements))
		for i, e := range elements {
			ab, err := datatype.NewVariable(a.dtype, e, []uint64{0, uint64(len(e))})
			if err != nil {
				return datatype.ArrayBytes{}, err
			}
			parts[i] = ab
		}
		return datatype.ConcatVariable(a.dtype, parts)
	}

	size := a.dtype.MustFixedSize()
	buf := make([]byte, subset.NumElements()*uint64(size))
	view := concurrency.NewBufferView(buf, subset.Shape(), size)
	err := concurrency.FanOut(ctx, len(hits), policy.ChunkConcurrentLimit, func(ctx context.Context, i int) error {
		h := hits[i]
		chunkSubset, err := a.grid.ChunkSubset(h.indices, a.meta.Shape)
		if err != nil {
			return err
		}
		chunkLocal, err := h.overlap.RelativeToOrigin(chunkSubset.Start())
		if err != nil {
			return err
		}
		subsetLocal, err := h.overlap.RelativeTo(subset)
		if err != nil {
			return err
		}
		dest := view.Sub(subsetLocal.Start(), subsetLocal.Shape())
		chunkRep := a.chunkRep(chunkSubset.Shape())
		decoder, err := a.chain.PartialDecoder(storeKeyPartialDecoder{store: a.store, key: a.chunkKey(h.indices)}, chunkRep, perChunkOpts.toInternal())
		if err != nil {
			return err
		}
		return decoder.PartialDecodeInto(ctx, chunkLocal, chunkRep, dest, perChunkOpts.toInternal())
	})
	if err != nil {
		return datatype.ArrayBytes{}, err
	}
	return datatype.NewFixed(a.dtype, buf)
}

// StoreArraySubset writes data (covering subset) into the array, fanning
// out across every chunk subset intersects. Each chunk's write goes through
// StoreChunkSubset, which serialises per chunk and falls back to a
// decode-merge-encode of the whole chunk when the codec chain cannot
// partially rewrite its own encoding (§4.H store_array_subset).
func (a *Array) StoreArraySubset(ctx context.Context, subset indexer.ArraySubset, data datatype.ArrayBytes, opts CodecOptions) error {
	if subset.Dimensionality() != a.Dimensionality() || !subset.Inbounds(a.meta.Shape) {
		return &InvalidArraySubsetError{Subset: subset.String(), Shape: a.meta.Shape}
	}

	hits := a.intersectingChunks(subset)

	if len(hits) == 1 {
		chunkSubset, err := a.grid.ChunkSubset(hits[0].indices, a.meta.Shape)
		if err == nil && sameSubset(hits[0].overlap, subset) && sameSubset(chunkSubset, subset) {
			return a.StoreChunk(ctx, hits[0].indices, data, opts)
		}
	}

	rep := a.chunkRep(a.grid.ChunkShape())
	rc := a.chain.RecommendedConcurrency(rep)
	policy := concurrency.Resolve(opts.target(), uint64(len(hits)), rc.Min, rc.Max)
	perChunkOpts := opts
	perChunkOpts.ConcurrentTarget = policy.CodecTarget

	if a.dtype.IsVariableLength() {
		return concurrency.FanOut(ctx, len(hits), policy.ChunkConcurrentLimit, func(ctx context.Context, i int) error {
			h := hits[i]
			chunkSubset, err := a.grid.ChunkSubset(h.indices, a.meta.Shape)
			if err != nil {
				return err
			}
			chunkLocal, err := h.overlap.RelativeToOrigin(chunkSubset.Start())
			if err != nil {
				return err
			}
			subsetLocal, err := h.overlap.RelativeTo(subset)
			if err != nil {
				return err
			}
			elems := gatherVariable(data, subset.Shape(), subsetLocal)
			payload := make([]byte, 0)
			offsets := make([]uint64, 0, len(elems)+1)
			offsets = append(offsets, 0)
			for _, e := range elems {
				payload = append(payload, e...)
				offsets = append(offsets, uint64(len(payload)))
			}
			chunkData, err := datatype.NewVariable(a.dtype, payload, offsets)
			if err != nil {
				return err
			}
			return a.StoreChunkSubset(ctx, h.indices, chunkLocal, chunkData, perChunkOpts)
		})
	}

	size := a.dtype.MustFixedSize()
	buf, err := data.IntoFixed()
	if err != nil {
		return err
	}
	return concurrency.FanOut(ctx, len(hits), policy.ChunkConcurrentLimit, func(ctx context.Context, i int) error {
		h := hits[i]
		chunkSubset, err := a.grid.ChunkSubset(h.indices, a.meta.Shape)
		if err != nil {
			return err
		}
		chunkLocal, err := h.overlap.RelativeToOrigin(chunkSubset.Start())
		if err != nil {
			return err
		}
		subsetLocal, err := h.overlap.RelativeTo(subset)
		if err != nil {
			return err
		}
		sub := extractFixedSubset(buf, subset.Shape(), size, subsetLocal)
		chunkData, err := datatype.NewFixed(a.dtype, sub)
		if err != nil {
			return err
		}
		return a.StoreChunkSubset(ctx, h.indices, chunkLocal, chunkData, perChunkOpts)
	})
}
