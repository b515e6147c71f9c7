// Package chunkgrid maps array coordinates to chunk indices and back
// (§4.D of the core spec). The only grid kind the core implements is the
// "regular" grid; other grids are left as an extension point named but not
// required by spec.md.
package chunkgrid

import (
	"fmt"

	"github.com/nimbusdata/zarrgo/internal/indexer"
)

// Regular is a chunk grid with a single fixed chunk shape: array coordinate
// i maps to chunk index i/chunkShape[d] along every axis.
type Regular struct {
	chunkShape []uint64
}

// NewRegular validates chunkShape (every dimension must be non-zero) and
// builds a Regular grid.
func NewRegular(chunkShape []uint64) (*Regular, error) {
	for d, c := range chunkShape {
		if c == 0 {
			return nil, fmt.Errorf("chunkgrid: chunk_shape[%d] must be non-zero", d)
		}
	}
	return &Regular{chunkShape: append([]uint64(nil), chunkShape...)}, nil
}

// ChunkShape returns the configured chunk shape.
func (g *Regular) ChunkShape() []uint64 { return append([]uint64(nil), g.chunkShape...) }

// Dimensionality returns the grid's dimensionality.
func (g *Regular) Dimensionality() int { return len(g.chunkShape) }

// ChunkIndicesFor returns the chunk indices containing array coordinate i.
func (g *Regular) ChunkIndicesFor(i []uint64) ([]uint64, error) {
	if len(i) != len(g.chunkShape) {
		return nil, fmt.Errorf("chunkgrid: coordinate has %d dims, grid has %d", len(i), len(g.chunkShape))
	}
	out := make([]uint64, len(i))
	for d := range i {
		out[d] = i[d] / g.chunkShape[d]
	}
	return out, nil
}

// GridShape returns the number of chunks along each axis needed to cover
// arrayShape (ceil division).
func (g *Regular) GridShape(arrayShape []uint64) ([]uint64, error) {
	if len(arrayShape) != len(g.chunkShape) {
		return nil, fmt.Errorf("chunkgrid: array shape has %d dims, grid has %d", len(arrayShape), len(g.chunkShape))
	}
	out := make([]uint64, len(arrayShape))
	for d := range arrayShape {
		out[d] = (arrayShape[d] + g.chunkShape[d] - 1) / g.chunkShape[d]
	}
	return out, nil
}

// ChunkSubset returns the subset, in array coordinates, that chunk
// `indices` occupies within an array of arrayShape: start = indices *
// chunkShape, shape = min(chunkShape, arrayShape - start) — the last chunk
// along any dimension may be smaller than chunkShape.
func (g *Regular) ChunkSubset(indices, arrayShape []uint64) (indexer.ArraySubset, error) {
	if len(indices) != len(g.chunkShape) || len(arrayShape) != len(g.chunkShape) {
		return indexer.ArraySubset{}, fmt.Errorf("chunkgrid: dimensionality mismatch")
	}
	start := make([]uint64, len(indices))
	shape := make([]uint64, len(indices))
	for d := range indices {
		start[d] = indices[d] * g.chunkShape[d]
		if start[d] >= arrayShape[d] {
			return indexer.ArraySubset{}, fmt.Errorf("chunkgrid: chunk index %d is out of bounds for axis %d (array extent %d)", indices[d], d, arrayShape[d])
		}
		remaining := arrayShape[d] - start[d]
		if remaining < g.chunkShape[d] {
			shape[d] = remaining
		} else {
			shape[d] = g.chunkShape[d]
		}
	}
	return indexer.New(start, shape)
}

// ChunksInArray returns the full chunk grid extent as an iterator-friendly
// ArraySubset of chunk indices: [0, GridShape(arrayShape)).
func (g *Regular) ChunksInArray(arrayShape []uint64) (indexer.ArraySubset, error) {
	gridShape, err := g.GridShape(arrayShape)
	if err != nil {
		return indexer.ArraySubset{}, err
	}
	return indexer.NewFromShape(gridShape), nil
}
