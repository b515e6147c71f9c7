package indexer

// IndicesIterator yields every multi-index covered by the subset in C
// (row-major) order.
type IndicesIterator struct {
	subset  ArraySubset
	current []uint64
	done    bool
}

// Indices returns an iterator over every element coordinate in s.
func (s ArraySubset) Indices() *IndicesIterator {
	if s.IsEmpty() {
		return &IndicesIterator{subset: s, done: true}
	}
	return &IndicesIterator{subset: s, current: s.Start(), done: false}
}

// Next returns the next multi-index and true, or (nil, false) when
// exhausted. The returned slice is owned by the caller and safe to retain.
func (it *IndicesIterator) Next() ([]uint64, bool) {
	if it.done {
		return nil, false
	}
	out := append([]uint64(nil), it.current...)
	it.advance()
	return out, true
}

func (it *IndicesIterator) advance() {
	end := it.subset.EndExc()
	d := len(it.current)
	for i := d - 1; i >= 0; i-- {
		it.current[i]++
		if it.current[i] < end[i] {
			return
		}
		it.current[i] = it.subset.start[i]
		if i == 0 {
			it.done = true
		}
	}
	if d == 0 {
		// Zero-dimensional subset: exactly one (empty) index.
		it.done = true
	}
}

// LinearisedIndicesIterator yields the linear (flattened, C-order) index of
// each element of the subset with respect to arrayShape.
type LinearisedIndicesIterator struct {
	inner      *IndicesIterator
	arrayShape []uint64
}

// LinearisedIndices returns an iterator over the linear index, with respect
// to arrayShape, of each element in s.
func (s ArraySubset) LinearisedIndices(arrayShape []uint64) *LinearisedIndicesIterator {
	return &LinearisedIndicesIterator{inner: s.Indices(), arrayShape: arrayShape}
}

func (it *LinearisedIndicesIterator) Next() (uint64, bool) {
	idx, ok := it.inner.Next()
	if !ok {
		return 0, false
	}
	return linearise(idx, it.arrayShape), true
}

func linearise(index, shape []uint64) uint64 {
	var lin uint64
	for d := range index {
		lin = lin*shape[d] + index[d]
	}
	return lin
}

// ContiguousIndices yields (start-of-run, run-length) pairs, where each run
// is a maximal set of elements contiguous in arrayShape's C order. This is
// the iterator every fixed-size copy-in/out path uses to do one memcpy per
// run instead of per-element indexing (§4.C).
type ContiguousIndicesIterator struct {
	subset      ArraySubset
	arrayShape  []uint64
	contiguousDim int // smallest d such that subset spans the whole axis for all d' > contiguousDim... see below
	runLength   uint64
	current     []uint64
	done        bool
}

// ContiguousIndices constructs the contiguous-run iterator of s with
// respect to arrayShape. Construction walks from the slowest-varying axis:
// the run length is shape[d]*...*shape[D-1] for the smallest d such that the
// subset spans the whole of every axis > d; the run only ever extends
// across a dimension boundary when every faster-varying axis is spanned in
// full, exactly as contiguous C-order layout requires.
func (s ArraySubset) ContiguousIndices(arrayShape []uint64) *ContiguousIndicesIterator {
	d := s.Dimensionality()
	if d == 0 {
		// A zero-dimensional subset is one scalar element: one run of
		// length 1 at the (empty) index.
		return &ContiguousIndicesIterator{subset: s, arrayShape: arrayShape, runLength: 1, current: []uint64{}, done: s.IsEmpty()}
	}
	if s.IsEmpty() {
		return &ContiguousIndicesIterator{subset: s, arrayShape: arrayShape, done: true}
	}
	// Find the largest contiguous trailing axis run: fold the fastest
	// axis unconditionally, then keep folding outer axes as long as the
	// axis just folded spans the array's full extent (meaning there is
	// no gap between successive rows along it).
	runLen := uint64(1)
	splitDim := d // first dimension folded into the run
	for axis := d - 1; axis >= 0; axis-- {
		runLen *= s.shape[axis]
		splitDim = axis
		if s.shape[axis] != arrayShape[axis] {
			break
		}
	}
	return &ContiguousIndicesIterator{
		subset:        s,
		arrayShape:    arrayShape,
		contiguousDim: splitDim,
		runLength:     runLen,
		current:       s.Start(),
		done:          false,
	}
}

// Next returns the start multi-index of the next run and its length in
// elements, or (nil, 0, false) when exhausted.
func (it *ContiguousIndicesIterator) Next() ([]uint64, uint64, bool) {
	if it.done {
		return nil, 0, false
	}
	start := append([]uint64(nil), it.current...)
	d := len(it.current)
	if d == 0 {
		it.done = true
		return start, it.runLength, true
	}
	// Advance past the folded run: increment the dimensions at and
	// before contiguousDim-1, treating [contiguousDim, d) as consumed
	// wholesale by this run.
	end := it.subset.EndExc()
	i := it.contiguousDim - 1
	if i < 0 {
		it.done = true
		return start, it.runLength, true
	}
	for ; i >= 0; i-- {
		it.current[i]++
		if it.current[i] < end[i] {
			for j := it.contiguousDim; j < d; j++ {
				it.current[j] = it.subset.start[j]
			}
			return start, it.runLength, true
		}
		it.current[i] = it.subset.start[i]
		if i == 0 {
			it.done = true
		}
	}
	return start, it.runLength, true
}

// ContiguousLinearisedIndicesIterator is ContiguousIndicesIterator with the
// run start expressed as a linear index into arrayShape rather than a
// multi-index.
type ContiguousLinearisedIndicesIterator struct {
	inner *ContiguousIndicesIterator
}

func (s ArraySubset) ContiguousLinearisedIndices(arrayShape []uint64) *ContiguousLinearisedIndicesIterator {
	return &ContiguousLinearisedIndicesIterator{inner: s.ContiguousIndices(arrayShape)}
}

func (it *ContiguousLinearisedIndicesIterator) Next() (uint64, uint64, bool) {
	idx, runLen, ok := it.inner.Next()
	if !ok {
		return 0, 0, false
	}
	return linearise(idx, it.inner.arrayShape), runLen, true
}

// ChunkIterator yields (chunkIndices, chunkSubsetInArray) pairs for every
// chunk of chunkShape that s intersects.
type ChunkIterator struct {
	subset     ArraySubset
	chunkShape []uint64
	current    []uint64 // chunk indices
	startChunk []uint64
	endChunk   []uint64
	done       bool
}

// Chunks returns an iterator over every chunk of a regular grid with the
// given chunkShape that s intersects, yielding each chunk's indices and the
// portion of that chunk (in array coordinates) that s covers.
func (s ArraySubset) Chunks(chunkShape []uint64) *ChunkIterator {
	d := s.Dimensionality()
	if d == 0 || s.IsEmpty() {
		return &ChunkIterator{done: true}
	}
	startChunk := make([]uint64, d)
	endChunk := make([]uint64, d)
	end := s.EndExc()
	for i := 0; i < d; i++ {
		startChunk[i] = s.start[i] / chunkShape[i]
		endChunk[i] = (end[i] - 1) / chunkShape[i]
	}
	return &ChunkIterator{
		subset:     s,
		chunkShape: chunkShape,
		current:    append([]uint64(nil), startChunk...),
		startChunk: startChunk,
		endChunk:   endChunk,
		done:       false,
	}
}

// Next returns the next chunk's indices and the sub-rectangle (in array
// coordinates) of s that intersects that chunk.
func (it *ChunkIterator) Next() (chunkIndices []uint64, chunkSubsetInArray ArraySubset, ok bool) {
	if it.done {
		return nil, ArraySubset{}, false
	}
	indices := append([]uint64(nil), it.current...)
	d := len(indices)
	chunkStart := make([]uint64, d)
	chunkEnd := make([]uint64, d)
	subsetEnd := it.subset.EndExc()
	for i := 0; i < d; i++ {
		chunkStart[i] = indices[i] * it.chunkShape[i]
		chunkEnd[i] = chunkStart[i] + it.chunkShape[i]
	}
	overlapStart := make([]uint64, d)
	overlapShape := make([]uint64, d)
	for i := 0; i < d; i++ {
		st := max64(chunkStart[i], it.subset.start[i])
		en := min64(chunkEnd[i], subsetEnd[i])
		overlapStart[i] = st
		if en > st {
			overlapShape[i] = en - st
		}
	}
	subset := ArraySubset{start: overlapStart, shape: overlapShape}

	// Advance odometer.
	i := d - 1
	for ; i >= 0; i-- {
		it.current[i]++
		if it.current[i] <= it.endChunk[i] {
			break
		}
		it.current[i] = it.startChunk[i]
		if i == 0 {
			it.done = true
		}
	}
	if i < 0 {
		it.done = true
	}
	return indices, subset, true
}
