// Package indexer implements ArraySubset: an N-D hyper-rectangle and the
// iteration/overlap/relative arithmetic the array façade and the codec
// chain use to move between array coordinates, chunk coordinates, and flat
// byte offsets (§3, §4.C of the core spec).
package indexer

import "fmt"

// ArraySubset is a hyper-rectangle (start, shape) within an array's
// coordinate space.
type ArraySubset struct {
	start []uint64
	shape []uint64
}

// New validates and constructs an ArraySubset.
func New(start, shape []uint64) (ArraySubset, error) {
	if len(start) != len(shape) {
		return ArraySubset{}, fmt.Errorf("indexer: start has %d dims, shape has %d", len(start), len(shape))
	}
	s := make([]uint64, len(start))
	sh := make([]uint64, len(shape))
	copy(s, start)
	copy(sh, shape)
	return ArraySubset{start: s, shape: sh}, nil
}

// NewFromShape builds the subset covering the whole of shape, i.e.
// start = 0, shape = shape.
func NewFromShape(shape []uint64) ArraySubset {
	return ArraySubset{start: make([]uint64, len(shape)), shape: append([]uint64(nil), shape...)}
}

// Dimensionality returns the number of dimensions.
func (s ArraySubset) Dimensionality() int { return len(s.start) }

// Start returns a copy of the start coordinates.
func (s ArraySubset) Start() []uint64 { return append([]uint64(nil), s.start...) }

// Shape returns a copy of the shape.
func (s ArraySubset) Shape() []uint64 { return append([]uint64(nil), s.shape...) }

// EndExc returns the exclusive end coordinate in each dimension
// (start[d] + shape[d]).
func (s ArraySubset) EndExc() []uint64 {
	end := make([]uint64, len(s.start))
	for d := range s.start {
		end[d] = s.start[d] + s.shape[d]
	}
	return end
}

// NumElements returns the product of shape, the element count covered.
func (s ArraySubset) NumElements() uint64 {
	n := uint64(1)
	for _, sh := range s.shape {
		n *= sh
	}
	return n
}

// IsEmpty reports whether the subset covers zero elements.
func (s ArraySubset) IsEmpty() bool {
	for _, sh := range s.shape {
		if sh == 0 {
			return true
		}
	}
	return false
}

// Inbounds reports whether s lies entirely within [0, arrayShape) in every
// dimension.
func (s ArraySubset) Inbounds(arrayShape []uint64) bool {
	if len(arrayShape) != len(s.start) {
		return false
	}
	end := s.EndExc()
	for d := range arrayShape {
		if end[d] > arrayShape[d] {
			return false
		}
	}
	return true
}

func checkSameDims(a, b ArraySubset) error {
	if a.Dimensionality() != b.Dimensionality() {
		return fmt.Errorf("indexer: dimensionality mismatch: %d vs %d", a.Dimensionality(), b.Dimensionality())
	}
	return nil
}

// Overlap returns the intersection of s and other. The result may have
// zero-length dimensions (an empty subset) if they do not actually overlap.
func (s ArraySubset) Overlap(other ArraySubset) (ArraySubset, error) {
	if err := checkSameDims(s, other); err != nil {
		return ArraySubset{}, err
	}
	d := s.Dimensionality()
	start := make([]uint64, d)
	shape := make([]uint64, d)
	sEnd := s.EndExc()
	oEnd := other.EndExc()
	for i := 0; i < d; i++ {
		st := max64(s.start[i], other.start[i])
		en := min64(sEnd[i], oEnd[i])
		start[i] = st
		if en > st {
			shape[i] = en - st
		} else {
			shape[i] = 0
		}
	}
	return ArraySubset{start: start, shape: shape}, nil
}

// RelativeTo returns s with origin subtracted from its start — i.e. s
// expressed in a coordinate frame whose zero is origin's start. It fails if
// dimensionalities mismatch; it does not require s to be inside origin
// (callers that need that should check separately), but every component of
// s.start must be >= origin.start componentwise or the subtraction
// underflows, which is treated as a programmer error (panics only in debug
// builds is not available in Go, so we return an error instead).
func (s ArraySubset) RelativeTo(origin ArraySubset) (ArraySubset, error) {
	if err := checkSameDims(s, origin); err != nil {
		return ArraySubset{}, err
	}
	d := s.Dimensionality()
	start := make([]uint64, d)
	for i := 0; i < d; i++ {
		if s.start[i] < origin.start[i] {
			return ArraySubset{}, fmt.Errorf("indexer: subset start %d is before origin start %d on axis %d", s.start[i], origin.start[i], i)
		}
		start[i] = s.start[i] - origin.start[i]
	}
	return ArraySubset{start: start, shape: append([]uint64(nil), s.shape...)}, nil
}

// RelativeToOrigin subtracts an origin point (not a subset) from s.start,
// used when translating a subset into an inner chunk's own coordinate
// frame given just the inner chunk's start point.
func (s ArraySubset) RelativeToOrigin(origin []uint64) (ArraySubset, error) {
	if len(origin) != s.Dimensionality() {
		return ArraySubset{}, fmt.Errorf("indexer: origin has %d dims, subset has %d", len(origin), s.Dimensionality())
	}
	start := make([]uint64, len(origin))
	for i := range origin {
		if s.start[i] < origin[i] {
			return ArraySubset{}, fmt.Errorf("indexer: subset start %d is before origin %d on axis %d", s.start[i], origin[i], i)
		}
		start[i] = s.start[i] - origin[i]
	}
	return ArraySubset{start: start, shape: append([]uint64(nil), s.shape...)}, nil
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func (s ArraySubset) String() string {
	return fmt.Sprintf("ArraySubset{start:%v, shape:%v}", s.start, s.shape)
}
