package datatype

import "fmt"

// BytesRepresentationKind tags how large an encoded value is, as far as the
// codec chain's compute_encoded_size arithmetic can tell without actually
// encoding.
type BytesRepresentationKind int

const (
	// FixedSize means every encoding of a chunk_representation with this
	// shape/dtype has exactly N bytes.
	FixedSize BytesRepresentationKind = iota
	// BoundedSize means the encoding is at most N bytes (e.g. a
	// compressor that never expands beyond a known worst case).
	BoundedSize
	// UnboundedSize means no useful bound is known (general-purpose
	// compression).
	UnboundedSize
)

// BytesRepresentation is what a codec's compute_encoded_size returns: a
// claim about the size of its own output, propagated through the chain.
type BytesRepresentation struct {
	Kind BytesRepresentationKind
	Size uint64 // meaningful for FixedSize and BoundedSize
}

func Fixed(n uint64) BytesRepresentation {
	return BytesRepresentation{Kind: FixedSize, Size: n}
}

func Bounded(n uint64) BytesRepresentation {
	return BytesRepresentation{Kind: BoundedSize, Size: n}
}

func Unbounded() BytesRepresentation {
	return BytesRepresentation{Kind: UnboundedSize}
}

// ArrayBytes is the in-memory shape of a chunk's decoded elements: either a
// flat fixed-size buffer, or a flat buffer plus a monotonically
// non-decreasing offsets table for variable-length dtypes.
type ArrayBytes struct {
	dtype   DataType
	fixed   []byte
	varData []byte
	offsets []uint64 // len == num_elements+1 when varData is in use
}

// NewFixed wraps a flat fixed-size element buffer.
func NewFixed(dtype DataType, buf []byte) (ArrayBytes, error) {
	if dtype.IsVariableLength() {
		return ArrayBytes{}, fmt.Errorf("datatype: %s is variable-length, use NewVariable", dtype.Name())
	}
	size, _ := dtype.FixedSize()
	if size > 0 && len(buf)%size != 0 {
		return ArrayBytes{}, fmt.Errorf("datatype: buffer length %d is not a multiple of element size %d", len(buf), size)
	}
	return ArrayBytes{dtype: dtype, fixed: buf}, nil
}

// NewVariable wraps a flat payload buffer plus its offsets table. offsets
// must be monotonically non-decreasing and have len == numElements+1.
func NewVariable(dtype DataType, payload []byte, offsets []uint64) (ArrayBytes, error) {
	if !dtype.IsVariableLength() {
		return ArrayBytes{}, fmt.Errorf("datatype: %s is fixed-size, use NewFixed", dtype.Name())
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return ArrayBytes{}, fmt.Errorf("datatype: offsets table is not monotonic at index %d", i)
		}
	}
	if n := len(offsets); n > 0 && offsets[n-1] != uint64(len(payload)) {
		return ArrayBytes{}, fmt.Errorf("datatype: final offset %d does not match payload length %d", offsets[n-1], len(payload))
	}
	return ArrayBytes{dtype: dtype, varData: payload, offsets: offsets}, nil
}

// IsVariableLength reports which shape this ArrayBytes is in.
func (a ArrayBytes) IsVariableLength() bool { return a.dtype.IsVariableLength() }

// DataType returns the data type the bytes were built against.
func (a ArrayBytes) DataType() DataType { return a.dtype }

// IntoFixed returns the flat fixed-size buffer. It fails for
// variable-length data, per §4.J.
func (a ArrayBytes) IntoFixed() ([]byte, error) {
	if a.IsVariableLength() {
		return nil, fmt.Errorf("datatype: ArrayBytes.IntoFixed is unsupported for variable-length type %s", a.dtype.Name())
	}
	return a.fixed, nil
}

// Variable returns the payload and offsets table. It is the caller's
// responsibility to check IsVariableLength first.
func (a ArrayBytes) Variable() (payload []byte, offsets []uint64) {
	return a.varData, a.offsets
}

// NumElements returns the element count implied by the buffer shape.
func (a ArrayBytes) NumElements() uint64 {
	if a.IsVariableLength() {
		if len(a.offsets) == 0 {
			return 0
		}
		return uint64(len(a.offsets) - 1)
	}
	size, ok := a.dtype.FixedSize()
	if !ok || size == 0 {
		return 0
	}
	return uint64(len(a.fixed)) / uint64(size)
}

// Element returns the encoded bytes of element i, valid for either shape.
func (a ArrayBytes) Element(i uint64) []byte {
	if a.IsVariableLength() {
		return a.varData[a.offsets[i]:a.offsets[i+1]]
	}
	size, _ := a.dtype.FixedSize()
	return a.fixed[i*uint64(size) : (i+1)*uint64(size)]
}

// ConcatVariable renumbers offsets and concatenates payloads from multiple
// variable-length ArrayBytes in the given order — the merge step §9 calls
// out as distinct from the fixed-size memcpy-per-run path (used when
// assembling an array subset spanning several chunks for a string/bytes
// dtype).
func ConcatVariable(dtype DataType, parts []ArrayBytes) (ArrayBytes, error) {
	if !dtype.IsVariableLength() {
		return ArrayBytes{}, fmt.Errorf("datatype: ConcatVariable requires a variable-length type, got %s", dtype.Name())
	}
	var totalElems, totalBytes uint64
	for _, p := range parts {
		totalElems += p.NumElements()
		payload, _ := p.Variable()
		totalBytes += uint64(len(payload))
	}
	payload := make([]byte, 0, totalBytes)
	offsets := make([]uint64, 0, totalElems+1)
	offsets = append(offsets, 0)
	for _, p := range parts {
		src, srcOffsets := p.Variable()
		base := uint64(len(payload))
		payload = append(payload, src...)
		for i := 1; i < len(srcOffsets); i++ {
			offsets = append(offsets, base+srcOffsets[i])
		}
	}
	return NewVariable(dtype, payload, offsets)
}
