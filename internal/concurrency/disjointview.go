package concurrency

// BufferView is the typed disjoint-view abstraction §4.H/§5/§9 require: a
// codec.OutputView over a rectangular sub-region of one shared buffer.
// Many goroutines, each holding a BufferView constructed over non-
// overlapping regions of the same underlying buf via Sub, may call
// WriteRun concurrently without synchronisation, since each view's writes
// land in a disjoint byte range of buf.
type BufferView struct {
	buf         []byte
	fullShape   []uint64 // shape of the whole allocation buf represents
	elementSize int
	origin      []uint64 // this view's offset within fullShape
	shape       []uint64 // this view's own shape
}

// NewBufferView wraps buf (which must be exactly len(shape-elements) *
// elementSize bytes) as the top-level view over the whole allocation.
func NewBufferView(buf []byte, fullShape []uint64, elementSize int) *BufferView {
	return &BufferView{
		buf:         buf,
		fullShape:   fullShape,
		elementSize: elementSize,
		origin:      make([]uint64, len(fullShape)),
		shape:       append([]uint64(nil), fullShape...),
	}
}

// Sub returns a view over the rectangular region [origin, origin+shape) of
// v's own coordinate frame — the façade calls this once per intersecting
// chunk with that chunk's overlap_relative_to_subset, then hands each
// resulting view to a different goroutine.
func (v *BufferView) Sub(origin, shape []uint64) *BufferView {
	abs := make([]uint64, len(origin))
	for i := range origin {
		abs[i] = v.origin[i] + origin[i]
	}
	return &BufferView{buf: v.buf, fullShape: v.fullShape, elementSize: v.elementSize, origin: abs, shape: append([]uint64(nil), shape...)}
}

func (v *BufferView) Shape() []uint64 { return append([]uint64(nil), v.shape...) }
func (v *BufferView) ElementSize() int { return v.elementSize }

// WriteRun writes data (n elements, contiguous in v's own C order) starting
// at multi-index start within v's own shape. The run is split at the end of
// each of v's rows and every piece is copied to its absolute C-order byte
// offset within the shared buffer, so all of it lands inside v's region.
func (v *BufferView) WriteRun(start []uint64, data []byte) error {
	d, es := len(start), uint64(v.elementSize)
	pos := linearise(start, v.shape)
	abs := make([]uint64, d)
	for len(data) > 0 {
		n := uint64(len(data))
		if d > 0 {
			n = min(n, (v.shape[d-1]-pos%v.shape[d-1])*es)
		}
		for i, rem := d-1, pos; i >= 0; i-- {
			abs[i] = v.origin[i] + rem%v.shape[i]
			rem /= v.shape[i]
		}
		copy(v.buf[linearise(abs, v.fullShape)*es:], data[:n])
		data, pos = data[n:], pos+n/es
	}
	return nil
}

func linearise(index, shape []uint64) uint64 {
	var lin uint64
	for d := range index {
		lin = lin*shape[d] + index[d]
	}
	return lin
}
