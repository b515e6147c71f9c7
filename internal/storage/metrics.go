package storage

import (
	"context"
	"sync/atomic"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
)

// MetricsStore wraps a Store and maintains atomic counters of bytes
// read/written, reads, writes, and lock acquisitions (§4.B). It exposes no
// metadata of its own — it is a transparent pass-through for every
// operation beyond counting.
type MetricsStore struct {
	inner Store

	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
	reads        atomic.Uint64
	writes       atomic.Uint64
	locks        atomic.Uint64
}

// NewMetrics wraps inner with performance counters.
func NewMetrics(inner Store) *MetricsStore {
	return &MetricsStore{inner: inner}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	BytesRead    uint64
	BytesWritten uint64
	Reads        uint64
	Writes       uint64
	Locks        uint64
}

func (m *MetricsStore) Snapshot() Snapshot {
	return Snapshot{
		BytesRead:    m.bytesRead.Load(),
		BytesWritten: m.bytesWritten.Load(),
		Reads:        m.reads.Load(),
		Writes:       m.writes.Load(),
		Locks:        m.locks.Load(),
	}
}

// RecordLock increments the lock counter reported in Metrics.Locks, the
// same metrics surface as I/O. Neither the store operations nor
// concurrency.ChunkLocks call it; the counter moves only when RecordLock is
// called directly.
func (m *MetricsStore) RecordLock() { m.locks.Add(1) }

func (m *MetricsStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := m.inner.Get(ctx, key)
	m.reads.Add(1)
	if ok {
		m.bytesRead.Add(uint64(len(v)))
	}
	return v, ok, err
}

func (m *MetricsStore) GetPartialValuesKey(ctx context.Context, key string, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	vals, ok, err := m.inner.GetPartialValuesKey(ctx, key, ranges)
	m.reads.Add(1)
	if ok {
		for _, v := range vals {
			m.bytesRead.Add(uint64(len(v)))
		}
	}
	return vals, ok, err
}

func (m *MetricsStore) GetPartialValues(ctx context.Context, requests []KeyRange) ([][]byte, error) {
	vals, err := m.inner.GetPartialValues(ctx, requests)
	m.reads.Add(uint64(len(requests)))
	for _, v := range vals {
		m.bytesRead.Add(uint64(len(v)))
	}
	return vals, err
}

func (m *MetricsStore) SizeKey(ctx context.Context, key string) (uint64, bool, error) {
	return m.inner.SizeKey(ctx, key)
}

func (m *MetricsStore) wrapWritable() (WritableStore, bool) {
	w, ok := m.inner.(WritableStore)
	return w, ok
}

func (m *MetricsStore) Set(ctx context.Context, key string, value []byte) error {
	w, ok := m.wrapWritable()
	if !ok {
		return errNotWritable
	}
	m.writes.Add(1)
	m.bytesWritten.Add(uint64(len(value)))
	return w.Set(ctx, key, value)
}

func (m *MetricsStore) SetPartialValues(ctx context.Context, writes []KeyValueSet) error {
	w, ok := m.wrapWritable()
	if !ok {
		return errNotWritable
	}
	m.writes.Add(uint64(len(writes)))
	for _, wr := range writes {
		m.bytesWritten.Add(uint64(len(wr.Value)))
	}
	return w.SetPartialValues(ctx, writes)
}

// Inner returns the wrapped store, for capability type-assertions
// (listable/erasable) that pass through metrics unchanged.
func (m *MetricsStore) Inner() Store { return m.inner }

func (m *MetricsStore) Erase(ctx context.Context, key string) (bool, error) {
	e, ok := m.inner.(EraseableStore)
	if !ok {
		return false, errNotErasable
	}
	m.writes.Add(1)
	return e.Erase(ctx, key)
}

func (m *MetricsStore) EraseValues(ctx context.Context, keys []string) error {
	e, ok := m.inner.(EraseableStore)
	if !ok {
		return errNotErasable
	}
	m.writes.Add(uint64(len(keys)))
	return e.EraseValues(ctx, keys)
}

func (m *MetricsStore) ErasePrefix(ctx context.Context, prefix string) error {
	e, ok := m.inner.(EraseableStore)
	if !ok {
		return errNotErasable
	}
	m.writes.Add(1)
	return e.ErasePrefix(ctx, prefix)
}

func (m *MetricsStore) Size(ctx context.Context) (uint64, error) {
	l, ok := m.inner.(ListableStore)
	if !ok {
		return 0, errNotListable
	}
	return l.Size(ctx)
}

func (m *MetricsStore) SizePrefix(ctx context.Context, prefix string) (uint64, error) {
	l, ok := m.inner.(ListableStore)
	if !ok {
		return 0, errNotListable
	}
	return l.SizePrefix(ctx, prefix)
}

func (m *MetricsStore) List(ctx context.Context) ([]string, error) {
	l, ok := m.inner.(ListableStore)
	if !ok {
		return nil, errNotListable
	}
	return l.List(ctx)
}

func (m *MetricsStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	l, ok := m.inner.(ListableStore)
	if !ok {
		return nil, errNotListable
	}
	return l.ListPrefix(ctx, prefix)
}

func (m *MetricsStore) ListDir(ctx context.Context, prefix string) (ListDirResult, error) {
	l, ok := m.inner.(ListableStore)
	if !ok {
		return ListDirResult{}, errNotListable
	}
	return l.ListDir(ctx, prefix)
}
