package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
)

// Memory is a reference Store implementation backed by an in-memory map. It
// satisfies all four capability sets and is mainly used by the module's own
// tests and by callers who want a store with no external backend at all —
// concrete persistent backends are out of this core's scope (spec.md §1),
// but an in-memory map is the natural "trivial store" used throughout the
// retrieval pack's own store tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (m *Memory) GetPartialValuesKey(_ context.Context, key string, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	out, err := bytesutil.ExtractByteRanges(v, ranges)
	if err != nil {
		return nil, true, err
	}
	return out, true, nil
}

func (m *Memory) GetPartialValues(ctx context.Context, requests []KeyRange) ([][]byte, error) {
	out := make([][]byte, len(requests))
	for i, req := range requests {
		vals, ok, err := m.GetPartialValuesKey(ctx, req.Key, []bytesutil.ByteRange{req.Range})
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = vals[0]
		}
	}
	return out, nil
}

func (m *Memory) SizeKey(_ context.Context, key string) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return 0, false, nil
	}
	return uint64(len(v)), true, nil
}

func (m *Memory) Size(ctx context.Context) (uint64, error) {
	return m.SizePrefix(ctx, "")
}

func (m *Memory) SizePrefix(_ context.Context, prefix string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total uint64
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			total += uint64(len(v))
		}
	}
	return total, nil
}

func (m *Memory) List(ctx context.Context) ([]string, error) {
	return m.ListPrefix(ctx, "")
}

func (m *Memory) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) ListDir(_ context.Context, prefix string) (ListDirResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keySet := map[string]struct{}{}
	prefixSet := map[string]struct{}{}
	for k := range m.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			prefixSet[prefix+rest[:idx+1]] = struct{}{}
		} else if rest != "" {
			keySet[k] = struct{}{}
		}
	}
	res := ListDirResult{}
	for k := range keySet {
		res.Keys = append(res.Keys, k)
	}
	for p := range prefixSet {
		res.Prefixes = append(res.Prefixes, p)
	}
	sort.Strings(res.Keys)
	sort.Strings(res.Prefixes)
	return res, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = cp
	return nil
}

func (m *Memory) SetPartialValues(_ context.Context, writes []KeyValueSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		existing := m.data[w.Key]
		end := w.Offset + uint64(len(w.Value))
		if uint64(len(existing)) < end {
			grown := make([]byte, end)
			copy(grown, existing)
			existing = grown
		}
		copy(existing[w.Offset:end], w.Value)
		m.data[w.Key] = existing
	}
	return nil
}

func (m *Memory) Erase(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	delete(m.data, key)
	return ok, nil
}

func (m *Memory) EraseValues(ctx context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) ErasePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}
