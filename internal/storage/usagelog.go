package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
)

// UsageLogStore wraps a Store and writes one line per get, set or erase call
// to an injected io.Writer, each line prefixed by a caller-supplied function
// (commonly a timestamp formatter). It exposes no metadata of its own
// (§4.B): every call is a transparent pass-through; the size and list calls
// write no log line.
type UsageLogStore struct {
	inner  Store
	w      io.Writer
	mu     sync.Mutex
	prefix func() string
}

// NewUsageLog wraps inner, logging to w with each line preceded by
// prefix().
func NewUsageLog(inner Store, w io.Writer, prefix func() string) *UsageLogStore {
	if prefix == nil {
		prefix = func() string { return "" }
	}
	return &UsageLogStore{inner: inner, w: w, prefix: prefix}
}

func (u *UsageLogStore) log(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.w, "%s%s\n", u.prefix(), fmt.Sprintf(format, args...))
}

func (u *UsageLogStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := u.inner.Get(ctx, key)
	u.log("get(%s) -> present=%v err=%v", key, ok, err)
	return v, ok, err
}

func (u *UsageLogStore) GetPartialValuesKey(ctx context.Context, key string, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	v, ok, err := u.inner.GetPartialValuesKey(ctx, key, ranges)
	u.log("get_partial_values_key(%s, %d ranges) -> present=%v err=%v", key, len(ranges), ok, err)
	return v, ok, err
}

func (u *UsageLogStore) GetPartialValues(ctx context.Context, requests []KeyRange) ([][]byte, error) {
	v, err := u.inner.GetPartialValues(ctx, requests)
	u.log("get_partial_values(%d requests) -> err=%v", len(requests), err)
	return v, err
}

func (u *UsageLogStore) SizeKey(ctx context.Context, key string) (uint64, bool, error) {
	return u.inner.SizeKey(ctx, key)
}

func (u *UsageLogStore) Set(ctx context.Context, key string, value []byte) error {
	w, ok := u.inner.(WritableStore)
	if !ok {
		return errNotWritable
	}
	err := w.Set(ctx, key, value)
	u.log("set(%s, %d bytes) -> err=%v", key, len(value), err)
	return err
}

func (u *UsageLogStore) SetPartialValues(ctx context.Context, writes []KeyValueSet) error {
	w, ok := u.inner.(WritableStore)
	if !ok {
		return errNotWritable
	}
	err := w.SetPartialValues(ctx, writes)
	u.log("set_partial_values(%d writes) -> err=%v", len(writes), err)
	return err
}

func (u *UsageLogStore) Erase(ctx context.Context, key string) (bool, error) {
	e, ok := u.inner.(EraseableStore)
	if !ok {
		return false, errNotErasable
	}
	removed, err := e.Erase(ctx, key)
	u.log("erase(%s) -> removed=%v err=%v", key, removed, err)
	return removed, err
}

func (u *UsageLogStore) EraseValues(ctx context.Context, keys []string) error {
	e, ok := u.inner.(EraseableStore)
	if !ok {
		return errNotErasable
	}
	err := e.EraseValues(ctx, keys)
	u.log("erase_values(%d keys) -> err=%v", len(keys), err)
	return err
}

func (u *UsageLogStore) ErasePrefix(ctx context.Context, prefix string) error {
	e, ok := u.inner.(EraseableStore)
	if !ok {
		return errNotErasable
	}
	err := e.ErasePrefix(ctx, prefix)
	u.log("erase_prefix(%s) -> err=%v", prefix, err)
	return err
}

func (u *UsageLogStore) Size(ctx context.Context) (uint64, error) {
	l, ok := u.inner.(ListableStore)
	if !ok {
		return 0, errNotListable
	}
	return l.Size(ctx)
}

func (u *UsageLogStore) SizePrefix(ctx context.Context, prefix string) (uint64, error) {
	l, ok := u.inner.(ListableStore)
	if !ok {
		return 0, errNotListable
	}
	return l.SizePrefix(ctx, prefix)
}

func (u *UsageLogStore) List(ctx context.Context) ([]string, error) {
	l, ok := u.inner.(ListableStore)
	if !ok {
		return nil, errNotListable
	}
	return l.List(ctx)
}

func (u *UsageLogStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	l, ok := u.inner.(ListableStore)
	if !ok {
		return nil, errNotListable
	}
	return l.ListPrefix(ctx, prefix)
}

func (u *UsageLogStore) ListDir(ctx context.Context, prefix string) (ListDirResult, error) {
	l, ok := u.inner.(ListableStore)
	if !ok {
		return ListDirResult{}, errNotListable
	}
	return l.ListDir(ctx, prefix)
}
