// Package storeadapter wires a github.com/nimbusdata/zarrgo/internal/storage.Store
// onto gocloud.dev/blob, the teacher's own way of reaching a pluggable
// storage backend (file, in-memory, S3, GCS, Azure — selected by the bucket
// URL scheme, exactly as TuSKan/zarr-gomlx's Dataset.NewDataset does via
// blob.OpenBucket). zarr.Dataset opens its arrays through it; the other
// store-backed tests use the in-memory storage.Memory. spec.md places
// concrete store backends out of scope, but the bridge from our narrow KV interface onto an existing
// pluggable blob abstraction is core glue, not a backend.
package storeadapter

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
	"github.com/nimbusdata/zarrgo/internal/storage"
)

// BlobStore adapts a *blob.Bucket to storage.Store plus the writable,
// erasable, and listable capability sets. Bucket partial reads are done via
// Bucket.NewRangeReader with an offset and length, mirroring how the teacher already
// uses the bucket for whole-value reads in Dataset.readMetadata/NextBatch.
type BlobStore struct {
	bucket *blob.Bucket
}

// New wraps an already-opened bucket.
func New(bucket *blob.Bucket) *BlobStore {
	return &BlobStore{bucket: bucket}
}

// Open opens the bucket at urlstr (e.g. "file:///tmp/arr", "mem://") the
// same way the teacher's NewDataset does, and wraps it.
func Open(ctx context.Context, urlstr string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, fmt.Errorf("storeadapter: failed to open bucket %q: %w", urlstr, err)
	}
	return New(bucket), nil
}

// Close releases the underlying bucket.
func (s *BlobStore) Close() error { return s.bucket.Close() }

func isNotFound(err error) bool {
	return err != nil && gcerrors.Code(err) == gcerrors.NotFound
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storeadapter: get %q: %w", key, err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("storeadapter: read %q: %w", key, err)
	}
	return b, true, nil
}

func (s *BlobStore) GetPartialValuesKey(ctx context.Context, key string, ranges []bytesutil.ByteRange) ([][]byte, bool, error) {
	size, ok, err := s.SizeKey(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end := r.Extent(size)
		if start > end || end > size {
			return nil, true, &bytesutil.InvalidByteRangeError{Range: r, ValueLen: size}
		}
		reader, err := s.bucket.NewRangeReader(ctx, key, int64(start), int64(end-start), nil)
		if err != nil {
			return nil, true, fmt.Errorf("storeadapter: partial read %q: %w", key, err)
		}
		b, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return nil, true, fmt.Errorf("storeadapter: partial read %q: %w", key, err)
		}
		out[i] = b
	}
	return out, true, nil
}

func (s *BlobStore) GetPartialValues(ctx context.Context, requests []storage.KeyRange) ([][]byte, error) {
	out := make([][]byte, len(requests))
	for i, req := range requests {
		vals, ok, err := s.GetPartialValuesKey(ctx, req.Key, []bytesutil.ByteRange{req.Range})
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = vals[0]
		}
	}
	return out, nil
}

func (s *BlobStore) SizeKey(ctx context.Context, key string) (uint64, bool, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if isNotFound(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("storeadapter: size %q: %w", key, err)
	}
	return uint64(attrs.Size), true, nil
}

func (s *BlobStore) Size(ctx context.Context) (uint64, error) {
	return s.SizePrefix(ctx, "")
}

func (s *BlobStore) SizePrefix(ctx context.Context, prefix string) (uint64, error) {
	var total uint64
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("storeadapter: list %q: %w", prefix, err)
		}
		if !obj.IsDir {
			total += uint64(obj.Size)
		}
	}
	return total, nil
}

func (s *BlobStore) List(ctx context.Context) ([]string, error) {
	return s.ListPrefix(ctx, "")
}

func (s *BlobStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("storeadapter: list %q: %w", prefix, err)
		}
		if !obj.IsDir {
			out = append(out, obj.Key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *BlobStore) ListDir(ctx context.Context, prefix string) (storage.ListDirResult, error) {
	var res storage.ListDirResult
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("storeadapter: list_dir %q: %w", prefix, err)
		}
		if obj.IsDir || strings.HasSuffix(obj.Key, "/") {
			res.Prefixes = append(res.Prefixes, obj.Key)
		} else {
			res.Keys = append(res.Keys, obj.Key)
		}
	}
	sort.Strings(res.Keys)
	sort.Strings(res.Prefixes)
	return res, nil
}

func (s *BlobStore) Set(ctx context.Context, key string, value []byte) error {
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("storeadapter: set %q: %w", key, err)
	}
	if _, err := w.Write(value); err != nil {
		w.Close()
		return fmt.Errorf("storeadapter: set %q: %w", key, err)
	}
	return w.Close()
}

// SetPartialValues emulates offset-anchored partial writes via
// read-modify-write, since gocloud.dev/blob exposes no native range-write
// primitive across its backends — exactly the fallback §4.A mandates for
// stores that "cannot do this natively". Callers needing real concurrent
// safety across chunk writes rely on the façade's per-chunk mutex, not on
// this method being atomic by itself.
func (s *BlobStore) SetPartialValues(ctx context.Context, writes []storage.KeyValueSet) error {
	byKey := make(map[string][]storage.KeyValueSet)
	var order []string
	for _, w := range writes {
		if _, seen := byKey[w.Key]; !seen {
			order = append(order, w.Key)
		}
		byKey[w.Key] = append(byKey[w.Key], w)
	}
	for _, key := range order {
		existing, _, err := s.Get(ctx, key)
		if err != nil {
			return err
		}
		for _, w := range byKey[key] {
			end := w.Offset + uint64(len(w.Value))
			if uint64(len(existing)) < end {
				grown := make([]byte, end)
				copy(grown, existing)
				existing = grown
			}
			copy(existing[w.Offset:end], w.Value)
		}
		if err := s.Set(ctx, key, existing); err != nil {
			return err
		}
	}
	return nil
}

func (s *BlobStore) Erase(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.SizeKey(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := s.bucket.Delete(ctx, key); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("storeadapter: erase %q: %w", key, err)
	}
	return true, nil
}

func (s *BlobStore) EraseValues(ctx context.Context, keys []string) error {
	for _, k := range keys {
		if _, err := s.Erase(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *BlobStore) ErasePrefix(ctx context.Context, prefix string) error {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	return s.EraseValues(ctx, keys)
}
