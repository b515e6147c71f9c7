// Package storage implements the narrow key-value store interface (§4.A)
// that every chunk and every metadata document is read from and written
// to, plus the transformers and adapters (§4.B) that compose over it:
// performance metrics, a usage log, and a read-only ZIP view.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/nimbusdata/zarrgo/internal/bytesutil"
)

// KeyNotFoundError is returned by operations that require a key to exist
// (e.g. get_partial_values_key against a genuinely required key) where the
// store-level contract is "absent is an error" rather than "absent is
// nil". Most read paths instead use the (Bytes, bool) / (Bytes, error)
// "absence is not an error" convention described in §4.A and §7.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string { return fmt.Sprintf("storage: key not found: %q", e.Key) }

// ValidateKey reports whether key is a legal store key: non-empty,
// printable ASCII, and never starting/ending with '/' nor containing '//'.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("storage: key must be non-empty")
	}
	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("storage: key %q must not start or end with '/'", key)
	}
	if strings.Contains(key, "//") {
		return fmt.Errorf("storage: key %q must not contain '//'", key)
	}
	for _, r := range key {
		if r < 0x20 || r > 0x7e {
			return fmt.Errorf("storage: key %q contains non-printable-ASCII byte", key)
		}
	}
	return nil
}

// ValidatePrefix reports whether prefix is a legal store prefix: either
// "" (the root) or a string ending in '/' that is otherwise key-shaped.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if !strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("storage: prefix %q must end with '/'", prefix)
	}
	return ValidateKey(strings.TrimSuffix(prefix, "/") + "x") // reuse key validation on a non-empty stand-in
}

// KeyValueSet sets a single key to a value, keyed by the offset it should
// be applied at for set_partial_values-style batched writes.
type KeyValueSet struct {
	Key    string
	Offset uint64
	Value  []byte
}

// KeyRange pairs a key with the byte range to read from it, for
// GetPartialValues.
type KeyRange struct {
	Key   string
	Range bytesutil.ByteRange
}

// ListDirResult is the result of a one-level directory listing: the keys
// directly in prefix, and the child prefixes (each ending in '/') one
// level down.
type ListDirResult struct {
	Keys     []string
	Prefixes []string
}

// ReadableStore is the read half of the store capability set.
type ReadableStore interface {
	// Get returns the full value of key, or (nil, false, nil) if absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// GetPartialValuesKey returns the requested byte ranges of key's
	// value, or (nil, false, nil) if key is absent. Any individually
	// out-of-range request is a hard error.
	GetPartialValuesKey(ctx context.Context, key string, ranges []bytesutil.ByteRange) ([][]byte, bool, error)
	// GetPartialValues resolves a batch of (key, range) pairs, preserving
	// order; a key may repeat. Each result is nil if that key is absent.
	GetPartialValues(ctx context.Context, requests []KeyRange) ([][]byte, error)
	// SizeKey returns the size of key's value, or (0, false, nil) if
	// absent.
	SizeKey(ctx context.Context, key string) (uint64, bool, error)
}

// ListableStore is the listing half of the store capability set.
type ListableStore interface {
	Size(ctx context.Context) (uint64, error)
	SizePrefix(ctx context.Context, prefix string) (uint64, error)
	List(ctx context.Context) ([]string, error)
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
	ListDir(ctx context.Context, prefix string) (ListDirResult, error)
}

// WritableStore is the write half of the store capability set.
type WritableStore interface {
	Set(ctx context.Context, key string, value []byte) error
	// SetPartialValues applies a batch of offset-anchored writes. A write
	// that runs past the current end of a key's value MUST extend it;
	// stores that cannot do this natively emulate it with a per-key
	// read-modify-write lock.
	SetPartialValues(ctx context.Context, writes []KeyValueSet) error
}

// EraseableStore is the erase half of the store capability set.
type EraseableStore interface {
	// Erase removes key, reporting whether it was actually present.
	Erase(ctx context.Context, key string) (bool, error)
	EraseValues(ctx context.Context, keys []string) error
	ErasePrefix(ctx context.Context, prefix string) error
}

// Store is the union of all four capability sets. Concrete stores may
// implement any subset; callers that need a specific capability type-assert
// to the narrower interface (mirroring the spec's "a concrete store
// implements any subset" contract).
type Store interface {
	ReadableStore
	ListableStore
	WritableStore
	EraseableStore
}
