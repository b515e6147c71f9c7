package chunkgrid

import (
	"strconv"
	"strings"
)

// Separator is one of the two characters Zarr allows between chunk index
// components.
type Separator byte

const (
	SeparatorSlash Separator = '/'
	SeparatorDot   Separator = '.'
)

func (s Separator) String() string { return string(rune(s)) }

// KeyEncoding is the chunk_key_encoding metadata: either "default" (always
// prefixed with "c") or "v2" (no prefix, dot separator by default). Both
// forms are pure functions of (indices, separator) — see §4.D.
type KeyEncoding struct {
	v2        bool
	separator Separator
}

// NewDefault builds the V3 "default" chunk key encoding. The separator
// defaults to '/' when sep is the zero value.
func NewDefault(sep Separator) KeyEncoding {
	if sep == 0 {
		sep = SeparatorSlash
	}
	return KeyEncoding{v2: false, separator: sep}
}

// NewV2 builds the Zarr V2-style chunk key encoding (no "c" prefix). The
// separator defaults to '.' when sep is the zero value.
func NewV2(sep Separator) KeyEncoding {
	if sep == 0 {
		sep = SeparatorDot
	}
	return KeyEncoding{v2: true, separator: sep}
}

// Name reports the V3 metadata name ("default" or "v2").
func (k KeyEncoding) Name() string {
	if k.v2 {
		return "v2"
	}
	return "default"
}

// Separator returns the configured separator.
func (k KeyEncoding) Separator() Separator { return k.separator }

// Encode maps chunk indices to the relative (node-path-free) store key
// fragment. A zero-dimensional grid always encodes to the single key "c"
// (default) or "0" (v2), per §8's boundary-behaviour clause.
func (k KeyEncoding) Encode(indices []uint64) string {
	if len(indices) == 0 {
		if k.v2 {
			return "0"
		}
		return "c"
	}
	var sb strings.Builder
	if !k.v2 {
		sb.WriteByte('c')
		sb.WriteByte(byte(k.separator))
	}
	for i, idx := range indices {
		if i > 0 {
			sb.WriteByte(byte(k.separator))
		}
		sb.WriteString(strconv.FormatUint(idx, 10))
	}
	return sb.String()
}
