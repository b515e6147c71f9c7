package zarr

import (
	"runtime"

	"github.com/nimbusdata/zarrgo/internal/codec"
)

// CodecOptions bundles the per-call knobs every public façade operation
// accepts (§4.F/§4.I): the user's concurrency target and whether checksum
// codecs verify their trailer on decode.
type CodecOptions struct {
	// ConcurrentTarget is T in the §4.I formula. Zero means "use
	// runtime.NumCPU()".
	ConcurrentTarget uint64
	VerifyChecksums  bool
}

// DefaultCodecOptions returns {ConcurrentTarget: NumCPU, VerifyChecksums: true}.
func DefaultCodecOptions() CodecOptions {
	return CodecOptions{ConcurrentTarget: uint64(runtime.NumCPU()), VerifyChecksums: true}
}

func (o CodecOptions) target() uint64 {
	if o.ConcurrentTarget == 0 {
		return uint64(runtime.NumCPU())
	}
	return o.ConcurrentTarget
}

func (o CodecOptions) toInternal() codec.Options {
	return codec.Options{ConcurrentTarget: o.target(), VerifyChecksums: o.VerifyChecksums}
}
