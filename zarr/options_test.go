package zarr

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCodecOptions(t *testing.T) {
	opts := DefaultCodecOptions()
	require.Equal(t, uint64(runtime.NumCPU()), opts.ConcurrentTarget)
	require.True(t, opts.VerifyChecksums)
}

func TestCodecOptions_ZeroTargetFallsBackToNumCPU(t *testing.T) {
	opts := CodecOptions{ConcurrentTarget: 0, VerifyChecksums: false}
	internal := opts.toInternal()
	require.Equal(t, uint64(runtime.NumCPU()), internal.ConcurrentTarget)
	require.False(t, internal.VerifyChecksums)
}

func TestCodecOptions_ExplicitTargetPreserved(t *testing.T) {
	opts := CodecOptions{ConcurrentTarget: 7, VerifyChecksums: true}
	internal := opts.toInternal()
	require.Equal(t, uint64(7), internal.ConcurrentTarget)
}
