package datatype_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/datatype"
)

func TestNewFixed_RejectsVariableLength(t *testing.T) {
	_, err := datatype.NewFixed(datatype.String(), []byte("abc"))
	require.Error(t, err)
}

func TestNewFixed_RejectsMisalignedBuffer(t *testing.T) {
	_, err := datatype.NewFixed(datatype.Int32(), []byte{1, 2, 3})
	require.Error(t, err)
}

func TestNewFixed_NumElementsAndElement(t *testing.T) {
	ab, err := datatype.NewFixed(datatype.Int32(), []byte{
		1, 0, 0, 0,
		2, 0, 0, 0,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2), ab.NumElements())
	require.Equal(t, []byte{2, 0, 0, 0}, ab.Element(1))
	buf, err := ab.IntoFixed()
	require.NoError(t, err)
	require.Len(t, buf, 8)
}

func TestNewVariable_RejectsFixedSize(t *testing.T) {
	_, err := datatype.NewVariable(datatype.Int32(), nil, nil)
	require.Error(t, err)
}

func TestNewVariable_RejectsNonMonotonicOffsets(t *testing.T) {
	_, err := datatype.NewVariable(datatype.String(), []byte("abc"), []uint64{0, 2, 1, 3})
	require.Error(t, err)
}

func TestNewVariable_RejectsMismatchedFinalOffset(t *testing.T) {
	_, err := datatype.NewVariable(datatype.String(), []byte("abc"), []uint64{0, 1, 5})
	require.Error(t, err)
}

func TestNewVariable_ElementAndNumElements(t *testing.T) {
	ab, err := datatype.NewVariable(datatype.String(), []byte("foobar"), []uint64{0, 3, 6})
	require.NoError(t, err)
	require.Equal(t, uint64(2), ab.NumElements())
	require.Equal(t, []byte("foo"), ab.Element(0))
	require.Equal(t, []byte("bar"), ab.Element(1))
}

func TestIntoFixed_RejectsVariableLength(t *testing.T) {
	ab, _ := datatype.NewVariable(datatype.String(), []byte("foo"), []uint64{0, 3})
	_, err := ab.IntoFixed()
	require.Error(t, err)
}

func TestConcatVariable_RejectsFixedSize(t *testing.T) {
	_, err := datatype.ConcatVariable(datatype.Int32(), nil)
	require.Error(t, err)
}

func TestConcatVariable_MergesPayloadsAndRenumbersOffsets(t *testing.T) {
	a, _ := datatype.NewVariable(datatype.String(), []byte("foo"), []uint64{0, 3})
	b, _ := datatype.NewVariable(datatype.String(), []byte("barbaz"), []uint64{0, 3, 6})

	merged, err := datatype.ConcatVariable(datatype.String(), []datatype.ArrayBytes{a, b})
	require.NoError(t, err)
	require.Equal(t, uint64(3), merged.NumElements())
	require.Equal(t, []byte("foo"), merged.Element(0))
	require.Equal(t, []byte("bar"), merged.Element(1))
	require.Equal(t, []byte("baz"), merged.Element(2))
}

func TestFixed_Bounded_Unbounded(t *testing.T) {
	require.Equal(t, datatype.FixedSize, datatype.Fixed(4).Kind)
	require.Equal(t, uint64(4), datatype.Fixed(4).Size)
	require.Equal(t, datatype.BoundedSize, datatype.Bounded(8).Kind)
	require.Equal(t, datatype.UnboundedSize, datatype.Unbounded().Kind)
}
