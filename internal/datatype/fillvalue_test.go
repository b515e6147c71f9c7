package datatype_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/datatype"
)

func TestFillValue_New_WrongSize(t *testing.T) {
	_, err := datatype.New(datatype.Int32(), []byte{1, 2, 3})
	require.Error(t, err)
}

func TestFillValue_Repeat(t *testing.T) {
	fv, err := datatype.New(datatype.Uint8(), []byte{7})
	require.NoError(t, err)
	require.Equal(t, []byte{7, 7, 7}, fv.Repeat(3))
}

func TestFillValue_EqualsAll(t *testing.T) {
	fv, err := datatype.New(datatype.Uint16(), []byte{0, 0})
	require.NoError(t, err)
	require.True(t, fv.EqualsAll([]byte{0, 0, 0, 0}))
	require.False(t, fv.EqualsAll([]byte{0, 0, 1, 0}))
	require.False(t, fv.EqualsAll([]byte{0, 0, 0})) // not a multiple of element size
}

func TestFillValue_EqualsAll_EmptyBuffer(t *testing.T) {
	fv, _ := datatype.New(datatype.Uint8(), []byte{0})
	require.True(t, fv.EqualsAll(nil))
}

func TestFromJSONNumber_Int(t *testing.T) {
	fv, err := datatype.FromJSONNumber(datatype.Int32(), -5, false, false, false)
	require.NoError(t, err)
	require.Len(t, fv.Bytes(), 4)
}

func TestFromJSONNumber_DateTime64(t *testing.T) {
	fv, err := datatype.FromJSONNumber(datatype.DateTime64(), 1700000000, false, false, false)
	require.NoError(t, err)
	require.Len(t, fv.Bytes(), 8)
}

func TestFromJSONNumber_TimeDelta64(t *testing.T) {
	fv, err := datatype.FromJSONNumber(datatype.TimeDelta64(), -42, false, false, false)
	require.NoError(t, err)
	require.Len(t, fv.Bytes(), 8)
}

func TestFromJSONNumber_FloatNaN(t *testing.T) {
	fv, err := datatype.FromJSONNumber(datatype.Float32(), 0, true, false, false)
	require.NoError(t, err)
	bits := uint32(fv.Bytes()[0]) | uint32(fv.Bytes()[1])<<8 | uint32(fv.Bytes()[2])<<16 | uint32(fv.Bytes()[3])<<24
	require.True(t, math.IsNaN(float64(math.Float32frombits(bits))))
}

func TestFromJSONNumber_VariableLengthRejected(t *testing.T) {
	_, err := datatype.FromJSONNumber(datatype.String(), 0, false, false, false)
	require.Error(t, err)
}

func TestZero(t *testing.T) {
	fv := datatype.Zero(datatype.Int64())
	require.Equal(t, make([]byte, 8), fv.Bytes())
}

func TestZero_VariableLength(t *testing.T) {
	fv := datatype.Zero(datatype.String())
	require.Empty(t, fv.Bytes())
}
