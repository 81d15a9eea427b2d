package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloatBitsAreCanonical(t *testing.T) {
	v := Float(math.Pi)
	f, ok := v.ToFloat()
	require.True(t, ok)
	require.Equal(t, math.Pi, f)
	require.Equal(t, math.Float64bits(math.Pi), v.Bits())
}

func TestFloatFromQuietNaNPanics(t *testing.T) {
	qnan := math.Float64frombits(0b0_11111111111_1_000000000000000000000000000000000000000000000000000)
	require.Panics(t, func() { Float(qnan) })
}

func TestBitsNeverCollideAcrossFloatAndNonFloat(t *testing.T) {
	l := NewList(nil)
	cases := []Value{
		Int(5), Bool(true), Bool(false), None(), FromObject(l),
	}
	for _, v := range cases {
		require.NotEqual(t, Float(1.5).Bits(), v.Bits(), "kind=%v", v.Kind())
	}
	l.Finalize()
}

func TestEqualityContract(t *testing.T) {
	require.True(t, Int(5).Equal(Int(5)))
	require.False(t, Int(5).Equal(Int(6)))
	require.False(t, Int(5).Equal(Float(5)))
	require.True(t, None().Equal(None()))
	require.True(t, Bool(true).Equal(Bool(true)))

	s := newString("a")
	a := FromObject(s)
	b := a.Clone()
	require.True(t, a.Equal(b))
	a.Release()
	b.Release()
}

func TestCloneAndReleaseRestoresRefcount(t *testing.T) {
	s := newString("hello")
	v := FromObject(s)
	require.EqualValues(t, 1, s.RefCount())

	clone := v.Clone()
	require.EqualValues(t, 2, s.RefCount())

	clone.Release()
	require.EqualValues(t, 1, s.RefCount())

	v.Release()
}

func TestTruthy(t *testing.T) {
	require.False(t, None().Truthy())
	require.False(t, Bool(false).Truthy())
	require.True(t, Bool(true).Truthy())
	require.True(t, Int(0).Truthy())
	require.True(t, Float(0).Truthy())
}
