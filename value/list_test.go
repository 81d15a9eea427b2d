package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListFinalizeCascadesRelease(t *testing.T) {
	inner := newString("x")
	l := NewList([]Value{FromObject(inner)})
	require.EqualValues(t, 1, inner.RefCount())

	l.Finalize()
	require.EqualValues(t, 0, inner.RefCount())
}

func TestListIndexing(t *testing.T) {
	l := NewList([]Value{Int(1), Int(2), Int(3)})
	v, ok := l.At(1)
	require.True(t, ok)
	i, _ := v.ToInt()
	require.EqualValues(t, 2, i)

	require.True(t, l.Set(0, Int(9)))
	v, _ = l.At(0)
	i, _ = v.ToInt()
	require.EqualValues(t, 9, i)

	_, ok = l.At(10)
	require.False(t, ok)
}

func TestTableOrderedIteration(t *testing.T) {
	tbl := NewTable()
	tbl.Set("b", Int(2))
	tbl.Set("a", Int(1))
	tbl.Set("b", Int(22))

	require.Equal(t, []string{"b", "a"}, tbl.Keys())
	v, ok := tbl.Get("b")
	require.True(t, ok)
	i, _ := v.ToInt()
	require.EqualValues(t, 22, i)
}

func TestTableCloneIsIndependent(t *testing.T) {
	tbl := NewTable()
	tbl.Set("a", Int(1))
	clone := tbl.Clone()
	clone.Set("a", Int(2))

	v, _ := tbl.Get("a")
	i, _ := v.ToInt()
	require.EqualValues(t, 1, i)
}
