package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleStateTransitionsAreOneWayFromPending(t *testing.T) {
	desc := NewFunctionDescriptor("__main__")
	fn := NewFunction(desc, nil, 0)
	FromObject(desc).Release()

	m := NewModule("m", 1, fn, false)
	require.Equal(t, ModulePending, m.State)

	m.MarkReady()
	require.Equal(t, ModuleReady, m.State)
	require.Panics(t, func() { m.MarkReady() })
}

func TestModuleMarkBrokenFromPending(t *testing.T) {
	desc := NewFunctionDescriptor("__main__")
	fn := NewFunction(desc, nil, 0)
	FromObject(desc).Release()

	m := NewModule("m", 1, fn, false)
	m.MarkBroken()
	require.Equal(t, ModuleBroken, m.State)
	require.Panics(t, func() { m.MarkReady() })
}
