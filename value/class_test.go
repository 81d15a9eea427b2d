package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeTrivialMethod(name string) *Function {
	desc := NewFunctionDescriptor(name)
	desc.Params = ParamSpec{HasSelf: true, Min: 0, Max: 0}
	fn := NewFunction(desc, nil, 0)
	FromObject(desc).Release() // NewFunction retained its own reference
	return fn
}

func TestInstanceFieldAndMethodResolution(t *testing.T) {
	fields := NewTable()
	fields.Set("x", Int(1))

	methods := map[string]*Function{"m": makeTrivialMethod("m")}
	class := NewClass("A", ParamSpec{}, methods, fields, nil)

	inst := NewInstance(class)
	v, err := inst.NamedField("x")
	require.NoError(t, err)
	i, _ := v.ToInt()
	require.EqualValues(t, 1, i)

	// Mutating the instance's copy must not affect the class defaults.
	require.NoError(t, inst.SetNamedField("x", Int(99)))
	classDefault, _ := class.Fields.Get("x")
	d, _ := classDefault.ToInt()
	require.EqualValues(t, 1, d)

	bound, err := inst.NamedField("m")
	require.NoError(t, err)
	require.True(t, bound.IsObject())
	obj, _ := bound.ToObject()
	_, ok := obj.(*BoundFunction)
	require.True(t, ok)
}

func TestClassInstanceOfWalksParentChain(t *testing.T) {
	parent := NewClass("Base", ParamSpec{}, map[string]*Function{}, NewTable(), nil)
	child := NewClass("Derived", ParamSpec{}, map[string]*Function{}, NewTable(), parent)

	inst := NewInstance(child)
	ok, err := inst.InstanceOf(FromObject(parent))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = inst.InstanceOf(FromObject(child))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSuperProxyDispatchesToLexicalParent(t *testing.T) {
	parentMethod := makeTrivialMethod("m")
	parent := NewClass("Base", ParamSpec{}, map[string]*Function{"m": parentMethod}, NewTable(), nil)
	child := NewClass("Derived", ParamSpec{}, map[string]*Function{"m": makeTrivialMethod("m")}, NewTable(), parent)
	inst := NewInstance(child)

	proxy := NewSuperProxy(FromObject(inst), parent)
	bound, err := proxy.NamedField("m")
	require.NoError(t, err)
	obj, _ := bound.ToObject()
	bf, ok := obj.(*BoundFunction)
	require.True(t, ok)

	callee, _ := bf.Callable.ToObject()
	require.Same(t, parentMethod, callee)
}
