package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/hebi/internal/asm"
	"github.com/wudi/hebi/bytecode"
	"github.com/wudi/hebi/value"
	"github.com/wudi/hebi/vm"
)

// buildAddOne assembles `fn addOne(x) { return x + 1 }`.
func buildAddOne() *value.FunctionDescriptor {
	f := asm.NewFunc("addOne")
	f.SetParams(value.ParamSpec{Min: 1, Max: 1})
	f.Emit(bytecode.LoadSmi, 1)
	f.Emit(bytecode.Add, 3)
	f.Emit(bytecode.Return)
	desc, err := f.Build()
	if err != nil {
		panic(err)
	}
	return desc
}

func TestCallAndArithmetic(t *testing.T) {
	addOne := buildAddOne()

	main := asm.NewFunc("__main__")
	idx := main.Const(value.FunctionConstant(addOne))
	main.Emit(bytecode.MakeFn, int64(idx))
	main.Emit(bytecode.Store, 4)
	main.Emit(bytecode.LoadSmi, 5)
	main.Emit(bytecode.Store, 5)
	main.Emit(bytecode.Call, 4, 1)
	main.Emit(bytecode.FinalizeModule)
	main.Emit(bytecode.Return)
	rootDesc, err := main.Build()
	require.NoError(t, err)

	modDesc := value.NewModuleDescriptor("__main__", rootDesc, nil)

	machine := vm.New()
	result, err := machine.RunMain(modDesc)
	require.NoError(t, err)
	require.True(t, result.IsInt())
	n, ok := result.ToInt()
	require.True(t, ok)
	require.Equal(t, int32(6), n)
}

// buildSharedCounterClosures assembles two closures over the same
// register of a shared enclosing frame: A increments and returns the
// counter, B just reads it. Calling A then B must observe A's mutation
// through B — proof that sibling closures share one upvalue cell rather
// than each capturing an independent snapshot.
func buildSharedCounterClosures() *value.FunctionDescriptor {
	closureA := asm.NewFunc("closureA")
	closureA.AddUpvalue(true, 3) // captures outer's register 3
	closureA.Emit(bytecode.LoadUpvalue, 0)
	closureA.Emit(bytecode.Store, 3)
	closureA.Emit(bytecode.LoadSmi, 1)
	closureA.Emit(bytecode.Add, 3)
	closureA.Emit(bytecode.StoreUpvalue, 0)
	closureA.Emit(bytecode.Return)
	aDesc, err := closureA.Build()
	if err != nil {
		panic(err)
	}

	closureB := asm.NewFunc("closureB")
	closureB.AddUpvalue(true, 3)
	closureB.Emit(bytecode.LoadUpvalue, 0)
	closureB.Emit(bytecode.Return)
	bDesc, err := closureB.Build()
	if err != nil {
		panic(err)
	}

	outer := asm.NewFunc("__main__")
	outer.Emit(bytecode.LoadSmi, 0)
	outer.Emit(bytecode.Store, 3)

	idxA := outer.Const(value.FunctionConstant(aDesc))
	outer.Emit(bytecode.MakeFn, int64(idxA))
	outer.Emit(bytecode.Store, 4)

	idxB := outer.Const(value.FunctionConstant(bDesc))
	outer.Emit(bytecode.MakeFn, int64(idxB))
	outer.Emit(bytecode.Store, 5)

	outer.Emit(bytecode.Call0, 4)
	outer.Emit(bytecode.Store, 6)

	outer.Emit(bytecode.Call0, 5)
	outer.Emit(bytecode.Store, 7)

	outer.Emit(bytecode.MakeList, 6, 2)
	outer.Emit(bytecode.FinalizeModule)
	outer.Emit(bytecode.Return)

	desc, err := outer.Build()
	if err != nil {
		panic(err)
	}
	return desc
}

// buildOptionalChainProbe assembles a root scope exercising both halves of
// LoadFieldOpt/LoadIndexOpt's short-circuit: a none receiver, and a
// non-none receiver whose field/key lookup itself fails. Both must yield
// `none` rather than propagate the lookup error.
func buildOptionalChainProbe() *value.FunctionDescriptor {
	interner := value.NewInterner()
	main := asm.NewFunc("__main__")
	idxX := main.ConstString(interner, "x")
	idxMissing := main.ConstString(interner, "missing")
	idxKey := main.ConstString(interner, "key")

	main.Emit(bytecode.LoadNone)
	main.Emit(bytecode.LoadFieldOpt, int64(idxX))
	main.Emit(bytecode.Store, 4)

	main.Emit(bytecode.MakeTableEmpty)
	main.Emit(bytecode.LoadFieldOpt, int64(idxMissing))
	main.Emit(bytecode.Store, 5)

	main.Emit(bytecode.MakeTableEmpty)
	main.Emit(bytecode.Store, 8)
	main.Emit(bytecode.LoadConst, int64(idxKey))
	main.Emit(bytecode.LoadIndexOpt, 8)
	main.Emit(bytecode.Store, 6)

	main.Emit(bytecode.MakeList, 4, 3)
	main.Emit(bytecode.FinalizeModule)
	main.Emit(bytecode.Return)

	desc, err := main.Build()
	if err != nil {
		panic(err)
	}
	return desc
}

// TestOptionalChainShortCircuitsOnNoneReceiverAndMissingField covers
// spec.md §8's optional-chain-on-none scenario: `a?.b` must yield `none`
// both when `a` is `none` and when `a` is a real value that simply has no
// `b` field/key — the latter is the case LoadFieldOpt/LoadIndexOpt used to
// get wrong by propagating the lookup error instead of swallowing it.
func TestOptionalChainShortCircuitsOnNoneReceiverAndMissingField(t *testing.T) {
	rootDesc := buildOptionalChainProbe()
	modDesc := value.NewModuleDescriptor("__main__", rootDesc, nil)

	machine := vm.New()
	result, err := machine.RunMain(modDesc)
	require.NoError(t, err)

	obj, ok := result.ToObject()
	require.True(t, ok)
	list, ok := obj.(*value.List)
	require.True(t, ok)
	require.Equal(t, 3, list.Len())

	for i := 0; i < 3; i++ {
		v, ok := list.At(i)
		require.True(t, ok)
		require.True(t, v.IsNone(), "element %d: optional chain must short-circuit to none", i)
	}
}

// buildBrokenSubmodule assembles a module whose root scope unconditionally
// raises (an unbound global reference), so importing it always fails.
func buildBrokenSubmodule() *value.ModuleDescriptor {
	interner := value.NewInterner()
	f := asm.NewFunc("broken")
	idxName := f.ConstString(interner, "nope")
	f.Emit(bytecode.LoadGlobal, int64(idxName))
	f.Emit(bytecode.Return)
	desc, err := f.Build()
	if err != nil {
		panic(err)
	}
	return value.NewModuleDescriptor("broken", desc, nil)
}

// buildImportingMain assembles a root scope that imports the "broken" path.
func buildImportingMain() *value.FunctionDescriptor {
	interner := value.NewInterner()
	main := asm.NewFunc("__main__")
	idxPath := main.ConstString(interner, "broken")
	main.Emit(bytecode.Import, int64(idxPath), 4)
	main.Emit(bytecode.Return)
	desc, err := main.Build()
	if err != nil {
		panic(err)
	}
	return desc
}

// TestBrokenModuleIsEvictedAndReimportRetriesCleanly covers spec.md §8's
// broken-module-eviction scenario: a module whose root scope errors must be
// removed from the registry entirely (module/registry.go's Remove), not
// merely marked Broken in place. If eviction didn't happen, a second import
// of the same path would still find the first attempt's entry mid-pending
// and fail with CircularImport instead of re-fetching and failing the same
// way it did the first time.
func TestBrokenModuleIsEvictedAndReimportRetriesCleanly(t *testing.T) {
	machine := vm.New()
	machine.PreloadModule("broken", buildBrokenSubmodule())

	_, err1 := machine.RunMain(value.NewModuleDescriptor("__main__", buildImportingMain(), nil))
	require.Error(t, err1)
	e1, ok := err1.(*value.Error)
	require.True(t, ok)
	require.Equal(t, value.UnboundName, e1.Kind)

	_, err2 := machine.RunMain(value.NewModuleDescriptor("__main__", buildImportingMain(), nil))
	require.Error(t, err2)
	e2, ok := err2.(*value.Error)
	require.True(t, ok)
	require.NotEqual(t, value.CircularImport, e2.Kind, "broken module must be evicted, not left pending")
	require.Equal(t, value.UnboundName, e2.Kind, "reimport should fail the same way, not resolve to a stale broken instance")
}

func TestClosureCaptureSharesMutationAcrossSiblings(t *testing.T) {
	rootDesc := buildSharedCounterClosures()
	modDesc := value.NewModuleDescriptor("__main__", rootDesc, nil)

	machine := vm.New()
	result, err := machine.RunMain(modDesc)
	require.NoError(t, err)

	obj, ok := result.ToObject()
	require.True(t, ok)
	list, ok := obj.(*value.List)
	require.True(t, ok)
	require.Equal(t, 2, list.Len())

	a, ok := list.At(0)
	require.True(t, ok)
	b, ok := list.At(1)
	require.True(t, ok)
	aVal, _ := a.ToInt()
	bVal, _ := b.ToInt()
	require.Equal(t, int32(1), aVal)
	require.Equal(t, int32(1), bVal, "sibling closure must observe the other's mutation through the shared cell")
}
