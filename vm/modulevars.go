package vm

import "github.com/wudi/hebi/value"

// loadModuleVar and storeModuleVar implement LoadModuleVar/StoreModuleVar.
// Per spec.md §4.H, the root (__main__) module's top-level names bind
// into the Vm's global table rather than a per-module Table, so the root
// script's top-level names and builtins registered via Vm.Register
// resolve from the same table. Any other module reads and writes its own
// Module.Vars table.
func (t *Thread) loadModuleVar(f *Frame, idx int) (value.Value, error) {
	name := moduleVarName(f, idx)
	if f.Module != nil && f.Module.IsRootMain {
		if v, ok := t.vm.globals.Get(name); ok {
			return v.Clone(), nil
		}
		return value.Value{}, value.NewError(value.UnboundName, "unbound name `%s`", name)
	}
	if f.Module == nil {
		return value.Value{}, value.NewError(value.UnboundName, "unbound name `%s`", name)
	}
	if v, ok := f.Module.Vars.Get(name); ok {
		return v.Clone(), nil
	}
	return value.Value{}, value.NewError(value.UnboundName, "unbound name `%s`", name)
}

func (t *Thread) storeModuleVar(f *Frame, idx int, v value.Value) error {
	name := moduleVarName(f, idx)
	if f.Module != nil && f.Module.IsRootMain {
		t.vm.globals.Set(name, v)
		return nil
	}
	if f.Module == nil {
		v.Release()
		return value.NewError(value.UnboundName, "no module bound for `%s`", name)
	}
	f.Module.Vars.Set(name, v)
	return nil
}

func moduleVarName(f *Frame, idx int) string {
	if f.Module == nil || idx < 0 || idx >= len(f.Module.ModuleVars) {
		return "<unknown>"
	}
	return f.Module.ModuleVars[idx]
}
