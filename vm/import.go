package vm

import (
	"strings"

	"github.com/wudi/hebi/value"
)

func retainModule(mod *value.Module) *value.Module {
	v := value.FromObject(mod).Clone()
	obj, _ := v.ToObject()
	return obj.(*value.Module)
}

// importModule implements the Import opcode, grounded on
// _examples/original_source/src/isolate/import.rs's load(): resolve an
// already-Ready module from the registry, reject a reentrant import of a
// module still mid-initialization as circular, or else reserve a fresh
// ModuleID, fetch+compile the module, register it, run its root scope,
// and evict it from the registry on failure so a later import re-fetches
// it from scratch rather than resolving to a broken instance.
func (t *Thread) importModule(pathName string) (value.Value, error) {
	segments := strings.Split(pathName, ".")
	name := segments[len(segments)-1]

	if mod, circular, found := t.vm.modules.Lookup(segments); found {
		if circular {
			return value.Value{}, value.NewError(value.CircularImport, "attempted to import partially initialized module `%s`", name)
		}
		return value.FromObject(retainModule(mod)), nil
	}

	if preloaded, ok := t.vm.preloaded[pathName]; ok {
		return t.loadModule(name, segments, preloaded)
	}

	if t.vm.loader == nil {
		return value.Value{}, value.NewError(value.BrokenModule, "no module loader registered, cannot import `%s`", name)
	}
	src, err := t.vm.loader.Load(segments)
	if err != nil {
		return value.Value{}, value.NewError(value.BrokenModule, "failed to load module `%s`: %v", name, err)
	}
	if t.vm.frontend == nil {
		return value.Value{}, value.NewError(value.BrokenModule, "no source frontend registered, cannot compile module `%s`", name)
	}
	desc, err := t.vm.frontend(src)
	if err != nil {
		return value.Value{}, value.NewError(value.Syntax, "failed to compile module `%s`: %v", name, err)
	}
	return t.loadModule(name, segments, desc)
}

func (t *Thread) loadModule(name string, segments []string, desc *value.ModuleDescriptor) (value.Value, error) {
	id := t.vm.modules.BeginPending()

	rootFn := value.NewFunction(desc.Root, nil, id)
	mod := value.NewModule(name, id, rootFn, false).WithModuleVars(desc.ModuleVars)
	value.FromObject(rootFn).Release() // NewModule retained its own copy of rootFn

	t.vm.modules.Add(id, segments, mod)

	_, err := t.callFunction(rootFn, nil, nil, nil)
	if err != nil {
		if mod.State == value.ModulePending {
			mod.MarkBroken()
		}
		t.vm.modules.Remove(id, segments)
		value.FromObject(mod).Release()
		return value.Value{}, err
	}
	t.vm.modules.EndInit(id)
	return value.FromObject(retainModule(mod)), nil
}
