// Package vm implements the register-based bytecode dispatch loop: the
// Thread call/return/yield protocol, closures and upvalues, class
// construction and super dispatch, and the module import pipeline.
package vm

import (
	"io"
	"os"

	"github.com/wudi/hebi/module"
	"github.com/wudi/hebi/value"
)

// Frontend compiles source text into a module descriptor. The runtime
// core has no lexer or parser in scope: a host embeds a frontend by
// calling SetFrontend (or preloads already-compiled descriptors via
// PreloadModule for imports, and runs the entry script via RunMain).
// Vm.Eval/Compile return a BrokenModule error until one is installed.
type Frontend func(source string) (*value.ModuleDescriptor, error)

// Vm owns everything shared across a script's threads of execution: the
// string interner, the module registry, the global name table that the
// root module's top-level names bind into, and the host-supplied module
// loader/frontend hooks.
type Vm struct {
	Interner *value.Interner

	modules   *module.Registry
	globals   *value.Table
	loader    module.Loader
	frontend  Frontend
	preloaded map[string]*value.ModuleDescriptor

	out io.Writer
}

// New constructs an empty Vm. Install a module loader with SetLoader and
// a source frontend with SetFrontend before running scripts that import
// other modules; Register installs host-provided native values into the
// global table consulted by LoadGlobal/StoreGlobal.
func New() *Vm {
	return &Vm{
		Interner:  value.NewInterner(),
		modules:   module.NewRegistry(),
		globals:   value.NewTable(),
		preloaded: make(map[string]*value.ModuleDescriptor),
		out:       os.Stdout,
	}
}

// SetLoader installs the module source loader used to resolve `import`
// paths that aren't already satisfied by PreloadModule.
func (vm *Vm) SetLoader(l module.Loader) { vm.loader = l }

// SetFrontend installs the source-to-bytecode compiler used both by
// Eval/Compile and by `import` when a loaded module's source still needs
// compiling.
func (vm *Vm) SetFrontend(f Frontend) { vm.frontend = f }

// SetOutput redirects Print/PrintN output; a Vm from New writes to stdout.
func (vm *Vm) SetOutput(w io.Writer) { vm.out = w }

// PreloadModule registers an already-compiled module descriptor under a
// dotted import path, bypassing the loader and frontend entirely. This
// is how hand-built bytecode (assembled via internal/asm, as tests do)
// becomes importable without a real source pipeline.
func (vm *Vm) PreloadModule(pathName string, desc *value.ModuleDescriptor) {
	vm.preloaded[pathName] = desc
}

// Register installs a host value under name in the global table, where
// LoadGlobal/StoreGlobal and the root module's LoadModuleVar/
// StoreModuleVar resolve it from.
func (vm *Vm) Register(name string, v value.Value) {
	vm.globals.Set(name, v)
}

func (vm *Vm) writeOutput(s string) {
	io.WriteString(vm.out, s)
}

// Compile turns source text into a module descriptor via the installed
// frontend, returning the frontend's descriptor unchanged.
func (vm *Vm) Compile(source string) (*value.ModuleDescriptor, error) {
	if vm.frontend == nil {
		return nil, value.NewError(value.BrokenModule, "no source frontend registered")
	}
	return vm.frontend(source)
}

// Eval compiles and runs source as the root (__main__) module on a fresh
// Thread, returning the value its root scope returns.
func (vm *Vm) Eval(source string) (value.Value, error) {
	desc, err := vm.Compile(source)
	if err != nil {
		return value.Value{}, err
	}
	return vm.RunMain(desc)
}

// RunMain runs an already-compiled descriptor as the root module,
// binding its top-level names into the Vm's global table (spec.md §4.H)
// rather than a per-module Table. Use this together with PreloadModule
// when no frontend is installed (e.g. tests driving internal/asm output
// directly).
func (vm *Vm) RunMain(desc *value.ModuleDescriptor) (value.Value, error) {
	id := vm.modules.BeginPending()
	rootFn := value.NewFunction(desc.Root, nil, id)
	mod := value.NewModule("__main__", id, rootFn, true).WithModuleVars(desc.ModuleVars)
	value.FromObject(rootFn).Release()

	vm.modules.Add(id, []string{"__main__"}, mod)

	t := newThread(vm)
	result, err := t.callFunction(rootFn, nil, nil, nil)
	if err != nil {
		if mod.State == value.ModulePending {
			mod.MarkBroken()
		}
		vm.modules.Remove(id, []string{"__main__"})
		value.FromObject(mod).Release()
		return value.Value{}, err
	}
	vm.modules.EndInit(id)
	value.FromObject(mod).Release()
	return result, nil
}

// Call invokes an arbitrary callable Value (a script Function, a bound
// method, a Class, or a native callable) from host code on a fresh
// Thread and blocks for its result. If the called code executes a Yield,
// the yielded value is returned as the result and the Thread stays
// suspended; calling a generator function returns its Coroutine without
// running the body. Hosts that need
// cooperative resumption should drive a Thread's Start/Resume directly
// instead.
func (vm *Vm) Call(callee value.Value, args []value.Value, kwargs *value.Table) (value.Value, error) {
	t := newThread(vm)
	res := t.Start(callee, args, kwargs)
	return res.Value, res.Err
}
