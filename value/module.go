package value

// ModuleState is a Module's initialization state (spec.md §3 invariant:
// transitions are one-way from Pending).
type ModuleState uint8

const (
	ModulePending ModuleState = iota
	ModuleReady
	ModuleBroken
)

// ModuleDescriptor is the static form of a module: its root function and
// the declared order of its top-level (module-level) variables.
type ModuleDescriptor struct {
	Base
	Name       string
	Root       *FunctionDescriptor
	ModuleVars []string
}

func NewModuleDescriptor(name string, root *FunctionDescriptor, moduleVars []string) *ModuleDescriptor {
	root.retain()
	return &ModuleDescriptor{Base: newBase("ModuleDescriptor"), Name: name, Root: root, ModuleVars: moduleVars}
}

func (m *ModuleDescriptor) Display() string { return "<module descriptor " + m.Name + ">" }
func (m *ModuleDescriptor) Debug() string   { return m.Display() }

func (m *ModuleDescriptor) Finalize() { FromObject(m.Root).Release() }

// Module is the runtime form of a module: identity, its root Function
// bound to that identity, its module-variable table, and initialization
// state. The root (__main__) module binds top-level names into the Vm's
// global table instead of a per-module Table; see spec.md §4.H.
type Module struct {
	Base
	Name       string
	ID         ModuleID
	Root       *Function
	Vars       *Table
	ModuleVars []string
	State      ModuleState
	IsRootMain bool
}

func NewModule(name string, id ModuleID, root *Function, isRootMain bool) *Module {
	root.retain()
	return &Module{
		Base:       newBase("Module"),
		Name:       name,
		ID:         id,
		Root:       root,
		Vars:       NewTable(),
		State:      ModulePending,
		IsRootMain: isRootMain,
	}
}

// WithModuleVars attaches the declared module-variable name list (dense
// index -> name, matching LoadModuleVar/StoreModuleVar operands) and
// returns the same Module for chaining.
func (m *Module) WithModuleVars(names []string) *Module {
	m.ModuleVars = names
	return m
}

// NamedField exposes a module's exported variables under `import`'s
// binding (spec.md §4.H): `mod.x` reads Vars["x"].
func (m *Module) NamedField(name string) (Value, error) {
	v, ok := m.Vars.Get(name)
	if !ok {
		return Value{}, NewError(UnboundName, "module `%s` has no exported name `%s`", m.Name, name)
	}
	return v.Clone(), nil
}

func (m *Module) Display() string { return "<module " + m.Name + ">" }
func (m *Module) Debug() string  { return m.Display() }

func (m *Module) Finalize() {
	FromObject(m.Root).Release()
	FromObject(m.Vars).Release()
}

// MarkReady transitions Pending -> Ready. Panics if called from any other
// state, enforcing the one-way-from-Pending invariant.
func (m *Module) MarkReady() {
	if m.State != ModulePending {
		panic("value: Module.MarkReady called from non-Pending state")
	}
	m.State = ModuleReady
}

// MarkBroken transitions Pending -> Broken.
func (m *Module) MarkBroken() {
	if m.State != ModulePending {
		panic("value: Module.MarkBroken called from non-Pending state")
	}
	m.State = ModuleBroken
}
