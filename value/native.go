package value

// NativeFunc is a host callback: the function signature every
// NativeFunction and NativeClass hook invokes. The Caller lets a host
// function call back into script code (e.g. invoking a user-supplied
// callback argument).
type NativeFunc func(c Caller, args []Value, kwargs *Table) (Value, error)

// NativeFunction wraps a host-provided Go function as a callable Value.
type NativeFunction struct {
	Base
	Name string
	Fn   NativeFunc
}

func NewNativeFunction(name string, fn NativeFunc) *NativeFunction {
	return &NativeFunction{Base: newBase("NativeFunction"), Name: name, Fn: fn}
}

func (f *NativeFunction) Display() string { return "<native function " + f.Name + ">" }
func (f *NativeFunction) Debug() string   { return f.Display() }

func (f *NativeFunction) Call(c Caller, args []Value, kwargs *Table) (Value, error) {
	return f.Fn(c, args, kwargs)
}

// NativeAccessor is a get/set pair exposed as an instance field on a
// NativeClass.
type NativeAccessor struct {
	Get func(c Caller, recv *NativeInstance) (Value, error)
	Set func(c Caller, recv *NativeInstance, v Value) error
}

// NativeClass is a host-registered class: native construction, accessor
// fields, and native methods, installed ahead of time via Vm.Register
// rather than compiled from script source.
type NativeClass struct {
	Base
	Name      string
	Init      NativeFunc
	Accessors map[string]NativeAccessor
	Methods   map[string]NativeFunc
}

func NewNativeClass(name string) *NativeClass {
	return &NativeClass{
		Base:      newBase("NativeClass"),
		Name:      name,
		Accessors: make(map[string]NativeAccessor),
		Methods:   make(map[string]NativeFunc),
	}
}

func (c *NativeClass) Display() string { return "<native class " + c.Name + ">" }
func (c *NativeClass) Debug() string   { return c.Display() }

// NativeInstance pairs a NativeClass with an opaque, host-owned user-data
// box.
type NativeInstance struct {
	Base
	Class    *NativeClass
	UserData any
}

func NewNativeInstance(class *NativeClass, userData any) *NativeInstance {
	return &NativeInstance{Base: newBase("NativeInstance"), Class: class, UserData: userData}
}

func (n *NativeInstance) Display() string { return "<" + n.Class.Name + " native instance>" }
func (n *NativeInstance) Debug() string   { return n.Display() }

func (n *NativeInstance) NamedField(name string) (Value, error) {
	if acc, ok := n.Class.Accessors[name]; ok && acc.Get != nil {
		return acc.Get(nil, n)
	}
	if fn, ok := n.Class.Methods[name]; ok {
		return FromObject(NewBoundFunction(FromObject(n), FromObject(NewNativeFunction(name, fn)))), nil
	}
	return Value{}, NewError(UnboundName, "no field or method named `%s` on native class `%s`", name, n.Class.Name)
}

func (n *NativeInstance) SetNamedField(name string, v Value) error {
	if acc, ok := n.Class.Accessors[name]; ok && acc.Set != nil {
		return acc.Set(nil, n, v)
	}
	return NewError(TypeMismatch, "field `%s` on native class `%s` is not settable", name, n.Class.Name)
}
