package value

// FieldDefault is one class-level field default, in declaration order.
type FieldDefault struct {
	Name    string
	Default Value
}

// ClassDescriptor is the static, immutable form of a class: name,
// parameter spec, method descriptors, and field defaults. IsDerived marks
// a class declared with a parent clause, which the emitter uses to
// decide whether `super` is resolvable inside its methods (spec.md
// §4.D). Params is the constructor's parameter contract the positional
// `args` count is checked against when the class has no explicit `init`
// method (spec.md §4.G step 4); kwargs are not checked against it.
type ClassDescriptor struct {
	Base
	Name       string
	IsDerived  bool
	ParentName string
	Params     ParamSpec
	Methods    map[string]*FunctionDescriptor
	Fields     []FieldDefault
}

func NewClassDescriptor(name string) *ClassDescriptor {
	return &ClassDescriptor{Base: newBase("ClassDescriptor"), Name: name, Methods: make(map[string]*FunctionDescriptor)}
}

func (c *ClassDescriptor) Display() string { return "<class descriptor " + c.Name + ">" }
func (c *ClassDescriptor) Debug() string   { return c.Display() }

func (c *ClassDescriptor) Finalize() {
	for _, m := range c.Methods {
		FromObject(m).Release()
	}
	for _, f := range c.Fields {
		f.Default.Release()
	}
	c.Methods = nil
	c.Fields = nil
}

// Class is the runtime form of a class: name, bound init (if any), a
// fully merged method table (own + inherited, per spec.md §3's invariant
// that a derived class's method table contains every unshadowed parent
// method), a field-defaults table that already includes the parent's
// defaults, and the optional runtime parent walked by InstanceOf
// (distinct from the *lexical* parent a SuperProxy walks — see spec.md §9).
type Class struct {
	Base
	Name    string
	Params  ParamSpec
	Init    *Function
	Methods map[string]*Function
	Fields  *Table
	Parent  *Class
}

// NewClass allocates a Class. Callers are expected to have already merged
// parent methods into methods per the inheritance invariant. params is
// the constructor contract `construct` checks the positional `args` count
// against when the class has no `init` method.
func NewClass(name string, params ParamSpec, methods map[string]*Function, fields *Table, parent *Class) *Class {
	init := methods["init"]
	if parent != nil {
		parent.retain()
	}
	return &Class{Base: newBase("Class"), Name: name, Params: params, Init: init, Methods: methods, Fields: fields, Parent: parent}
}

func (c *Class) Display() string { return "<class " + c.Name + ">" }
func (c *Class) Debug() string   { return c.Display() }

// Method looks up a method by name in this class's (already-merged) table.
func (c *Class) Method(name string) (*Function, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

func (c *Class) Finalize() {
	for _, m := range c.Methods {
		FromObject(m).Release()
	}
	c.Methods = nil
	if c.Fields != nil {
		FromObject(c.Fields).Release()
	}
	if c.Parent != nil {
		FromObject(c.Parent).Release()
	}
}

func (c *Class) InstanceOf(classVal Value) (bool, error) {
	o, ok := classVal.ToObject()
	if !ok {
		return false, nil
	}
	target, ok := o.(*Class)
	if !ok {
		return false, nil
	}
	for cur := c; cur != nil; cur = cur.Parent {
		if cur == target {
			return true, nil
		}
	}
	return false, nil
}

// Instance is a live object: a Class reference, its own field table
// (a copy of the class's merged field defaults), and frozen state. It has
// no parent link of its own; the parent chain is reached through
// Class.Parent.
type Instance struct {
	Base
	Class    *Class
	Fields   *Table
	Frozen   bool
}

// NewInstance allocates an instance with its own cloned copy of the
// class's field defaults (spec.md §4.G step 4).
func NewInstance(class *Class) *Instance {
	class.retain()
	return &Instance{Base: newBase("Instance"), Class: class, Fields: class.Fields.Clone()}
}

func (i *Instance) Display() string { return "<" + i.Class.Name + " instance>" }
func (i *Instance) Debug() string   { return i.Display() }

func (i *Instance) Finalize() {
	FromObject(i.Class).Release()
	FromObject(i.Fields).Release()
}

func (i *Instance) NamedField(name string) (Value, error) {
	if v, ok := i.Fields.Get(name); ok {
		return v.Clone(), nil
	}
	if m, ok := i.Class.Method(name); ok {
		return FromObject(NewBoundFunction(FromObject(i), FromObject(m))), nil
	}
	return Value{}, NewError(UnboundName, "no field or method named `%s` on `%s`", name, i.Class.Name)
}

func (i *Instance) SetNamedField(name string, v Value) error {
	if i.Frozen && !i.Fields.Has(name) {
		return NewError(TypeMismatch, "cannot add field `%s` to frozen instance of `%s`", name, i.Class.Name)
	}
	i.Fields.Set(name, v)
	return nil
}

func (i *Instance) InstanceOf(classVal Value) (bool, error) {
	return i.Class.InstanceOf(classVal)
}

// SuperProxy binds a receiver instance with the textually lexical parent
// class, so `super.m()` dispatches up the *declared* hierarchy regardless
// of the receiver's concrete runtime class (spec.md §4.G step 5, §9).
type SuperProxy struct {
	Base
	Receiver Value
	Parent   *Class
}

func NewSuperProxy(receiver Value, parent *Class) *SuperProxy {
	parent.retain()
	return &SuperProxy{Base: newBase("SuperProxy"), Receiver: receiver.Clone(), Parent: parent}
}

func (s *SuperProxy) Display() string { return "<super " + s.Parent.Name + ">" }
func (s *SuperProxy) Debug() string   { return s.Display() }

func (s *SuperProxy) Finalize() {
	s.Receiver.Release()
	FromObject(s.Parent).Release()
}

func (s *SuperProxy) NamedField(name string) (Value, error) {
	m, ok := s.Parent.Method(name)
	if !ok {
		return Value{}, NewError(UnboundName, "no method named `%s` on parent `%s`", name, s.Parent.Name)
	}
	return FromObject(NewBoundFunction(s.Receiver.Clone(), FromObject(m))), nil
}

// BoundFunction pairs a receiver with a callable, binding `self` the way
// a method access produces a directly-callable value.
type BoundFunction struct {
	Base
	Receiver Value
	Callable Value
}

func NewBoundFunction(receiver, callable Value) *BoundFunction {
	return &BoundFunction{Base: newBase("BoundFunction"), Receiver: receiver.Clone(), Callable: callable.Clone()}
}

func (b *BoundFunction) Display() string { return "<bound " + b.Callable.Display() + ">" }
func (b *BoundFunction) Debug() string   { return b.Display() }

func (b *BoundFunction) Finalize() {
	b.Receiver.Release()
	b.Callable.Release()
}
