package value

import "sync/atomic"

// ParamSpec describes a callable's parameter contract, matching spec.md
// §4.D/§4.G exactly: an implicit receiver slot, a positional range, and
// optional variadic/keyword collection.
type ParamSpec struct {
	HasSelf  bool
	Min, Max int
	Variadic bool // extra positionals collect into a List at register 1
	Kwargs   bool // unrecognized keywords collect into a Table at register 2
}

// UpvalueDesc is one entry of a FunctionDescriptor's upvalue list: either
// "capture register R of the creating frame" or "share upvalue cell U of
// the creating function".
type UpvalueDesc struct {
	FromParent bool // true: register of the creating frame; false: upvalue of the creating function
	Index      uint32
}

// ConstantKind tags one constant-pool slot.
type ConstantKind uint8

const (
	ConstReserved ConstantKind = iota
	ConstString
	ConstFunction
	ConstClass
	ConstFloat
	ConstOffset
)

// Constant is one constant-pool entry. Reserved entries must never be read
// at runtime (spec.md §6); they exist only as a parking spot for a
// forward jump's true offset until the emitter resolves it (spec.md §4.C).
type Constant struct {
	Kind   ConstantKind
	Obj    Value // valid when Kind is ConstString/ConstFunction/ConstClass
	Float  float64
	Offset int32
}

func StringConstant(s *String) Constant   { return Constant{Kind: ConstString, Obj: FromObject(s)} }
func FunctionConstant(f *FunctionDescriptor) Constant {
	return Constant{Kind: ConstFunction, Obj: FromObject(f)}
}
func ClassConstant(c *ClassDescriptor) Constant { return Constant{Kind: ConstClass, Obj: FromObject(c)} }
func FloatConstant(f float64) Constant          { return Constant{Kind: ConstFloat, Float: f} }
func OffsetConstant(off int32) Constant         { return Constant{Kind: ConstOffset, Offset: off} }
func ReservedConstant() Constant                { return Constant{Kind: ConstReserved} }

func (c Constant) release() {
	switch c.Kind {
	case ConstString, ConstFunction, ConstClass:
		c.Obj.Release()
	}
}

// FunctionDescriptor is the static, shareable, immutable-after-emit form
// of a function: name, parameter spec, constant pool, instruction bytes,
// upvalue descriptors, and frame size. Code is mutable only insofar as an
// inline-cache rewrite may swap an opcode byte in place; this
// implementation performs no such rewrites but the dispatch loop still
// re-decodes every opcode per step so the door stays open (spec.md §9).
type FunctionDescriptor struct {
	Base
	Name        string
	IsGenerator bool
	Params      ParamSpec
	Constants   []Constant
	Code        []byte
	Upvalues    []UpvalueDesc
	FrameSize   int
	Span        Span
}

// NewFunctionDescriptor allocates a descriptor. Validity (register/jump/
// upvalue/constant bounds, spec.md §4.D) is the emitter's responsibility;
// internal/asm's builder enforces it for hand-built test/demo descriptors.
func NewFunctionDescriptor(name string) *FunctionDescriptor {
	return &FunctionDescriptor{Base: newBase("FunctionDescriptor"), Name: name}
}

func (f *FunctionDescriptor) Display() string { return "<function " + f.Name + ">" }
func (f *FunctionDescriptor) Debug() string   { return f.Display() }

func (f *FunctionDescriptor) Finalize() {
	for _, c := range f.Constants {
		c.release()
	}
	f.Constants = nil
}

// ModuleID is a dense identifier for a Module, stable across its lifetime.
type ModuleID uint32

// Function is the runtime form of a FunctionDescriptor: the descriptor
// plus its resolved upvalue cells and the module it was created in.
// Interior mutable only in its upvalue cells (closures share them).
type Function struct {
	Base
	Descriptor *FunctionDescriptor
	Upvalues   []*UpvalueCell
	Module     ModuleID

	// Super is the class `super` resolves against inside this function's
	// body: nil for plain functions, and for a method it is set once, at
	// class-construction time, to the *lexically enclosing* class's
	// parent — not the runtime receiver's class, which may differ when
	// the method is inherited unshadowed (spec.md §9).
	Super *Class
}

// NewFunction allocates a Function. len(upvalues) must equal
// len(descriptor.Upvalues) (spec.md §3 invariant).
func NewFunction(desc *FunctionDescriptor, upvalues []*UpvalueCell, module ModuleID) *Function {
	desc.retain()
	return &Function{Base: newBase("Function"), Descriptor: desc, Upvalues: upvalues, Module: module}
}

func (fn *Function) Display() string { return "<function " + fn.Descriptor.Name + ">" }
func (fn *Function) Debug() string   { return fn.Display() }

// SetSuper tags fn as a method of class owner, retaining owner's parent
// (if any) for later LoadSuper resolution. Called once, at
// class-construction time, for every method a class declares directly
// (not for methods merely inherited unshadowed from a parent).
func (fn *Function) SetSuper(owner *Class) {
	if owner == nil || owner.Parent == nil {
		return
	}
	owner.Parent.retain()
	fn.Super = owner.Parent
}

func (fn *Function) Finalize() {
	for _, uv := range fn.Upvalues {
		uv.Release()
	}
	fn.Upvalues = nil
	FromObject(fn.Descriptor).Release()
	if fn.Super != nil {
		FromObject(fn.Super).Release()
	}
}

// UpvalueCell is a heap cell shared between a declaring frame and every
// closure capturing it by reference.
type UpvalueCell struct {
	rc  atomic.Int32
	val Value
}

// NewUpvalueCell allocates a cell with one strong reference (rc=1).
func NewUpvalueCell(v Value) *UpvalueCell {
	c := &UpvalueCell{val: v}
	c.rc.Store(1)
	return c
}

func (c *UpvalueCell) Retain() *UpvalueCell {
	c.rc.Add(1)
	return c
}

func (c *UpvalueCell) Release() {
	if c.rc.Add(-1) == 0 {
		c.val.Release()
	}
}

func (c *UpvalueCell) Get() Value { return c.val.Clone() }

func (c *UpvalueCell) Set(v Value) {
	old := c.val
	c.val = v
	old.Release()
}
