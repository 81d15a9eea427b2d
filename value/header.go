package value

import "sync/atomic"

var nextObjectID atomic.Uint64

func allocID() uint64 { return nextObjectID.Add(1) }

// Header is the allocation header every heap Object embeds: an identity
// (used only to make Value.Bits() distinguish objects, not as a live
// pointer), a type name (for downcast/diagnostics), and an atomic refcount.
// Unlike the source representation this is garbage collected by the Go
// runtime underneath; the refcount still models ownership faithfully so
// Release/Finalize run deterministically at the documented point rather
// than whenever the GC gets around to it.
type Header struct {
	id       uint64
	typeName string
	rc       int32
}

func newHeader(typeName string) Header {
	return Header{id: allocID(), typeName: typeName, rc: 1}
}

func (h *Header) retain() { atomic.AddInt32(&h.rc, 1) }

func (h *Header) release() int32 { return atomic.AddInt32(&h.rc, -1) }

// RefCount reports the current strong reference count. Intended for tests
// and debugging only.
func (h *Header) RefCount() int32 { return atomic.LoadInt32(&h.rc) }

// Object is the interface every heap-allocated Hebi value implements. The
// operator hooks default to "unsupported operation" (see Base) and are
// overridden only by the concrete kinds that support them, exactly as
// spec.md §4.B describes.
type Object interface {
	header() *Header
	TypeName() string
	Display() string
	Debug() string
	// Finalize runs exactly once, when the refcount reaches zero, and must
	// release every Value field the object owns.
	Finalize()

	Add(Value) (Value, error)
	Sub(Value) (Value, error)
	Mul(Value) (Value, error)
	Div(Value) (Value, error)
	Rem(Value) (Value, error)
	Pow(Value) (Value, error)
	Invert() (Value, error)
	Not() (Value, error)
	Cmp(Value) (int, error)

	NamedField(name string) (Value, error)
	SetNamedField(name string, v Value) error
	KeyedField(key Value) (Value, error)
	SetKeyedField(key Value, v Value) error

	Call(c Caller, args []Value, kwargs *Table) (Value, error)
	Contains(Value) (bool, error)
	InstanceOf(class Value) (bool, error)
}

// Caller is the minimal surface the call-protocol operator hooks need from
// the VM to re-enter script execution (e.g. a BoundFunction or SuperProxy
// resolving into a script call). It is implemented by vm.Thread.
type Caller interface {
	CallValue(callee Value, args []Value, kwargs *Table) (Value, error)
}

// Base is embedded by every concrete Object kind. It supplies the default
// "unsupported operation" implementation of every operator hook; concrete
// types override only the methods they actually support, which is the
// idiomatic-Go stand-in for the source representation's opt-in vtable.
type Base struct {
	Header
}

func newBase(typeName string) Base { return Base{Header: newHeader(typeName)} }

// NewBase constructs a Base for an Object kind defined outside this
// package (e.g. vm.Coroutine, which embeds a *Thread and so can't live
// in value without an import cycle).
func NewBase(typeName string) Base { return newBase(typeName) }

func (b *Base) header() *Header   { return &b.Header }
func (b *Base) TypeName() string  { return b.typeName }
func (b *Base) Finalize()         {}
func (b *Base) Display() string   { return "<" + b.typeName + ">" }
func (b *Base) Debug() string     { return b.typeName + "{}" }

func (b *Base) unsupported(op string) error {
	return &Error{Kind: TypeMismatch, Message: "unsupported operation `" + op + "` on type `" + b.typeName + "`"}
}

func (b *Base) Add(Value) (Value, error)      { return Value{}, b.unsupported("+") }
func (b *Base) Sub(Value) (Value, error)      { return Value{}, b.unsupported("-") }
func (b *Base) Mul(Value) (Value, error)      { return Value{}, b.unsupported("*") }
func (b *Base) Div(Value) (Value, error)      { return Value{}, b.unsupported("/") }
func (b *Base) Rem(Value) (Value, error)      { return Value{}, b.unsupported("%") }
func (b *Base) Pow(Value) (Value, error)      { return Value{}, b.unsupported("**") }
func (b *Base) Invert() (Value, error)        { return Value{}, b.unsupported("unary -") }
func (b *Base) Not() (Value, error)           { return Value{}, b.unsupported("!") }
func (b *Base) Cmp(Value) (int, error)        { return 0, b.unsupported("compare") }

func (b *Base) NamedField(name string) (Value, error) {
	return Value{}, b.unsupported("." + name)
}
func (b *Base) SetNamedField(name string, _ Value) error {
	return b.unsupported("." + name + " =")
}
func (b *Base) KeyedField(Value) (Value, error) { return Value{}, b.unsupported("[]") }
func (b *Base) SetKeyedField(Value, Value) error { return b.unsupported("[] =") }

func (b *Base) Call(Caller, []Value, *Table) (Value, error) { return Value{}, b.unsupported("call") }
func (b *Base) Contains(Value) (bool, error)                { return false, b.unsupported("in") }
func (b *Base) InstanceOf(Value) (bool, error)              { return false, b.unsupported("instanceof") }
