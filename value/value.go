// Package value implements the Hebi runtime's tagged Value representation
// and the heap object model (strings, lists, tables, functions, classes,
// instances, modules, and native hooks) built on top of it.
package value

import (
	"math"
)

// Kind identifies which alternative a Value currently holds.
type Kind uint8

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindNone
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindNone:
		return "none"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// quietNaN is the canonical bit pattern used to tag every non-float Value.
// Any non-float payload lives in the low 51 bits alongside a 3-bit kind tag.
const quietNaNBits uint64 = 0x7FF8_0000_0000_0000

// Value is a 64-bit tagged word: exactly one of a float64, an int32, a
// bool, none, or a strong reference to a heap Object. Clone/Release adjust
// the referenced object's refcount; every other variant is a bitwise copy.
type Value struct {
	kind Kind
	bits uint64 // float bits, or int32/bool payload, when kind != KindObject
	obj  Object
}

// Float constructs a float Value. Constructing from a bit pattern that is
// already a quiet NaN is a programming error and panics, matching the
// source representation's "NaN tag space is reserved" invariant.
func Float(f float64) Value {
	bits := math.Float64bits(f)
	if isQuietNaNBits(bits) {
		panic("value: Float constructed from an already-quiet-NaN bit pattern")
	}
	return Value{kind: KindFloat, bits: bits}
}

func isQuietNaNBits(bits uint64) bool {
	exp := (bits >> 52) & 0x7FF
	frac := bits & 0x000F_FFFF_FFFF_FFFF
	quiet := bits & (1 << 51)
	return exp == 0x7FF && frac != 0 && quiet != 0
}

// Int constructs a 32-bit signed integer Value.
func Int(i int32) Value {
	return Value{kind: KindInt, bits: uint64(uint32(i))}
}

// Bool constructs a boolean Value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, bits: 1}
	}
	return Value{kind: KindBool, bits: 0}
}

// None is the singleton absence-of-value.
func None() Value {
	return Value{kind: KindNone}
}

// FromObject widens a strong reference to a heap object into a Value. The
// caller's reference is consumed (ownership moves into the Value); call
// Clone first if the caller still needs its own reference afterward.
func FromObject(o Object) Value {
	if o == nil {
		return None()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsFloat() bool  { return v.kind == KindFloat }
func (v Value) IsInt() bool    { return v.kind == KindInt }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNone() bool   { return v.kind == KindNone }
func (v Value) IsObject() bool { return v.kind == KindObject }

// ToFloat returns (value, true) iff v holds a float.
func (v Value) ToFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// ToInt returns (value, true) iff v holds an int.
func (v Value) ToInt() (int32, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int32(uint32(v.bits)), true
}

// ToBool returns (value, true) iff v holds a bool.
func (v Value) ToBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.bits != 0, true
}

// ToObject returns (object, true) iff v holds an object reference.
func (v Value) ToObject() (Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Truthy implements Hebi's truthiness rule: none and false are falsy,
// everything else (including 0, 0.0, and empty containers) is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNone:
		return false
	case KindBool:
		return v.bits != 0
	default:
		return true
	}
}

// Bits reproduces the NaN-boxed wire representation described by
// spec.md §3/§8 testable property 5: a float's bits are its IEEE-754
// representation; every non-float Value's bits land inside the
// quiet-NaN payload space and never collide with a float's bits.
func (v Value) Bits() uint64 {
	if v.kind == KindFloat {
		return v.bits
	}
	payload := uint64(v.kind) << 48
	switch v.kind {
	case KindInt:
		payload |= uint64(uint32(v.bits))
	case KindBool:
		payload |= v.bits & 1
	case KindObject:
		if v.obj != nil {
			payload |= v.obj.header().id & 0x0000_FFFF_FFFF_FFFF
		}
	}
	return quietNaNBits | payload
}

// hashBits returns a bit pattern suitable as a map key: unlike Bits, every
// NaN float collapses to one canonical pattern so Value satisfies Go's
// map-key equality/hash contract despite IEEE NaN's non-reflexivity.
func (v Value) hashBits() uint64 {
	if v.kind == KindFloat {
		f, _ := v.ToFloat()
		if math.IsNaN(f) {
			return quietNaNBits
		}
		return v.bits
	}
	return v.Bits()
}

// Equal implements Value's equality contract: same float bits, same
// non-object bits, or references to the same heap cell. Object *content*
// equality is a higher-level operation (see valueEqual in vm/dispatch.go) and is never
// used as a map-key comparator.
func (v Value) Equal(other Value) bool {
	if v.kind == KindObject && other.kind == KindObject {
		return v.obj == other.obj
	}
	if v.kind != other.kind {
		return false
	}
	return v.hashBits() == other.hashBits()
}

// MapKey returns a comparable Go value usable as a map key, honoring the
// canonical-NaN hashing rule above.
func (v Value) MapKey() uint64 { return v.hashBits() }

// Clone returns a bitwise copy, retaining the referenced object (if any).
func (v Value) Clone() Value {
	if v.kind == KindObject && v.obj != nil {
		v.obj.header().retain()
	}
	return v
}

// Release drops a strong reference. When the underlying object's refcount
// reaches zero, its Finalize hook runs, cascading the release to every
// Value it holds.
func (v Value) Release() {
	if v.kind != KindObject || v.obj == nil {
		return
	}
	if v.obj.header().release() == 0 {
		v.obj.Finalize()
	}
}

// TypeName returns the runtime type name used in error messages and the
// `CmpType`/`type` surface.
func (v Value) TypeName() string {
	switch v.kind {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindNone:
		return "none"
	case KindObject:
		if v.obj == nil {
			return "none"
		}
		return v.obj.TypeName()
	default:
		return "invalid"
	}
}

// Display renders v the way `print` and string conversion do.
func (v Value) Display() string {
	switch v.kind {
	case KindFloat:
		f, _ := v.ToFloat()
		return formatFloat(f)
	case KindInt:
		i, _ := v.ToInt()
		return formatInt(i)
	case KindBool:
		b, _ := v.ToBool()
		if b {
			return "true"
		}
		return "false"
	case KindNone:
		return "none"
	case KindObject:
		if v.obj == nil {
			return "none"
		}
		return v.obj.Display()
	default:
		return "<invalid>"
	}
}

// Debug renders v the way a debugger/disassembler dump does.
func (v Value) Debug() string {
	switch v.kind {
	case KindObject:
		if v.obj == nil {
			return "None"
		}
		return v.obj.Debug()
	default:
		return v.kind.String() + "(" + v.Display() + ")"
	}
}
